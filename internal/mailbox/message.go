package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// maxPartBytes caps how much of a single text part is read.
const maxPartBytes = 6 << 20

// Message is one fetched mail with its decoded bodies.
type Message struct {
	UID     uint32
	Subject string
	From    string // bare address
	Date    time.Time

	Text string
	HTML string
}

// ParseMessage decodes an RFC 822 message. Headers are RFC 2047 decoded and
// text parts are converted to UTF-8 (ISO-2022-JP and Shift_JIS included).
// The first text/plain and first text/html parts win.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if len(raw) == 0 {
		return m, errors.New("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return m, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	if s, err := mr.Header.Subject(); err == nil {
		m.Subject = strings.TrimSpace(s)
	} else {
		m.Subject = strings.TrimSpace(mr.Header.Get("Subject"))
	}
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		m.From = addrs[0].Address
	}
	if d, err := mr.Header.Date(); err == nil {
		m.Date = d
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return m, fmt.Errorf("read part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue // attachment
		}
		mediaType, _, _ := h.ContentType()
		switch {
		case mediaType == "text/plain" && m.Text == "":
			b, _ := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
			m.Text = string(b)
		case mediaType == "text/html" && m.HTML == "":
			b, _ := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
			m.HTML = string(b)
		}
	}
	return m, nil
}
