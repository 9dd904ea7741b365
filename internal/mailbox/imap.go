// Package mailbox reads Engage notifications from an IMAP inbox and marks
// them processed with the \Flagged flag.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"
)

const DefaultPort = "993"

// Session is one logged-in mailbox with INBOX selected.
type Session interface {
	// Unprocessed returns unflagged messages from sender, in fetch order.
	Unprocessed(ctx context.Context, sender string) ([]Message, error)
	// Flag marks a message processed so later searches skip it.
	Flag(ctx context.Context, uid uint32) error
	Close() error
}

// Dialer opens a Session for host (with or without a port).
type Dialer interface {
	Dial(ctx context.Context, host, username, password string) (Session, error)
}

// IMAP dials over implicit TLS.
type IMAP struct {
	Timeout   time.Duration
	TLSConfig *tls.Config
	Log       zerolog.Logger
}

func (d IMAP) Dial(ctx context.Context, host, username, password string) (Session, error) {
	if host == "" {
		return nil, errors.New("imap host is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, DefaultPort)
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	tlsCfg := d.TLSConfig
	if tlsCfg == nil {
		serverName, _, _ := net.SplitHostPort(addr)
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: serverName}
	}

	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}, Config: tlsCfg}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	c := imapclient.New(conn, nil)

	// Unblocks any pending command when the account's context ends.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", nil).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap select inbox: %w", err)
	}

	return &imapSession{c: c, stop: stop, log: d.Log}, nil
}

type imapSession struct {
	c    *imapclient.Client
	stop func() bool
	log  zerolog.Logger
}

func (s *imapSession) Unprocessed(ctx context.Context, sender string) ([]Message, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagFlagged},
		Header:  []imap.SearchCriteriaHeaderField{{Key: "From", Value: sender}},
	}
	data, err := s.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// BODY.PEEK[] so fetching does not set \Seen.
	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	cmd := s.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = cmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md := cmd.Next()
		if md == nil {
			break
		}
		buf, err := md.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m, err := ParseMessage(buf.FindBodySection(bodyAll))
		if err != nil {
			s.log.Warn().Err(err).Uint32("uid", uint32(buf.UID)).Msg("unparsable message, using envelope only")
		}
		m.UID = uint32(buf.UID)
		if env := buf.Envelope; env != nil {
			if m.Subject == "" {
				m.Subject = env.Subject
			}
			if m.From == "" && len(env.From) > 0 {
				m.From = env.From[0].Addr()
			}
			if m.Date.IsZero() {
				m.Date = env.Date
			}
		}
		if m.Date.IsZero() {
			m.Date = buf.InternalDate
		}
		out = append(out, m)
	}

	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func (s *imapSession) Flag(ctx context.Context, uid uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := s.c.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagFlagged},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add flagged: %w", err)
	}
	return nil
}

func (s *imapSession) Close() error {
	s.stop()
	if err := s.c.Logout().Wait(); err != nil {
		s.log.Debug().Err(err).Msg("imap logout")
	}
	return s.c.Close()
}
