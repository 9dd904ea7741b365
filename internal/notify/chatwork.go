package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const ChatworkBaseURL = "https://api.chatwork.com/v2"

// Chatwork posts messages to a room with the v2 REST API.
type Chatwork struct {
	baseURL string
	hc      *http.Client
	cb      *gobreaker.CircuitBreaker
}

func NewChatwork(baseURL string, log zerolog.Logger) *Chatwork {
	if baseURL == "" {
		baseURL = ChatworkBaseURL
	}
	return &Chatwork{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 10 * time.Second},
		cb:      newBreaker("chatwork", log),
	}
}

func (c *Chatwork) Name() string { return "chatwork" }

func (c *Chatwork) Send(ctx context.Context, token, roomID, body string) error {
	if token == "" || roomID == "" {
		return fmt.Errorf("chatwork: incomplete target")
	}
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, token, roomID, body)
	})
	return err
}

func (c *Chatwork) post(ctx context.Context, token, roomID, body string) error {
	endpoint := fmt.Sprintf("%s/rooms/%s/messages", c.baseURL, url.PathEscape(roomID))
	form := url.Values{"body": {body}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("chatwork request: %w", err)
	}
	req.Header.Set("X-ChatWorkToken", token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("chatwork post: %w", err)
	}
	defer res.Body.Close()
	return statusError("chatwork", res)
}

// statusError turns anything but 200 into an error carrying a body excerpt.
func statusError(channel string, res *http.Response) error {
	if res.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("%s status %d: %s", channel, res.StatusCode, strings.TrimSpace(string(excerpt)))
}
