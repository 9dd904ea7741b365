package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const LineBaseURL = "https://api.line.me/v2/bot"

// LINE pushes text messages to a user or group with the Messaging API.
type LINE struct {
	baseURL string
	hc      *http.Client
	cb      *gobreaker.CircuitBreaker
}

func NewLINE(baseURL string, log zerolog.Logger) *LINE {
	if baseURL == "" {
		baseURL = LineBaseURL
	}
	return &LINE{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 10 * time.Second},
		cb:      newBreaker("line", log),
	}
}

func (l *LINE) Name() string { return "line" }

type linePush struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (l *LINE) Send(ctx context.Context, token, to, text string) error {
	if token == "" || to == "" {
		return fmt.Errorf("line: incomplete target")
	}
	_, err := l.cb.Execute(func() (interface{}, error) {
		return nil, l.push(ctx, token, to, text)
	})
	return err
}

func (l *LINE) push(ctx context.Context, token, to, text string) error {
	payload, err := json.Marshal(linePush{
		To:       to,
		Messages: []lineMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("line payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/message/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("line request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := l.hc.Do(req)
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	defer res.Body.Close()
	return statusError("line", res)
}
