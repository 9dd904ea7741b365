// Package enrich asks a language model for the fields the mail text does not
// reveal on its own: the workplace prefecture and the hiring company.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"engage-engine/internal/ratelimit"
)

const (
	DefaultModel = "gpt-4.1-nano"

	maxInputChars = 10000
	callAttempts  = 3
	callBackoff   = 5 * time.Second
	callTimeout   = 30 * time.Second

	systemPrompt = "あなたはHTMLからデータを抽出する専門家です。HTMLを解析して必要な情報を正確に抽出してください。" +
		"回答は prefecture と companyName の2つのキーだけを持つJSONオブジェクトで返してください。"
	userPrompt = "以下のHTMLから、勤務地の都道府県名、応募先の会社名や施設名を抽出してください。\n\nHTML:\n"
)

// Result holds what the model found. Empty strings mean unknown.
type Result struct {
	Prefecture  string
	CompanyName string
}

type Config struct {
	APIKey  string
	BaseURL string // optional, for proxies and tests
	Model   string
}

// Client calls the chat completions API with a fixed response schema.
// Without an API key it is disabled and every call returns an empty Result.
type Client struct {
	api      *openai.Client
	model    string
	endpoint string
	schema   *jsonschema.Schema
	limiter  *ratelimit.HostLimiter
	log      zerolog.Logger

	// Backoff is the unit of the linear retry delay on 429s.
	Backoff  time.Duration
	Attempts uint
}

func New(cfg Config, limiter *ratelimit.HostLimiter, log zerolog.Logger) (*Client, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile enrichment schema: %w", err)
	}

	c := &Client{
		model:    cfg.Model,
		schema:   schema,
		limiter:  limiter,
		log:      log.With().Str("component", "enrich").Logger(),
		Backoff:  callBackoff,
		Attempts: callAttempts,
	}
	if c.model == "" {
		c.model = DefaultModel
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c.endpoint = oc.BaseURL
	oc.HTTPClient = &http.Client{Timeout: callTimeout}
	c.api = openai.NewClientWithConfig(oc)
	return c, nil
}

func (c *Client) Enabled() bool { return c != nil && c.api != nil }

// Extract sends input (truncated) to the model. Failures never propagate as
// fatal: the returned Result is empty and err says why, for logging.
func (c *Client) Extract(ctx context.Context, input string) (Result, error) {
	if !c.Enabled() {
		c.log.Debug().Msg("no API key, skipping enrichment")
		return Result{}, nil
	}
	if strings.TrimSpace(input) == "" {
		return Result{}, nil
	}
	input = truncate(input, maxInputChars)

	var res Result
	err := retry.Do(
		func() error {
			r, err := c.call(ctx, input)
			if err != nil {
				return err
			}
			res = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * c.Backoff
		}),
		retry.RetryIf(isRateLimited),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Uint("attempt", n+1).Uint("of", c.Attempts).
				Dur("wait", time.Duration(n+1)*c.Backoff).Msg("enrichment rate limited, retrying")
		}),
	)
	if err != nil {
		if isRateLimited(err) {
			c.log.Warn().Err(err).Msg("enrichment still rate limited, giving up")
		} else {
			c.log.Warn().Err(err).Msg("enrichment failed")
		}
		return Result{}, err
	}

	c.log.Info().Str("prefecture", res.Prefecture).Str("company", res.CompanyName).Msg("enrichment result")
	return res, nil
}

func (c *Client) call(ctx context.Context, input string) (Result, error) {
	if err := c.limiter.WaitURL(ctx, c.endpoint); err != nil {
		return Result{}, retry.Unrecoverable(err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt + input},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("chat completion: no choices")
	}
	return c.decode(resp.Choices[0].Message.Content)
}

func (c *Client) decode(content string) (Result, error) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return Result{}, fmt.Errorf("decode model output: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return Result{}, fmt.Errorf("model output does not match schema: %w", err)
	}

	var out struct {
		Prefecture  *string `json:"prefecture"`
		CompanyName *string `json:"companyName"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Result{}, fmt.Errorf("decode model output: %w", err)
	}
	return Result{
		Prefecture:  deref(out.Prefecture),
		CompanyName: deref(out.CompanyName),
	}, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") {
		return ""
	}
	return v
}
