package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"engage-engine/internal/extract"
)

// Extractor is the remote half of the chain; tests substitute a stub.
type Extractor interface {
	Extract(ctx context.Context, input string) (Result, error)
}

// Source records where the prefecture came from.
type Source string

const (
	SourceNone   Source = ""
	SourceText   Source = "text"
	SourceHTML   Source = "html"
	SourceRemote Source = "remote"
)

type Enrichment struct {
	Prefecture       string
	PrefectureSource Source
	CompanyName      string
}

// Chain resolves the prefecture locally first (text, then HTML) and asks the
// remote extractor for the company name, using its prefecture only when the
// local passes found nothing.
type Chain struct {
	Remote Extractor
	Log    zerolog.Logger
}

func (ch Chain) Resolve(ctx context.Context, text, htmlBody string) Enrichment {
	var e Enrichment

	if p, ok := extract.Prefecture(text); ok {
		e.Prefecture, e.PrefectureSource = p, SourceText
	} else if p, ok := extract.Prefecture(htmlBody); ok {
		e.Prefecture, e.PrefectureSource = p, SourceHTML
	}

	input := htmlBody
	if input == "" {
		input = text
	}
	if ch.Remote == nil || input == "" {
		return e
	}

	res, err := ch.Remote.Extract(ctx, input)
	if err != nil {
		ch.Log.Debug().Err(err).Msg("remote enrichment degraded")
	}
	if e.Prefecture == "" && res.Prefecture != "" {
		e.Prefecture, e.PrefectureSource = res.Prefecture, SourceRemote
	}
	e.CompanyName = res.CompanyName
	return e
}
