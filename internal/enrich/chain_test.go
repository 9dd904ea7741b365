package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubRemote struct {
	res   Result
	err   error
	calls int
	input string
}

func (s *stubRemote) Extract(_ context.Context, input string) (Result, error) {
	s.calls++
	s.input = input
	return s.res, s.err
}

func TestChainLocalPrefectureWins(t *testing.T) {
	remote := &stubRemote{res: Result{Prefecture: "大阪府", CompanyName: "株式会社A"}}
	ch := Chain{Remote: remote, Log: zerolog.Nop()}

	e := ch.Resolve(context.Background(), "勤務地：東京都渋谷区", "<p>html</p>")
	assert.Equal(t, "東京都", e.Prefecture)
	assert.Equal(t, SourceText, e.PrefectureSource)
	assert.Equal(t, "株式会社A", e.CompanyName)
	assert.Equal(t, "<p>html</p>", remote.input, "html is preferred as model input")
}

func TestChainHTMLFallback(t *testing.T) {
	ch := Chain{Log: zerolog.Nop()}
	e := ch.Resolve(context.Background(), "本文", "<td>勤務地</td><td>宮城県仙台市</td>")
	assert.Equal(t, "宮城県", e.Prefecture)
	assert.Equal(t, SourceHTML, e.PrefectureSource)
}

func TestChainRemoteFillsPrefecture(t *testing.T) {
	remote := &stubRemote{res: Result{Prefecture: "北海道", CompanyName: "株式会社B"}}
	ch := Chain{Remote: remote, Log: zerolog.Nop()}

	e := ch.Resolve(context.Background(), "勤務地の記載なし", "")
	assert.Equal(t, "北海道", e.Prefecture)
	assert.Equal(t, SourceRemote, e.PrefectureSource)
	assert.Equal(t, "勤務地の記載なし", remote.input)
}

func TestChainRemoteFailureDegrades(t *testing.T) {
	remote := &stubRemote{err: errors.New("timeout")}
	ch := Chain{Remote: remote, Log: zerolog.Nop()}

	e := ch.Resolve(context.Background(), "本文のみ", "")
	assert.Equal(t, Enrichment{}, e)
	assert.Equal(t, 1, remote.calls)
}

func TestChainDisabledClientDegrades(t *testing.T) {
	c, err := New(Config{}, nil, zerolog.Nop())
	assert.NoError(t, err)

	e := Chain{Remote: c, Log: zerolog.Nop()}.Resolve(context.Background(), "本文のみ", "")
	assert.Equal(t, Enrichment{}, e)
}
