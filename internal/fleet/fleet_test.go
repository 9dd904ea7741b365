package fleet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engage-engine/internal/dedup"
	"engage-engine/internal/domain"
	"engage-engine/internal/pipeline"
)

type fakeDirectory struct {
	accounts      []domain.AccountConfig
	accountsErr   error
	settingsCalls atomic.Int32
	gotInstant    bool
}

func (d *fakeDirectory) NotifySettings(context.Context) (map[string]*domain.NotifySettings, error) {
	d.settingsCalls.Add(1)
	return map[string]*domain.NotifySettings{"default": {Name: "default"}}, nil
}

func (d *fakeDirectory) Accounts(_ context.Context, instant bool, _ map[string]*domain.NotifySettings) ([]domain.AccountConfig, error) {
	d.gotInstant = instant
	return d.accounts, d.accountsErr
}

func (d *fakeDirectory) Mappings(context.Context) (domain.MappingTable, domain.MappingTable, error) {
	return domain.MappingTable{{Category: "介護職", Keywords: []string{"介護"}}}, nil, nil
}

type fakeLoader struct{ err error }

func (l fakeLoader) Snapshot(context.Context) ([]string, [][]string, error) {
	return domain.DefaultHeader, nil, l.err
}

// procFunc adapts a function to AccountProcessor.
type procFunc func(ctx context.Context, acct domain.AccountConfig) (pipeline.Summary, error)

func (f procFunc) Process(ctx context.Context, acct domain.AccountConfig) (pipeline.Summary, error) {
	return f(ctx, acct)
}

func accounts(emails ...string) []domain.AccountConfig {
	out := make([]domain.AccountConfig, 0, len(emails))
	for _, e := range emails {
		out = append(out, domain.AccountConfig{Email: e, ClientName: "C-" + e})
	}
	return out
}

func newOrchestrator(dir *fakeDirectory, proc AccountProcessor) *Orchestrator {
	return &Orchestrator{
		Cfg:       Config{Workers: 2, AccountTimeout: time.Second},
		Directory: dir,
		Records:   fakeLoader{},
		Build:     func(RunDeps) AccountProcessor { return proc },
		Log:       zerolog.Nop(),
	}
}

func TestRunSumsProcessed(t *testing.T) {
	dir := &fakeDirectory{accounts: accounts("a", "b", "c")}
	proc := procFunc(func(context.Context, domain.AccountConfig) (pipeline.Summary, error) {
		return pipeline.Summary{Fetched: 2, Processed: 2}, nil
	})

	rs, err := newOrchestrator(dir, proc).Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rs.RunID)
	assert.Equal(t, 3, rs.Accounts)
	assert.Equal(t, 6, rs.Processed)
	assert.Equal(t, 6, rs.Messages.Fetched)
	assert.Equal(t, int32(1), dir.settingsCalls.Load())
}

func TestRunBuildGetsSeededCache(t *testing.T) {
	dir := &fakeDirectory{accounts: accounts("a")}
	o := newOrchestrator(dir, nil)
	var deps RunDeps
	o.Build = func(d RunDeps) AccountProcessor {
		deps = d
		return procFunc(func(context.Context, domain.AccountConfig) (pipeline.Summary, error) {
			return pipeline.Summary{}, nil
		})
	}

	rs, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rs.RunID, deps.RunID)
	assert.Equal(t, dedup.Ready, deps.Cache.State())
	assert.Len(t, deps.Jobs, 1)
}

func TestRunAbortsWhenCacheCannotSeed(t *testing.T) {
	dir := &fakeDirectory{accounts: accounts("a")}
	built := false
	o := newOrchestrator(dir, nil)
	o.Records = fakeLoader{err: errors.New("sheet unreachable")}
	o.Build = func(RunDeps) AccountProcessor { built = true; return nil }

	_, err := o.Run(context.Background())
	assert.ErrorContains(t, err, "sheet unreachable")
	assert.False(t, built)
}

func TestRunNoAccounts(t *testing.T) {
	_, err := newOrchestrator(&fakeDirectory{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoAccounts)
}

func TestRunAccountLoadErrorIsFatal(t *testing.T) {
	dir := &fakeDirectory{accountsErr: errors.New("quota")}
	_, err := newOrchestrator(dir, nil).Run(context.Background())
	assert.ErrorContains(t, err, "quota")
}

func TestInstantSkipsNotificationSettings(t *testing.T) {
	dir := &fakeDirectory{accounts: accounts("a")}
	o := newOrchestrator(dir, procFunc(func(context.Context, domain.AccountConfig) (pipeline.Summary, error) {
		return pipeline.Summary{}, nil
	}))
	o.Cfg.Instant = true

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, dir.settingsCalls.Load())
	assert.True(t, dir.gotInstant)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var cur, peak atomic.Int32
	proc := procFunc(func(context.Context, domain.AccountConfig) (pipeline.Summary, error) {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		cur.Add(-1)
		return pipeline.Summary{Processed: 1}, nil
	})

	rs, err := newOrchestrator(&fakeDirectory{accounts: accounts("a", "b", "c", "d", "e")}, proc).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, rs.Processed)
	assert.Equal(t, int32(2), peak.Load())
}

func TestRunIsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	var reasons []string
	proc := procFunc(func(ctx context.Context, acct domain.AccountConfig) (pipeline.Summary, error) {
		switch acct.Email {
		case "slow":
			<-ctx.Done()
			return pipeline.Summary{Processed: 10}, ctx.Err()
		case "stubborn":
			// Ignores cancellation; its late result must not count.
			time.Sleep(150 * time.Millisecond)
			return pipeline.Summary{Processed: 10}, nil
		case "panics":
			panic("nil map")
		case "fails":
			return pipeline.Summary{Processed: 10}, errors.New("login failed")
		}
		return pipeline.Summary{Processed: 1}, nil
	})

	o := newOrchestrator(&fakeDirectory{accounts: accounts("ok1", "slow", "stubborn", "panics", "fails", "ok2")}, proc)
	o.Cfg.AccountTimeout = 50 * time.Millisecond
	o.OnAccountFailure = func(r string) {
		mu.Lock()
		reasons = append(reasons, r)
		mu.Unlock()
	}

	rs, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Processed)
	assert.Equal(t, 2, rs.TimedOut)
	assert.Equal(t, 2, rs.Failed)
	assert.ElementsMatch(t, []string{"timeout", "timeout", "panic", "error"}, reasons)
}
