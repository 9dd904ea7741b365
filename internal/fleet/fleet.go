// Package fleet runs every account of a run through the pipeline with a
// bounded worker pool and a per-account deadline.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"engage-engine/internal/dedup"
	"engage-engine/internal/domain"
	"engage-engine/internal/pipeline"
)

const (
	DefaultWorkers        = 2
	DefaultAccountTimeout = 120 * time.Second
)

var ErrNoAccounts = errors.New("no accounts to process")

type Directory interface {
	NotifySettings(ctx context.Context) (map[string]*domain.NotifySettings, error)
	Accounts(ctx context.Context, instant bool, settings map[string]*domain.NotifySettings) ([]domain.AccountConfig, error)
	Mappings(ctx context.Context) (jobs, facilities domain.MappingTable, err error)
}

// AccountProcessor is pipeline.Processor as seen by the orchestrator.
type AccountProcessor interface {
	Process(ctx context.Context, acct domain.AccountConfig) (pipeline.Summary, error)
}

// RunDeps is what a run hands the processor factory: the freshly seeded
// cache and the mappings loaded for this run.
type RunDeps struct {
	RunID      string
	Cache      *dedup.Cache
	Jobs       domain.MappingTable
	Facilities domain.MappingTable
	Log        zerolog.Logger
}

type Config struct {
	Workers        int
	AccountTimeout time.Duration
	Instant        bool
}

type Orchestrator struct {
	Cfg       Config
	Directory Directory
	Records   dedup.Loader
	Build     func(RunDeps) AccountProcessor
	Log       zerolog.Logger

	// OnAccountFailure is called with "timeout", "error" or "panic".
	OnAccountFailure func(reason string)
}

type RunSummary struct {
	RunID     string
	Accounts  int
	Processed int
	Failed    int
	TimedOut  int
	Messages  pipeline.Summary
	Duration  time.Duration
}

type accountResult struct {
	sum      pipeline.Summary
	err      error
	timedOut bool
	panicked bool
}

// Run performs one run. Errors before fan-out abort it; once accounts are
// being processed the run always completes and failures only reduce the total.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	start := time.Now()
	rs := RunSummary{RunID: uuid.NewString()}
	log := o.Log.With().Str("run_id", rs.RunID).Logger()

	cache := dedup.New(log)
	if err := cache.Initialize(ctx, o.Records); err != nil {
		return rs, err
	}

	var settings map[string]*domain.NotifySettings
	if !o.Cfg.Instant {
		s, err := o.Directory.NotifySettings(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("continuing without notification settings")
		}
		settings = s
	}

	accounts, err := o.Directory.Accounts(ctx, o.Cfg.Instant, settings)
	if err != nil {
		return rs, err
	}
	if len(accounts) == 0 {
		return rs, ErrNoAccounts
	}
	rs.Accounts = len(accounts)

	jobs, facilities, err := o.Directory.Mappings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("continuing with partial keyword mappings")
	}

	proc := o.Build(RunDeps{RunID: rs.RunID, Cache: cache, Jobs: jobs, Facilities: facilities, Log: log})

	workers := o.Cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log.Info().Int("accounts", len(accounts)).Int("workers", workers).Bool("instant", o.Cfg.Instant).Msg("run started")

	results := make([]accountResult, len(accounts))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, acct := range accounts {
		g.Go(func() error {
			results[i] = o.runAccount(ctx, log, proc, acct)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		alog := log.With().Str("client", accounts[i].ClientName).Str("account", accounts[i].Email).Logger()
		switch {
		case r.timedOut:
			rs.TimedOut++
			o.failure("timeout")
			alog.Warn().Dur("timeout", o.timeout()).Msg("account timed out, result discarded")
		case r.panicked:
			rs.Failed++
			o.failure("panic")
		case r.err != nil:
			rs.Failed++
			o.failure("error")
			alog.Error().Err(r.err).Msg("account failed")
		default:
			rs.Processed += r.sum.Processed
			rs.Messages.Merge(r.sum)
		}
	}

	rs.Duration = time.Since(start)
	log.Info().
		Int("accounts", rs.Accounts).
		Int("processed", rs.Processed).
		Int("failed", rs.Failed).
		Int("timed_out", rs.TimedOut).
		Dur("took", rs.Duration).
		Msg("run finished")
	return rs, nil
}

// runAccount bounds one account by the account timeout. On timeout the
// processing goroutine is abandoned with its context canceled and whatever it
// reports later is ignored.
func (o *Orchestrator) runAccount(parent context.Context, log zerolog.Logger, proc AccountProcessor, acct domain.AccountConfig) accountResult {
	ctx, cancel := context.WithTimeout(parent, o.timeout())
	defer cancel()

	done := make(chan accountResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error().
					Str("client", acct.ClientName).
					Interface("panic", p).
					Str("stack", string(debug.Stack())).
					Msg("account panicked")
				done <- accountResult{err: fmt.Errorf("panic: %v", p), panicked: true}
			}
		}()
		sum, err := proc.Process(ctx, acct)
		done <- accountResult{sum: sum, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return accountResult{timedOut: true}
		}
		return r
	case <-ctx.Done():
		return accountResult{timedOut: true}
	}
}

func (o *Orchestrator) timeout() time.Duration {
	if o.Cfg.AccountTimeout > 0 {
		return o.Cfg.AccountTimeout
	}
	return DefaultAccountTimeout
}

func (o *Orchestrator) failure(reason string) {
	if o.OnAccountFailure != nil {
		o.OnAccountFailure(reason)
	}
}
