package engine

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog"

	"engage-engine/internal/config"
	"engage-engine/internal/directory"
	"engage-engine/internal/domain"
	"engage-engine/internal/enrich"
	"engage-engine/internal/events"
	"engage-engine/internal/fleet"
	"engage-engine/internal/gsheets"
	"engage-engine/internal/mailbox"
	"engage-engine/internal/metrics"
	"engage-engine/internal/notify"
	"engage-engine/internal/pipeline"
	"engage-engine/internal/ratelimit"
	"engage-engine/internal/store"
)

// Options pick the deployment variant of a run.
type Options struct {
	Instant    bool
	NotifyOnly bool
}

// ProfileFor turns config and options into the processing profile.
func ProfileFor(cfg config.Config, o Options) pipeline.Profile {
	host := net.JoinHostPort(cfg.Mail.Host, strconv.Itoa(cfg.Mail.Port))
	var p pipeline.Profile
	switch {
	case o.NotifyOnly:
		p = pipeline.NotifyOnlyProfile(o.Instant)
		p.FreshnessDays = cfg.Run.NotifyOnlyDays
		return p
	case o.Instant:
		p = pipeline.InstantProfile(host)
	default:
		p = pipeline.NormalProfile(host)
	}
	p.FreshnessDays = cfg.Run.FreshnessDays
	return p
}

// New connects the configured stores and services and returns an engine
// ready to run. Close releases them.
func New(ctx context.Context, cfg config.Config, env config.Env, o Options, hub *events.Hub, log zerolog.Logger) (*Engine, error) {
	sheetsLimiter := ratelimit.NewHostLimiter(cfg.Sheets.RequestsPerSecond, 1)
	enrichLimiter := ratelimit.NewHostLimiter(cfg.Enrich.RequestsPerSecond, 1)

	svc, source, err := gsheets.NewService(ctx, gsheets.Credentials{File: env.GoogleCredentialsFile, JSON: env.GoogleCredentials})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("source", source).Msg("google credentials loaded")

	e := &Engine{Hub: hub, Log: log}

	var table store.Table
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		t, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		e.closers = append(e.closers, t.Close)
		table = t
	default:
		table = store.NewSheetsTable(svc, sheetsLimiter, cfg.Sheets.OutputSpreadsheetID, cfg.Sheets.Output)
	}

	dir := &directory.Directory{
		Src: gsheets.Reader{Svc: svc, Limiter: sheetsLimiter},
		Sheets: directory.Sheets{
			ConfigSpreadsheetID:  cfg.Sheets.ConfigSpreadsheetID,
			MappingSpreadsheetID: cfg.Sheets.MappingSpreadsheetID,
			Users:                cfg.Sheets.Users,
			NotifySettings:       cfg.Sheets.NotifySettings,
			JobMapping:           cfg.Sheets.JobMapping,
			FacilityMapping:      cfg.Sheets.FacilityMapping,
		},
		Log: log.With().Str("component", "directory").Logger(),
	}

	client, err := enrich.New(enrich.Config{APIKey: env.OpenAIKey, BaseURL: env.OpenAIBaseURL, Model: cfg.Enrich.Model}, enrichLimiter, log)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	if !client.Enabled() {
		log.Warn().Msg("OPENAI_API_KEY not set, company names will stay empty")
	}
	chain := enrich.Chain{Remote: client, Log: log}

	notifier := &notify.Notifier{
		Chatwork: notify.NewChatwork(notify.ChatworkBaseURL, log),
		Line:     notify.NewLINE(notify.LineBaseURL, log),
		Defaults: notify.Defaults{
			ChatworkToken:      env.ChatworkToken,
			ChatworkRoomID:     env.ChatworkRoomID,
			InstantLineToken:   env.InstantLineToken,
			InstantLineGroupID: env.InstantLineGroupID,
		},
		Log:       log.With().Str("component", "notify").Logger(),
		OnFailure: metrics.NotificationFailure,
	}

	profile := ProfileFor(cfg, o)
	e.Profile = profile.Name

	e.Runner = &fleet.Orchestrator{
		Cfg: fleet.Config{
			Workers:        cfg.Run.Workers,
			AccountTimeout: cfg.Run.AccountTimeout,
			Instant:        profile.Instant,
		},
		Directory: dir,
		Records:   table,
		Log:       log.With().Str("component", "fleet").Logger(),
		Build: func(d fleet.RunDeps) fleet.AccountProcessor {
			return &pipeline.Processor{
				Profile:    profile,
				Sender:     cfg.Mail.Sender,
				Dialer:     mailbox.IMAP{Timeout: cfg.Mail.Timeout, Log: d.Log},
				Resolver:   mailbox.Resolver{Log: d.Log},
				Cache:      d.Cache,
				Store:      store.NewWriter(table, d.Cache, d.Log),
				Enricher:   chain,
				Notifier:   notifier,
				Jobs:       d.Jobs,
				Facilities: d.Facilities,
				Log:        d.Log.With().Str("component", "pipeline").Logger(),
				OnOutcome:  func(o pipeline.Outcome) { metrics.Outcome(o.String()) },
				OnRecorded: func(rec domain.ApplicationRecord) {
					hub.Publish(events.TypeApplicationRecorded, d.RunID, ApplicationEvent(rec))
				},
			}
		},
		OnAccountFailure: metrics.AccountFailure,
	}
	return e, nil
}

func ApplicationEvent(rec domain.ApplicationRecord) events.Application {
	return events.Application{
		Client:     rec.SourceAccount,
		Title:      rec.JobTitle,
		ApplyID:    rec.ApplyID,
		Prefecture: rec.Prefecture,
		Company:    rec.CompanyName,
		ReceivedAt: rec.ReceivedAt,
	}
}
