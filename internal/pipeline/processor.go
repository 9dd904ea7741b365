// Package pipeline turns one account's unprocessed Engage mails into recorded,
// notified and flagged applications.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"engage-engine/internal/classify"
	"engage-engine/internal/dedup"
	"engage-engine/internal/domain"
	"engage-engine/internal/enrich"
	"engage-engine/internal/extract"
	"engage-engine/internal/mailbox"
	"engage-engine/internal/region"
)

const (
	// DefaultSender is the address Engage notifications come from.
	DefaultSender = "system@en-gage.net"

	applicationMarker = "応募"
)

type DuplicateChecker interface {
	IsDuplicate(key dedup.Key) (bool, error)
}

// Recorder is the durable store. store.Writer implements it.
type Recorder interface {
	Append(ctx context.Context, rec domain.ApplicationRecord) (dedup.Outcome, error)
}

type Enricher interface {
	Resolve(ctx context.Context, text, htmlBody string) enrich.Enrichment
}

type Notifier interface {
	Notify(ctx context.Context, rec domain.ApplicationRecord, settings *domain.NotifySettings, instant bool)
}

type HostResolver interface {
	Resolve(ctx context.Context, explicit, email string) (string, error)
}

// Processor handles one account at a time. It holds no per-account state, so
// one value may serve every worker of a run.
type Processor struct {
	Profile  Profile
	Sender   string
	Dialer   mailbox.Dialer
	Resolver HostResolver

	Cache    DuplicateChecker
	Store    Recorder
	Enricher Enricher
	Notifier Notifier

	Jobs       domain.MappingTable
	Facilities domain.MappingTable

	Now func() time.Time
	Log zerolog.Logger

	// Optional observers.
	OnOutcome  func(Outcome)
	OnRecorded func(domain.ApplicationRecord)
}

// Process connects to the account's mailbox and walks its unflagged Engage
// mails in fetch order. Mailbox errors end the account; per-message failures
// only count.
func (p *Processor) Process(ctx context.Context, acct domain.AccountConfig) (Summary, error) {
	var sum Summary
	log := p.Log.With().Str("client", acct.ClientName).Str("account", acct.Email).Logger()
	start := time.Now()

	host, err := p.host(ctx, acct)
	if err != nil {
		return sum, err
	}
	log.Info().Str("host", host).Str("profile", p.Profile.Name).Msg("connecting")

	sess, err := p.Dialer.Dial(ctx, host, acct.Email, acct.LoginPassword())
	if err != nil {
		return sum, fmt.Errorf("connect %s: %w", host, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Debug().Err(err).Msg("mailbox close")
		}
	}()

	msgs, err := sess.Unprocessed(ctx, p.sender())
	if err != nil {
		return sum, fmt.Errorf("search mailbox: %w", err)
	}
	sum.Fetched = len(msgs)
	log.Info().Int("messages", len(msgs)).Msg("unflagged mails fetched")

	for i, m := range msgs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		mlog := log.With().Uint32("uid", m.UID).Int("n", i+1).Int("of", len(msgs)).Logger()

		out := p.handle(ctx, mlog, acct, m)
		sum.add(out)
		if p.OnOutcome != nil {
			p.OnOutcome(out)
		}

		if out.Flagged() {
			if err := sess.Flag(ctx, m.UID); err != nil {
				sum.FlagFailures++
				mlog.Warn().Err(err).Str("outcome", out.String()).Msg("flag failed")
			}
		}
	}

	log.Info().
		Int("processed", sum.Processed).
		Int("duplicate", sum.Duplicate).
		Int("too_old", sum.TooOld).
		Int("not_application", sum.NotApplication).
		Int("no_title", sum.NoTitle).
		Int("write_error", sum.WriteError).
		Dur("took", time.Since(start)).
		Msg("account done")
	return sum, nil
}

// handle decides the outcome of one message. Flagging is left to the caller.
func (p *Processor) handle(ctx context.Context, log zerolog.Logger, acct domain.AccountConfig, m mailbox.Message) Outcome {
	log.Debug().Str("subject", m.Subject).Str("from", m.From).Time("date", m.Date).Msg("message")

	if !strings.Contains(m.Subject, applicationMarker) {
		log.Debug().Msg("not an application mail")
		return NotApplication
	}

	received := receivedJST(m.Date)
	if days := ageDays(p.now(), received); days > p.Profile.FreshnessDays {
		log.Info().Int("days", days).Msg("too old, flagging")
		return TooOld
	}

	title := extract.JobTitle(m.Subject)
	if title == "" {
		log.Info().Str("subject", m.Subject).Msg("no job title in subject")
		return NoTitle
	}

	body := extract.BodyText(m.Text, m.HTML)
	applyID := extract.ApplyID(body)
	if applyID == "" {
		applyID = extract.ApplyID(m.HTML)
	}
	applyURL := extract.ApplyURL(body, m.HTML)

	// Checked before enrichment so a redelivered mail costs no API call.
	key := dedup.Key{ApplyID: applyID, ReceivedAt: received, Title: title}
	dup, err := p.Cache.IsDuplicate(key)
	if err != nil {
		log.Error().Err(err).Msg("duplicate check failed")
		return WriteError
	}
	if dup {
		log.Info().Str("key", key.String()).Msg("already recorded, flagging")
		return Duplicate
	}

	category, keyword := classify.Facility(title, p.Facilities)
	rec := domain.ApplicationRecord{
		ReceivedAt:         received,
		JobTitle:           title,
		ApplyID:            applyID,
		ApplyURL:           applyURL,
		JobTypes:           classify.JobTypes(title, p.Jobs),
		FacilityType:       category,
		FacilityTypeDetail: keyword,
		SourceAccount:      acct.ClientName,
		SenderAddress:      m.From,
	}

	var e enrich.Enrichment
	if p.Enricher != nil {
		e = p.Enricher.Resolve(ctx, body, m.HTML)
	}
	rec.Prefecture = e.Prefecture
	rec.CompanyName = e.CompanyName
	rec.Region = region.Of(rec.Prefecture)
	rec.LocationText = extract.Location(body)
	if rec.LocationText == "" {
		rec.LocationText = extract.Location(m.HTML)
	}

	log.Info().
		Str("title", title).
		Str("apply_id", applyID).
		Strs("job_types", rec.JobTypes).
		Str("facility", category).
		Str("prefecture", rec.Prefecture).
		Str("prefecture_source", string(e.PrefectureSource)).
		Str("company", rec.CompanyName).
		Str("location", rec.LocationText).
		Msg("extracted")

	res, err := p.Store.Append(ctx, rec)
	switch res {
	case dedup.Success:
		if p.Notifier != nil {
			p.Notifier.Notify(ctx, rec, acct.Notify, p.Profile.Instant)
		}
		if p.OnRecorded != nil {
			p.OnRecorded(rec)
		}
		return Processed
	case dedup.Duplicate:
		log.Info().Str("key", key.String()).Msg("recorded meanwhile by another worker, flagging")
		return Duplicate
	default:
		log.Error().Err(err).Msg("write failed, leaving unflagged")
		return WriteError
	}
}

func (p *Processor) host(ctx context.Context, acct domain.AccountConfig) (string, error) {
	switch p.Profile.HostStrategy {
	case HostDomain:
		if p.Resolver == nil {
			return "", errors.New("no host resolver configured")
		}
		h, err := p.Resolver.Resolve(ctx, acct.IMAPHost, acct.Email)
		if err != nil {
			return "", fmt.Errorf("resolve imap host: %w", err)
		}
		return h, nil
	default:
		if p.Profile.StaticHost == "" {
			return "", errors.New("static imap host is empty")
		}
		return p.Profile.StaticHost, nil
	}
}

func (p *Processor) sender() string {
	if p.Sender != "" {
		return p.Sender
	}
	return DefaultSender
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// receivedJST normalizes a header date. A date carrying no zone is UTC.
func receivedJST(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return domain.ToJST(t)
}

// ageDays is the number of whole days between received and now, rounded down.
func ageDays(now, received time.Time) int {
	d := now.Sub(received)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
