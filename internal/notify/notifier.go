// Package notify fans a recorded application out to Chatwork and, in instant
// mode, to a LINE group. Delivery is best-effort.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"engage-engine/internal/domain"
)

// Sender is one channel. target is a room ID or a LINE recipient.
type Sender interface {
	Name() string
	Send(ctx context.Context, token, target, text string) error
}

// Defaults are the environment-level targets.
type Defaults struct {
	ChatworkToken  string
	ChatworkRoomID string

	InstantLineToken   string
	InstantLineGroupID string
}

type Notifier struct {
	Chatwork Sender
	Line     Sender
	Defaults Defaults
	Log      zerolog.Logger

	// OnFailure, when set, is called once per failed channel.
	OnFailure func(channel string)
}

// Notify never returns an error; failures are logged per channel.
func (n *Notifier) Notify(ctx context.Context, rec domain.ApplicationRecord, settings *domain.NotifySettings, instant bool) {
	log := n.Log.With().Str("client", rec.SourceAccount).Str("title", rec.JobTitle).Logger()

	if !instant && settings == nil {
		log.Info().Msg("no notification settings, skipping notification")
		return
	}

	if token, room, ok := n.chatworkTarget(settings); ok {
		n.send(ctx, log, n.Chatwork, token, room, ChatworkMessage(rec, instant))
	} else {
		log.Debug().Msg("no chatwork target")
	}

	if instant {
		n.send(ctx, log, n.Line, n.Defaults.InstantLineToken, n.Defaults.InstantLineGroupID, LineMessage(rec))
	}
}

// chatworkTarget prefers the account's own room and falls back to the default.
func (n *Notifier) chatworkTarget(s *domain.NotifySettings) (token, room string, ok bool) {
	if s != nil && s.ChatworkEnabled && s.ChatworkToken != "" {
		if room := s.ChatworkRoom(); room != "" {
			return s.ChatworkToken, room, true
		}
	}
	if n.Defaults.ChatworkToken != "" && n.Defaults.ChatworkRoomID != "" {
		return n.Defaults.ChatworkToken, n.Defaults.ChatworkRoomID, true
	}
	return "", "", false
}

func (n *Notifier) send(ctx context.Context, log zerolog.Logger, s Sender, token, target, text string) {
	if s == nil {
		return
	}
	if err := s.Send(ctx, token, target, text); err != nil {
		log.Warn().Err(err).Str("channel", s.Name()).Msg("notification failed")
		if n.OnFailure != nil {
			n.OnFailure(s.Name())
		}
		return
	}
	log.Info().Str("channel", s.Name()).Msg("notification sent")
}
