package dedup

import (
	"strings"
	"time"

	"engage-engine/internal/domain"
)

// Key identifies an application. ApplyID wins when present; otherwise the
// received time (to the second, JST) and the job title form the identity.
type Key struct {
	ApplyID    string
	ReceivedAt time.Time
	Title      string
}

// KeyOf derives the key of a record.
func KeyOf(rec domain.ApplicationRecord) Key {
	return Key{ApplyID: rec.ApplyID, ReceivedAt: rec.ReceivedAt, Title: rec.JobTitle}
}

func (k Key) String() string {
	if k.ApplyID != "" {
		return "id:" + k.ApplyID
	}
	return "pair:" + k.pair()
}

func (k Key) pair() string {
	if k.ReceivedAt.IsZero() || k.Title == "" {
		return ""
	}
	return k.ReceivedAt.In(domain.JST).Format(domain.TimeLayout) + "|" + k.Title
}

var seedLayouts = []string{
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-1-2 15:04:05",
}

// parseSheetTime reads 応募日時 cells, which are JST wall-clock values.
func parseSheetTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range seedLayouts {
		if t, err := time.ParseInLocation(layout, s, domain.JST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
