// Package events fans run and application events out to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeRunStarted          = "run_started"
	TypeRunFinished         = "run_finished"
	TypeApplicationRecorded = "application_recorded"
)

type Event struct {
	Type  string          `json:"type"`
	RunID string          `json:"run_id,omitempty"`
	At    time.Time       `json:"at"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds the JSON line for one event. Unmarshalable data is dropped.
func Encode(typ, runID string, data any) []byte {
	e := Event{Type: typ, RunID: runID, At: time.Now().UTC()}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	b, _ := json.Marshal(e)
	return b
}

// Application is the public shape of a recorded application. Secrets and the
// sender address stay out of it.
type Application struct {
	Client     string    `json:"client"`
	Title      string    `json:"title"`
	ApplyID    string    `json:"apply_id,omitempty"`
	Prefecture string    `json:"prefecture,omitempty"`
	Company    string    `json:"company,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
