package pipeline

import (
	"context"
	"errors"
	"sync"

	"engage-engine/internal/domain"
	"engage-engine/internal/mailbox"
)

// fakeMailbox serves the same messages on every dial, like an inbox whose
// flags never reach the search (redelivery).
type fakeMailbox struct {
	mu      sync.Mutex
	msgs    []mailbox.Message
	flagged []uint32
	flagErr error
	dialErr error
	hosts   []string
	closed  int
}

func (f *fakeMailbox) Dial(_ context.Context, host, _, _ string) (mailbox.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts = append(f.hosts, host)
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return &fakeSession{f: f}, nil
}

type fakeSession struct{ f *fakeMailbox }

func (s *fakeSession) Unprocessed(context.Context, string) ([]mailbox.Message, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []mailbox.Message
	for _, m := range s.f.msgs {
		out = append(out, m)
	}
	return out, nil
}

func (s *fakeSession) Flag(_ context.Context, uid uint32) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.flagErr != nil {
		return s.f.flagErr
	}
	s.f.flagged = append(s.f.flagged, uid)
	return nil
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	s.f.closed++
	s.f.mu.Unlock()
	return nil
}

type memTable struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	err    error
}

func (m *memTable) Snapshot(context.Context) ([]string, [][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.header, m.rows, nil
}

func (m *memTable) AppendRow(_ context.Context, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memTable) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type sentNotification struct {
	rec      domain.ApplicationRecord
	settings *domain.NotifySettings
	instant  bool
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, rec domain.ApplicationRecord, s *domain.NotifySettings, instant bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{rec, s, instant})
}

type fakeResolver struct {
	host string
	err  error
}

func (r fakeResolver) Resolve(_ context.Context, explicit, _ string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return r.host, r.err
}

var errBoom = errors.New("boom")
