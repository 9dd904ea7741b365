package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engage-engine/internal/dedup"
	"engage-engine/internal/domain"
)

type memTable struct {
	mu       sync.Mutex
	header   []string
	rows     [][]string
	failures []error // returned in order before succeeding
	calls    int
}

func (m *memTable) Snapshot(context.Context) ([]string, [][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.header, m.rows, nil
}

func (m *memTable) AppendRow(_ context.Context, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return err
	}
	m.rows = append(m.rows, row)
	return nil
}

func sampleRecord() domain.ApplicationRecord {
	return domain.ApplicationRecord{
		ReceivedAt:         time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC),
		JobTitle:           "画像データのチェック事務スタッフ",
		ApplyID:            "MTg2NTg1NzQ=",
		ApplyURL:           "https://en-gage.net/company/manage/message/?apply_id=MTg2NTg1NzQ=",
		JobTypes:           []string{"事務職", "軽作業"},
		FacilityType:       "オフィス",
		FacilityTypeDetail: "事務",
		Prefecture:         "東京都",
		Region:             "関東",
		LocationText:       "東京都渋谷区",
		CompanyName:        "株式会社サンプル",
		SourceAccount:      "サンプル商事",
		SenderAddress:      "system@en-gage.net",
	}
}

func newWriter(t *testing.T, table *memTable) *Writer {
	t.Helper()
	cache := dedup.New(zerolog.Nop())
	require.NoError(t, cache.Initialize(context.Background(), table))
	w := NewWriter(table, cache, zerolog.Nop())
	w.Backoff = time.Millisecond
	return w
}

func TestRowFor(t *testing.T) {
	header := append([]string{"備考"}, domain.DefaultHeader...)
	row := RowFor(header, sampleRecord())

	got := map[string]string{}
	for i, h := range header {
		got[h] = row[i]
	}

	assert.Equal(t, "", got["備考"])
	assert.Equal(t, "2025/02/03 13:05:06", got["応募日時"])
	assert.Equal(t, "system@en-gage.net", got["メールアドレス"])
	assert.Equal(t, "", got["名前"])
	assert.Equal(t, "事務職, 軽作業", got["職種"])
	assert.Equal(t, "オフィス", got["施設形態"])
	assert.Equal(t, "事務", got["施設形態詳細"])
	assert.Equal(t, "東京都", got["都道府県"])
	assert.Equal(t, "東京都渋谷区", got["勤務地"])
	assert.Equal(t, "関東", got["エリア"])
	assert.Equal(t, "画像データのチェック事務スタッフ", got["タイトル"])
	assert.Equal(t, "サンプル商事", got["クライアント"])
	assert.Equal(t, "ENG", got["媒体"])
	assert.Equal(t, "株式会社サンプル", got["応募先企業名"])
	assert.Equal(t, "MTg2NTg1NzQ=", got["応募ID"])
	assert.Equal(t, "送信待ち", got["メール送信状況"])
}

func TestWriterAppendThenDuplicate(t *testing.T) {
	table := &memTable{header: domain.DefaultHeader}
	w := newWriter(t, table)

	out, err := w.Append(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, dedup.Success, out)

	out, err = w.Append(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, dedup.Duplicate, out)

	assert.Len(t, table.rows, 1)
	assert.Equal(t, 1, table.calls)
}

func TestWriterRetriesRateLimit(t *testing.T) {
	table := &memTable{
		header:   domain.DefaultHeader,
		failures: []error{fmt.Errorf("%w: quota", ErrRateLimited), fmt.Errorf("%w: quota", ErrRateLimited)},
	}
	w := newWriter(t, table)

	out, err := w.Append(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, dedup.Success, out)
	assert.Equal(t, 3, table.calls)
}

func TestWriterGivesUpAfterThreeRateLimits(t *testing.T) {
	rl := fmt.Errorf("%w: quota", ErrRateLimited)
	table := &memTable{header: domain.DefaultHeader, failures: []error{rl, rl, rl, rl}}
	w := newWriter(t, table)

	out, err := w.Append(context.Background(), sampleRecord())
	assert.Equal(t, dedup.Error, out)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, table.calls)

	// Not committed, so a later run may write it.
	out, err = w.Append(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, dedup.Success, out)
}

func TestWriterNoRetryOnOtherErrors(t *testing.T) {
	boom := errors.New("permission denied")
	table := &memTable{header: domain.DefaultHeader, failures: []error{boom}}
	w := newWriter(t, table)

	out, err := w.Append(context.Background(), sampleRecord())
	assert.Equal(t, dedup.Error, out)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, table.calls)
}

func TestWriterEmptyHeaderUsesDefault(t *testing.T) {
	table := &memTable{}
	w := newWriter(t, table)

	_, err := w.Append(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.Len(t, table.rows, 1)
	assert.Len(t, table.rows[0], len(domain.DefaultHeader))
}

func TestSQLiteTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.db")
	table, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })

	header, rows, err := table.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultHeader, header)
	assert.Empty(t, rows)

	cache := dedup.New(zerolog.Nop())
	require.NoError(t, cache.Initialize(context.Background(), table))
	w := NewWriter(table, cache, zerolog.Nop())

	out, err := w.Append(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, dedup.Success, out)

	// Reopen and reseed: the stored row must be recognized.
	require.NoError(t, table.Close())
	table, err = OpenSQLite(path)
	require.NoError(t, err)

	fresh := dedup.New(zerolog.Nop())
	require.NoError(t, fresh.Initialize(context.Background(), table))
	dup, err := fresh.IsDuplicate(dedup.KeyOf(sampleRecord()))
	require.NoError(t, err)
	assert.True(t, dup)
}
