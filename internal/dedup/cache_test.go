package dedup

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

	"engage-engine/internal/domain"
)

type fakeLoader struct {
	header []string
	rows   [][]string
	err    error
	calls  atomic.Int32
	delay  time.Duration
}

func (f *fakeLoader) Snapshot(ctx context.Context) ([]string, [][]string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.header, f.rows, nil
}

func seeded() *fakeLoader {
	return &fakeLoader{
		header: []string{"応募日時", "タイトル", "応募ID"},
		rows: [][]string{
			{"2025/01/05 09:03:07", "介護スタッフ", ""},
			{"2025/1/6 9:00:00", "事務スタッフ", "QUJD"},
			{"", "", "REVG"},
			{"not a date", "看護師", ""},
			{"2025/01/07 10:00:00"},
		},
	}
}

func jst(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, domain.JST)
}

func TestInitializeSeedsKeys(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Initialize(context.Background(), seeded()))
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, []string{"応募日時", "タイトル", "応募ID"}, c.Header())

	tests := []struct {
		name string
		key  Key
		want bool
	}{
		{"pair from padded date", Key{ReceivedAt: jst(2025, 1, 5, 9, 3, 7), Title: "介護スタッフ"}, true},
		{"pair from unpadded date", Key{ReceivedAt: jst(2025, 1, 6, 9, 0, 0), Title: "事務スタッフ"}, true},
		{"pair compares in JST", Key{ReceivedAt: jst(2025, 1, 5, 9, 3, 7).UTC(), Title: "介護スタッフ"}, true},
		{"apply id only row", Key{ApplyID: "REVG"}, true},
		{"apply id wins over unknown pair", Key{ApplyID: "QUJD", ReceivedAt: jst(2030, 1, 1, 0, 0, 0), Title: "x"}, true},
		{"unknown id falls back to pair", Key{ApplyID: "NEW", ReceivedAt: jst(2025, 1, 5, 9, 3, 7), Title: "介護スタッフ"}, true},
		{"different second", Key{ReceivedAt: jst(2025, 1, 5, 9, 3, 8), Title: "介護スタッフ"}, false},
		{"unparsable seed date ignored", Key{Title: "看護師"}, false},
		{"new", Key{ApplyID: "Tk9QRQ=="}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup, err := c.IsDuplicate(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dup)
		})
	}
}

func TestInitializeOnce(t *testing.T) {
	c := New(zerolog.Nop())
	src := seeded()
	src.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Initialize(context.Background(), src))
			assert.Equal(t, Ready, c.State())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	ids, pairs := c.Len()
	assert.Equal(t, 2, ids)
	assert.Equal(t, 2, pairs)
}

func TestInitializeFailureLeavesEmpty(t *testing.T) {
	c := New(zerolog.Nop())
	boom := errors.New("sheet unreachable")

	err := c.Initialize(context.Background(), &fakeLoader{err: boom})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Empty, c.State())

	_, err = c.IsDuplicate(Key{ApplyID: "x"})
	assert.ErrorIs(t, err, ErrNotReady)

	out, err := c.Guard(context.Background(), Key{ApplyID: "x"}, func(context.Context, []string) error {
		t.Fatal("write must not run before the cache is ready")
		return nil
	})
	assert.Equal(t, Error, out)
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, c.Initialize(context.Background(), seeded()))
	assert.Equal(t, Ready, c.State())
}

func TestGuardCommitsOnlyAfterWrite(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Initialize(context.Background(), &fakeLoader{header: domain.DefaultHeader}))

	key := Key{ApplyID: "MTg2NTg1NzQ="}
	failing := errors.New("append failed")

	out, err := c.Guard(context.Background(), key, func(_ context.Context, header []string) error {
		assert.Equal(t, domain.DefaultHeader, header)
		return failing
	})
	assert.Equal(t, Error, out)
	assert.ErrorIs(t, err, failing)

	dup, err := c.IsDuplicate(key)
	require.NoError(t, err)
	assert.False(t, dup, "failed write must not be committed")

	out, err = c.Guard(context.Background(), key, func(context.Context, []string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Success, out)

	writes := 0
	out, err = c.Guard(context.Background(), key, func(context.Context, []string) error {
		writes++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Duplicate, out)
	assert.Zero(t, writes)
}

func TestGuardConcurrentSameKey(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Initialize(context.Background(), &fakeLoader{header: domain.DefaultHeader}))

	key := Key{ReceivedAt: jst(2025, 3, 1, 12, 0, 0), Title: "保育士"}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Outcome
		writes  atomic.Int32
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.Guard(context.Background(), key, func(context.Context, []string) error {
				writes.Add(1)
				time.Sleep(10 * time.Millisecond)
				return nil
			})
			assert.NoError(t, err)
			mu.Lock()
			results = append(results, out)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []Outcome{Success, Duplicate}, results)
	assert.Equal(t, int32(1), writes.Load())
}

func TestGuardCanceledContext(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Initialize(context.Background(), &fakeLoader{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := c.Guard(ctx, Key{ApplyID: "x"}, func(context.Context, []string) error { return nil })
	assert.Equal(t, Error, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "id:QUJD", Key{ApplyID: "QUJD"}.String())
	assert.Equal(t, "pair:2025/01/05 09:03:07|介護", Key{ReceivedAt: jst(2025, 1, 5, 9, 3, 7), Title: "介護"}.String())
	assert.Equal(t, "pair:", Key{}.String())
}
