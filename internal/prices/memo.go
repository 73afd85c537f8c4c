package prices

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/signalbt/internal/contracts"
)

type memoKey struct {
	instrument string
	period     contracts.Period
}

type memoEntry struct {
	series *contracts.PriceSeries
	err    error
}

// Memo caches Source results in memory for the lifetime of one run.
// Safe for concurrent use; a key is loaded at most once per run, except that
// cancellation errors are dropped so a later call loads the key again.
// Build a new Memo for every run so files that land between runs are seen.
type Memo struct {
	source Source

	mu      sync.Mutex
	entries map[memoKey]*memoOnce
}

type memoOnce struct {
	once  sync.Once
	entry memoEntry
}

// NewMemo wraps a source with an in-memory cache
func NewMemo(source Source) *Memo {
	return &Memo{source: source, entries: make(map[memoKey]*memoOnce)}
}

func (m *Memo) HasPeriod(ctx context.Context, period contracts.Period) bool {
	return m.source.HasPeriod(ctx, period)
}

func (m *Memo) Series(ctx context.Context, instrument string, period contracts.Period) (*contracts.PriceSeries, error) {
	key := memoKey{instrument: instrument, period: period}

	m.mu.Lock()
	slot, ok := m.entries[key]
	if !ok {
		slot = &memoOnce{}
		m.entries[key] = slot
	}
	m.mu.Unlock()

	slot.once.Do(func() {
		s, err := m.source.Series(ctx, instrument, period)
		slot.entry = memoEntry{series: s, err: err}
	})

	if err := slot.entry.err; errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		m.mu.Lock()
		if m.entries[key] == slot {
			delete(m.entries, key)
		}
		m.mu.Unlock()
	}
	return slot.entry.series, slot.entry.err
}

// Len returns the number of cached keys
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
