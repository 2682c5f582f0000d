// Package memory provides in-memory implementations of storage ports,
// used in tests and in ephemeral (non-durable) deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/djmoore711/brandfetch-mcp/domain/quota"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

// LedgerStore is an in-memory implementation of ports.LedgerStore.
// A single mutex serializes increments, which keeps the returned counts
// gap-free under concurrency. State does not survive a restart; the
// sqlite store is the durable implementation.
type LedgerStore struct {
	mu      sync.Mutex
	byPeriod map[quota.Period]*ports.UsageRecord
	now      func() time.Time
}

// NewLedgerStore creates an empty in-memory ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		byPeriod: make(map[quota.Period]*ports.UsageRecord),
		now:      time.Now,
	}
}

// Get returns the count for a period, 0 when no record exists.
func (s *LedgerStore) Get(ctx context.Context, period quota.Period) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byPeriod[period]; ok {
		return rec.Count, nil
	}
	return 0, nil
}

// IncrementAndGet consumes one unit and returns the new count.
func (s *LedgerStore) IncrementAndGet(ctx context.Context, period quota.Period) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byPeriod[period]
	if !ok {
		rec = &ports.UsageRecord{Period: period}
		s.byPeriod[period] = rec
	}
	rec.Count++
	rec.UpdatedAt = s.now().UTC()
	return rec.Count, nil
}

// Reset zeroes a period's count.
func (s *LedgerStore) Reset(ctx context.Context, period quota.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byPeriod[period]; ok {
		rec.Count = 0
		rec.UpdatedAt = s.now().UTC()
	}
	return nil
}

// History returns up to n period records, newest period first.
func (s *LedgerStore) History(ctx context.Context, n int) ([]ports.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]ports.UsageRecord, 0, len(s.byPeriod))
	for _, rec := range s.byPeriod {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Period > records[j].Period
	})
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// Close is a no-op for the in-memory store.
func (s *LedgerStore) Close() error {
	return nil
}

// Ensure interface compliance.
var _ ports.LedgerStore = (*LedgerStore)(nil)
