package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *LedgerStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewLedgerStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLedgerStore_GetEmpty(t *testing.T) {
	s := newTestStore(t)
	count, err := s.Get(context.Background(), "2026-08")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 for unseen period", count)
	}
}

func TestLedgerStore_IncrementSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := s.IncrementAndGet(ctx, "2026-08")
		if err != nil {
			t.Fatalf("IncrementAndGet: %v", err)
		}
		if got != want {
			t.Errorf("IncrementAndGet = %d, want %d", got, want)
		}
	}

	count, err := s.Get(ctx, "2026-08")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if count != 5 {
		t.Errorf("Get = %d, want 5", count)
	}
}

func TestLedgerStore_ConcurrentIncrements(t *testing.T) {
	const n = 50
	s := newTestStore(t)
	ctx := context.Background()

	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := s.IncrementAndGet(ctx, "2026-08")
			if err != nil {
				t.Errorf("IncrementAndGet: %v", err)
				return
			}
			results <- count
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for count := range results {
		if seen[count] {
			t.Errorf("duplicate count %d returned", count)
		}
		seen[count] = true
	}
	for want := int64(1); want <= n; want++ {
		if !seen[want] {
			t.Errorf("count %d missing from returned sequence", want)
		}
	}
}

func TestLedgerStore_PeriodIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.IncrementAndGet(ctx, "2026-08"); err != nil {
			t.Fatalf("IncrementAndGet: %v", err)
		}
	}
	if _, err := s.IncrementAndGet(ctx, "2026-09"); err != nil {
		t.Fatalf("IncrementAndGet: %v", err)
	}

	aug, _ := s.Get(ctx, "2026-08")
	sep, _ := s.Get(ctx, "2026-09")
	if aug != 3 || sep != 1 {
		t.Errorf("counts = (%d, %d), want (3, 1)", aug, sep)
	}
}

// Counts persist across a close-and-reopen of the same database file.
func TestLedgerStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewLedgerStore(db)
	for i := 0; i < 4; i++ {
		if _, err := s.IncrementAndGet(ctx, "2026-08"); err != nil {
			t.Fatalf("IncrementAndGet: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := db2.Migrate(); err != nil {
		t.Fatalf("migrate after reopen: %v", err)
	}
	s2 := NewLedgerStore(db2)
	defer s2.Close()

	count, err := s2.Get(ctx, "2026-08")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if count != 4 {
		t.Errorf("count after reopen = %d, want 4", count)
	}

	next, err := s2.IncrementAndGet(ctx, "2026-08")
	if err != nil {
		t.Fatalf("IncrementAndGet after reopen: %v", err)
	}
	if next != 5 {
		t.Errorf("IncrementAndGet after reopen = %d, want 5", next)
	}
}

func TestLedgerStore_Reset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		s.IncrementAndGet(ctx, "2026-08")
	}
	if err := s.Reset(ctx, "2026-08"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	count, _ := s.Get(ctx, "2026-08")
	if count != 0 {
		t.Errorf("count after reset = %d, want 0", count)
	}

	got, err := s.IncrementAndGet(ctx, "2026-08")
	if err != nil {
		t.Fatalf("IncrementAndGet after reset: %v", err)
	}
	if got != 1 {
		t.Errorf("count after reset+increment = %d, want 1", got)
	}
}

func TestLedgerStore_History(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.IncrementAndGet(ctx, "2026-06")
	s.IncrementAndGet(ctx, "2026-08")
	s.IncrementAndGet(ctx, "2026-08")
	s.IncrementAndGet(ctx, "2026-07")

	records, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if records[0].Period != "2026-08" || records[0].Count != 2 {
		t.Errorf("records[0] = %+v, want 2026-08 count=2", records[0])
	}
	if records[2].Period != "2026-06" {
		t.Errorf("records[2].Period = %s, want 2026-06", records[2].Period)
	}
}
