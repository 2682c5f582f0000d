package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/djmoore711/brandfetch-mcp/domain/quota"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

// LedgerStore implements ports.LedgerStore on SQLite, so metered-endpoint
// consumption survives server restarts.
//
// IncrementAndGet runs a single upsert with RETURNING, guarded by an
// in-process mutex. The statement alone is atomic; the mutex additionally
// serializes increments so concurrent callers observe a strictly
// increasing, gap-free sequence. The ledger is process-local and
// single-instance, so an in-process lock is sufficient.
type LedgerStore struct {
	db *DB
	mu sync.Mutex
}

// NewLedgerStore creates a SQLite-backed ledger store.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Get returns the count for a period, 0 when no record exists.
func (s *LedgerStore) Get(ctx context.Context, period quota.Period) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM brand_api_usage WHERE period = ?`, string(period),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read period %s: %v", ports.ErrLedgerUnavailable, period, err)
	}
	return count, nil
}

// IncrementAndGet consumes one unit and returns the new count. The write
// is committed durably before returning.
func (s *LedgerStore) IncrementAndGet(ctx context.Context, period quota.Period) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO brand_api_usage (period, count, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(period) DO UPDATE SET
			count = count + 1,
			updated_at = excluded.updated_at
		RETURNING count
	`, string(period), time.Now().UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: increment period %s: %v", ports.ErrLedgerUnavailable, period, err)
	}
	return count, nil
}

// Reset zeroes a period's count. Administrative use only; the row is
// kept so the reset remains visible in history.
func (s *LedgerStore) Reset(ctx context.Context, period quota.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE brand_api_usage SET count = 0, updated_at = ? WHERE period = ?
	`, time.Now().UTC(), string(period))
	if err != nil {
		return fmt.Errorf("%w: reset period %s: %v", ports.ErrLedgerUnavailable, period, err)
	}
	return nil
}

// History returns up to n period records, newest period first.
func (s *LedgerStore) History(ctx context.Context, n int) ([]ports.UsageRecord, error) {
	if n <= 0 {
		n = 12
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT period, count, updated_at
		FROM brand_api_usage
		ORDER BY period DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("%w: read history: %v", ports.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var records []ports.UsageRecord
	for rows.Next() {
		var rec ports.UsageRecord
		var period string
		if err := rows.Scan(&period, &rec.Count, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan history: %v", ports.ErrLedgerUnavailable, err)
		}
		rec.Period = quota.Period(period)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read history: %v", ports.ErrLedgerUnavailable, err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *LedgerStore) Close() error {
	return s.db.Close()
}

// Ensure interface compliance.
var _ ports.LedgerStore = (*LedgerStore)(nil)
