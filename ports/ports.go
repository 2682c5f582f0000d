// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/djmoore711/brandfetch-mcp/domain/brand"
	"github.com/djmoore711/brandfetch-mcp/domain/quota"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// -----------------------------------------------------------------------------
// Usage Ledger Port
// -----------------------------------------------------------------------------

// ErrLedgerUnavailable indicates the durable store backing the ledger
// could not be read or written. Callers must treat it as quota denied
// (fail closed), never as permission to call the metered endpoint.
var ErrLedgerUnavailable = errors.New("usage ledger unavailable")

// UsageRecord is one period's consumption, retained for audit.
type UsageRecord struct {
	Period    quota.Period
	Count     int64
	UpdatedAt time.Time
}

// LedgerStore persists metered-endpoint consumption per calendar month.
//
// IncrementAndGet is the single mutating entry point for normal operation:
// it atomically creates the period record if absent, adds one, commits
// durably, and returns the new count. For a given period the returned
// counts form a strictly increasing, gap-free sequence across concurrent
// callers. Once it returns, the new count survives a process crash.
type LedgerStore interface {
	// Get returns the count for a period, 0 when no record exists.
	Get(ctx context.Context, period quota.Period) (int64, error)

	// IncrementAndGet consumes one unit and returns the new count.
	IncrementAndGet(ctx context.Context, period quota.Period) (int64, error)

	// Reset zeroes a period's count. Administrative use only.
	Reset(ctx context.Context, period quota.Period) error

	// History returns up to n most recent period records, newest first.
	History(ctx context.Context, n int) ([]UsageRecord, error)

	// Close releases the underlying store.
	Close() error
}

// -----------------------------------------------------------------------------
// Upstream Capability Ports
// -----------------------------------------------------------------------------

// ErrBrandNotFound is the definitive-miss signal from either upstream
// endpoint: the provider answered and the brand is not there. It is the
// only upstream error that advances the fallback engine to its next step.
var ErrBrandNotFound = errors.New("brand not found")

// DomainLookup is the unmetered, high-quota lookup-by-domain capability.
// A nil-error return means found; ErrBrandNotFound means a definitive
// miss; any other error is transient infrastructure failure.
type DomainLookup interface {
	LookupByDomain(ctx context.Context, domain string) (brand.LogoResult, error)
}

// BrandAPI is the metered, low-quota capability. Every call consumes one
// unit of the scarce quota by provider-side accounting, regardless of the
// response.
type BrandAPI interface {
	// LookupFull retrieves the complete brand profile for a domain.
	LookupFull(ctx context.Context, domain string) (brand.Profile, error)

	// Search finds brands by free-text name, best match first.
	Search(ctx context.Context, query string) ([]brand.SearchResult, error)
}

// SearchProvider is an optional collaborator the name resolver may use to
// improve candidate quality. Its absence or failure never breaks
// resolution; implementations must not consume metered quota.
type SearchProvider interface {
	// TopDomains returns the best-matching domains for a name, in order.
	TopDomains(ctx context.Context, name string, limit int) ([]string, error)
}

// -----------------------------------------------------------------------------
// Cache Port
// -----------------------------------------------------------------------------

// Cache stores serialized lookup results under string keys with a TTL.
// Implementations are best-effort: a miss and an error are equivalent for
// callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
