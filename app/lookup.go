// Package app orchestrates brand lookups across the unmetered and
// metered upstream endpoints, consulting the usage ledger before any
// metered call. Domain logic stays in domain/, I/O in adapters/; this
// package owns only the fallback sequencing and quota gating.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/djmoore711/brandfetch-mcp/adapters/metrics"
	"github.com/djmoore711/brandfetch-mcp/domain/brand"
	"github.com/djmoore711/brandfetch-mcp/domain/quota"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

// Settings are the runtime-tunable knobs. The service holds them behind
// an atomic pointer so a config reload swaps them without locking.
type Settings struct {
	// MonthlyLimit is the metered-call budget per calendar month.
	MonthlyLimit int64
	// WarnRatio is the fraction of the limit at which successful metered
	// responses start carrying a warning.
	WarnRatio float64
	// TimeoutIsMiss makes an unmetered-endpoint timeout count as a
	// definitive miss, advancing the fallback instead of aborting.
	TimeoutIsMiss bool
	// CacheTTL bounds how long successful lookups are cached. Zero
	// disables caching even when a cache is wired.
	CacheTTL time.Duration
}

// LookupRequest asks for brand information by exactly one of Domain or
// Name. Both set, or neither, is a validation error.
type LookupRequest struct {
	Domain string `json:"domain,omitempty"`
	Name   string `json:"name,omitempty"`
}

// UsageReport is a point-in-time view of the current period's budget.
type UsageReport struct {
	Period    quota.Period `json:"period"`
	Count     int64        `json:"count"`
	Limit     int64        `json:"limit"`
	Remaining int64        `json:"remaining"`
	WarnAt    int64        `json:"warn_at"`
	ResetsAt  time.Time    `json:"resets_at"`
}

// Deps are the collaborators a LookupService needs. Cache, Metrics and
// the resolver's search provider are optional; everything else is not.
type Deps struct {
	Ledger   ports.LedgerStore
	Logos    ports.DomainLookup
	Brands   ports.BrandAPI
	Resolver *Resolver
	Cache    ports.Cache
	Clock    ports.Clock
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
}

// LookupService is the fallback decision engine. It tries the unmetered
// endpoint first and escalates to the metered endpoint at most once per
// request, and only after reserving a unit in the usage ledger.
type LookupService struct {
	ledger   ports.LedgerStore
	logos    ports.DomainLookup
	brands   ports.BrandAPI
	resolver *Resolver
	cache    ports.Cache
	clock    ports.Clock
	metrics  *metrics.Collector
	logger   zerolog.Logger

	settings atomic.Pointer[Settings]
}

// NewLookupService wires a service from its dependencies.
func NewLookupService(deps Deps, settings Settings) *LookupService {
	s := &LookupService{
		ledger:   deps.Ledger,
		logos:    deps.Logos,
		brands:   deps.Brands,
		resolver: deps.Resolver,
		cache:    deps.Cache,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With().Str("component", "lookup").Logger(),
	}
	s.settings.Store(&settings)
	return s
}

// UpdateSettings swaps the runtime knobs. In-flight requests finish with
// the settings they started with.
func (s *LookupService) UpdateSettings(settings Settings) {
	s.settings.Store(&settings)
	s.logger.Info().
		Int64("monthly_limit", settings.MonthlyLimit).
		Float64("warn_ratio", settings.WarnRatio).
		Bool("timeout_is_miss", settings.TimeoutIsMiss).
		Msg("settings updated")
}

// Handle runs one lookup. Invalid requests return an error; every valid
// request returns a tagged Outcome and a nil error, including quota
// denials and upstream failures.
func (s *LookupService) Handle(ctx context.Context, req LookupRequest) (Outcome, error) {
	start := s.clock.Now()

	hasDomain := strings.TrimSpace(req.Domain) != ""
	hasName := strings.TrimSpace(req.Name) != ""
	if hasDomain == hasName {
		return Outcome{}, errors.New("exactly one of domain or name is required")
	}

	var out Outcome
	if hasDomain {
		domain, err := brand.NormalizeDomain(req.Domain)
		if err != nil {
			return Outcome{}, fmt.Errorf("invalid domain %q: %w", req.Domain, err)
		}
		out = s.byDomain(ctx, domain)
	} else {
		out = s.byName(ctx, strings.TrimSpace(req.Name))
	}

	s.observe(start, out)
	return out, nil
}

// byDomain runs the domain path: cache, then unmetered logo lookup, then
// at most one metered full-profile call.
func (s *LookupService) byDomain(ctx context.Context, domain string) Outcome {
	cfg := s.settings.Load()

	if out, ok := s.cacheGet(ctx, cacheKey(domain)); ok {
		return out
	}

	logo, err := s.logos.LookupByDomain(ctx, domain)
	switch s.classify(err, cfg) {
	case hit:
		out := Outcome{Kind: OutcomeFound, Source: SourceUnmetered, Logo: &logo}
		s.cacheSet(ctx, cacheKey(domain), out, cfg)
		return out
	case transient:
		return Outcome{Kind: OutcomeUpstreamError, Detail: err.Error(), DomainsTried: []string{domain}}
	}

	// Definitive miss on the free endpoint; escalate once.
	res, denied := s.reserve(ctx, cfg)
	if denied != nil {
		denied.DomainsTried = []string{domain}
		return *denied
	}

	profile, err := s.brands.LookupFull(ctx, domain)
	if err != nil {
		if errors.Is(err, ports.ErrBrandNotFound) {
			return Outcome{Kind: OutcomeNotFound, DomainsTried: []string{domain}}
		}
		s.countUpstreamError("brand", err)
		return Outcome{Kind: OutcomeUpstreamError, Detail: err.Error(), DomainsTried: []string{domain}}
	}

	out := res.success(cfg)
	out.Profile = &profile
	s.cacheSet(ctx, cacheKey(domain), out, cfg)
	return out
}

// byName runs the name path: resolve candidate domains, try each on the
// unmetered endpoint, then fall back to one metered search by name.
func (s *LookupService) byName(ctx context.Context, name string) Outcome {
	cfg := s.settings.Load()

	if out, ok := s.cacheGet(ctx, "name:"+name); ok {
		return out
	}

	candidates := s.resolver.Candidates(ctx, name)
	if len(candidates) == 0 {
		return Outcome{
			Kind:   OutcomeResolutionFailed,
			Name:   name,
			Detail: "no candidate domains could be derived from the name",
		}
	}

	tried := make([]string, 0, len(candidates))
	for _, domain := range candidates {
		tried = append(tried, domain)
		logo, err := s.logos.LookupByDomain(ctx, domain)
		switch s.classify(err, cfg) {
		case hit:
			out := Outcome{Kind: OutcomeFound, Source: SourceUnmetered, Logo: &logo, Name: name, DomainsTried: tried}
			s.cacheSet(ctx, "name:"+name, out, cfg)
			return out
		case transient:
			return Outcome{Kind: OutcomeUpstreamError, Detail: err.Error(), Name: name, DomainsTried: tried}
		}
	}

	// Every candidate missed. One metered search settles it.
	res, denied := s.reserve(ctx, cfg)
	if denied != nil {
		denied.Name = name
		denied.DomainsTried = tried
		return *denied
	}

	matches, err := s.brands.Search(ctx, name)
	if err != nil && !errors.Is(err, ports.ErrBrandNotFound) {
		s.countUpstreamError("search", err)
		return Outcome{Kind: OutcomeUpstreamError, Detail: err.Error(), Name: name, DomainsTried: tried}
	}
	if len(matches) == 0 {
		return Outcome{Kind: OutcomeNotFound, Name: name, DomainsTried: tried}
	}

	out := res.success(cfg)
	out.Matches = matches
	out.Name = name
	s.cacheSet(ctx, "name:"+name, out, cfg)
	return out
}

// Usage reports the current period's consumption without mutating it.
func (s *LookupService) Usage(ctx context.Context) (UsageReport, error) {
	cfg := s.settings.Load()
	period := quota.PeriodOf(s.clock.Now())

	count, err := s.ledger.Get(ctx, period)
	if err != nil {
		return UsageReport{}, fmt.Errorf("read usage for %s: %w", period, err)
	}

	_, resetsAt, _ := period.Bounds()
	return UsageReport{
		Period:    period,
		Count:     count,
		Limit:     cfg.MonthlyLimit,
		Remaining: quota.RemainingOf(count, cfg.MonthlyLimit),
		WarnAt:    int64(math.Ceil(cfg.WarnRatio * float64(cfg.MonthlyLimit))),
		ResetsAt:  resetsAt,
	}, nil
}

// ResetPeriod zeroes a period's count. Administrative use only; normal
// operation never decrements the ledger.
func (s *LookupService) ResetPeriod(ctx context.Context, period quota.Period) error {
	if _, err := period.Time(); err != nil {
		return err
	}
	s.logger.Warn().Str("period", string(period)).Msg("usage period reset")
	return s.ledger.Reset(ctx, period)
}

// History returns up to n most recent period records, newest first.
func (s *LookupService) History(ctx context.Context, n int) ([]ports.UsageRecord, error) {
	return s.ledger.History(ctx, n)
}

// -----------------------------------------------------------------------------
// Metered-call reservation
// -----------------------------------------------------------------------------

// reservation is a unit already consumed from the ledger. The unit is
// spent whether or not the subsequent upstream call succeeds; the
// provider bills the attempt either way.
type reservation struct {
	period   quota.Period
	newCount int64
}

// reserve checks the quota and consumes one unit. A non-nil Outcome
// means the metered call must not proceed: the budget is spent or the
// ledger is unavailable (which fails closed).
func (s *LookupService) reserve(ctx context.Context, cfg *Settings) (reservation, *Outcome) {
	period := quota.PeriodOf(s.clock.Now())
	_, resetsAt, _ := period.Bounds()

	count, err := s.ledger.Get(ctx, period)
	if err != nil {
		return reservation{}, s.failClosed(period, resetsAt, cfg, err)
	}

	if d := quota.Evaluate(count, cfg.MonthlyLimit, cfg.WarnRatio); d.Verdict == quota.Denied {
		if s.metrics != nil {
			s.metrics.QuotaDenials.Inc()
		}
		s.logger.Warn().
			Str("period", string(period)).
			Int64("count", count).
			Int64("limit", cfg.MonthlyLimit).
			Msg("metered call denied, monthly budget spent")
		return reservation{}, &Outcome{
			Kind:     OutcomeQuotaExhausted,
			Period:   period,
			Limit:    cfg.MonthlyLimit,
			ResetsAt: resetsAt,
		}
	}

	newCount, err := s.ledger.IncrementAndGet(ctx, period)
	if err != nil {
		return reservation{}, s.failClosed(period, resetsAt, cfg, err)
	}

	if s.metrics != nil {
		s.metrics.MeteredCalls.Inc()
		s.metrics.QuotaRemaining.Set(float64(quota.RemainingOf(newCount, cfg.MonthlyLimit)))
	}
	return reservation{period: period, newCount: newCount}, nil
}

// failClosed converts a ledger failure into a quota denial. An unknown
// count is never permission to spend.
func (s *LookupService) failClosed(period quota.Period, resetsAt time.Time, cfg *Settings, err error) *Outcome {
	if s.metrics != nil {
		s.metrics.LedgerErrors.Inc()
	}
	s.logger.Error().Err(err).Str("period", string(period)).Msg("ledger unavailable, failing closed")
	return &Outcome{
		Kind:     OutcomeQuotaExhausted,
		Period:   period,
		Limit:    cfg.MonthlyLimit,
		ResetsAt: resetsAt,
		Detail:   "usage ledger unavailable",
	}
}

// success builds the outcome skeleton for a completed metered call,
// warning when the post-call count has crossed the threshold.
func (r reservation) success(cfg *Settings) Outcome {
	kind := OutcomeFound
	if quota.Warns(r.newCount, cfg.MonthlyLimit, cfg.WarnRatio) {
		kind = OutcomeQuotaWarning
	}
	_, resetsAt, _ := r.period.Bounds()
	return Outcome{
		Kind:      kind,
		Source:    SourceMetered,
		Remaining: quota.RemainingOf(r.newCount, cfg.MonthlyLimit),
		Period:    r.period,
		Limit:     cfg.MonthlyLimit,
		ResetsAt:  resetsAt,
	}
}

// -----------------------------------------------------------------------------
// Upstream error classification
// -----------------------------------------------------------------------------

type unmeteredResult int

const (
	hit unmeteredResult = iota
	miss
	transient
)

// classify maps an unmetered-endpoint error to a fallback action. A
// timeout counts as a miss when configured so, because the free endpoint
// answers fast when it has the brand at all.
func (s *LookupService) classify(err error, cfg *Settings) unmeteredResult {
	switch {
	case err == nil:
		return hit
	case errors.Is(err, ports.ErrBrandNotFound):
		return miss
	case isTimeout(err) && cfg.TimeoutIsMiss:
		s.logger.Debug().Err(err).Msg("logo endpoint timeout treated as miss")
		return miss
	default:
		s.countUpstreamError("logo", err)
		return transient
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout() || errors.Is(err, context.DeadlineExceeded)
}

func (s *LookupService) countUpstreamError(endpoint string, err error) {
	if s.metrics == nil {
		return
	}
	kind := "error"
	if isTimeout(err) {
		kind = "timeout"
	}
	s.metrics.UpstreamErrors.WithLabelValues(endpoint, kind).Inc()
}

// -----------------------------------------------------------------------------
// Cache
// -----------------------------------------------------------------------------

func cacheKey(domain string) string {
	return "domain:" + domain
}

func (s *LookupService) cacheGet(ctx context.Context, key string) (Outcome, bool) {
	if s.cache == nil {
		return Outcome{}, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
		return Outcome{}, false
	}
	var out Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		return Outcome{}, false
	}
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	out.Source = SourceCache
	return out, true
}

// cacheSet stores a successful payload. Quota context is stripped first:
// a replayed entry must not repeat a stale warning or remaining count.
func (s *LookupService) cacheSet(ctx context.Context, key string, out Outcome, cfg *Settings) {
	if s.cache == nil || cfg.CacheTTL <= 0 || !out.Success() {
		return
	}
	entry := Outcome{Kind: OutcomeFound, Source: out.Source, Logo: out.Logo, Profile: out.Profile, Matches: out.Matches}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, raw, cfg.CacheTTL)
}

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

func (s *LookupService) observe(start time.Time, out Outcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.LookupsTotal.WithLabelValues(string(out.Kind), string(out.Source)).Inc()
	s.metrics.LookupDuration.WithLabelValues(string(out.Kind)).Observe(s.clock.Now().Sub(start).Seconds())
}
