// Package quota provides pure functions for metered-endpoint quota
// enforcement. All functions are deterministic with no side effects.
package quota

import (
	"fmt"
	"time"
)

// Period identifies one calendar month in UTC, formatted "2006-01".
// It is the quota's reset window and the usage ledger's key.
type Period string

// PeriodOf derives the period containing t (evaluated in UTC).
func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format("2006-01"))
}

// Time returns the start of the period. Malformed periods yield the zero
// time and an error.
func (p Period) Time() (time.Time, error) {
	t, err := time.Parse("2006-01", string(p))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse period %q: %w", p, err)
	}
	return t, nil
}

// Bounds returns the start of the period and the start of the next period.
// The second value is the instant at which the quota resets.
func (p Period) Bounds() (start, next time.Time, err error) {
	start, err = p.Time()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Verdict is the outcome of a policy evaluation.
type Verdict int

const (
	// Allowed means the metered call may proceed with no caveats.
	Allowed Verdict = iota
	// Warned means the call may proceed but consumption has crossed the
	// warning threshold.
	Warned
	// Denied means the monthly budget is spent and the metered endpoint
	// must not be called.
	Denied
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Warned:
		return "warned"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a ledger count against policy.
type Decision struct {
	Verdict   Verdict
	Count     int64
	Limit     int64
	Remaining int64 // never negative
}

// Evaluate applies the quota policy to a consumption count.
//
// Boundary conventions (fixed, tested):
//   - Denied when count >= limit, or when limit <= 0.
//   - Warned when count >= warnRatio*limit but count < limit.
//   - Allowed otherwise.
//
// Remaining is limit-count clamped at zero, so a limit lowered below the
// already-consumed count reports 0, never a negative number.
func Evaluate(count, limit int64, warnRatio float64) Decision {
	d := Decision{Count: count, Limit: limit}

	if limit <= 0 {
		d.Verdict = Denied
		return d
	}

	if remaining := limit - count; remaining > 0 {
		d.Remaining = remaining
	}

	switch {
	case count >= limit:
		d.Verdict = Denied
	case float64(count) >= warnRatio*float64(limit):
		d.Verdict = Warned
	default:
		d.Verdict = Allowed
	}
	return d
}

// Warns reports whether a consumption count has crossed the warning
// threshold. Used on the post-increment count to decide whether an
// otherwise-successful metered response carries a warning.
func Warns(count, limit int64, warnRatio float64) bool {
	return limit > 0 && float64(count) >= warnRatio*float64(limit)
}

// RemainingOf returns limit-count clamped at zero.
func RemainingOf(count, limit int64) int64 {
	if r := limit - count; r > 0 {
		return r
	}
	return 0
}
