package quota

import (
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Period tests
// -----------------------------------------------------------------------------

func TestPeriodOf(t *testing.T) {
	cases := []struct {
		at   time.Time
		want Period
	}{
		{time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC), "2026-08"},
		{time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "2026-09"},
		{time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), "2026-01"},
	}
	for _, tc := range cases {
		if got := PeriodOf(tc.at); got != tc.want {
			t.Errorf("PeriodOf(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestPeriodOf_NonUTCLocation(t *testing.T) {
	// 2026-09-01 00:30 at UTC+10 is still 2026-08 in UTC.
	loc := time.FixedZone("AEST", 10*3600)
	at := time.Date(2026, 9, 1, 0, 30, 0, 0, loc)
	if got := PeriodOf(at); got != Period("2026-08") {
		t.Errorf("PeriodOf(%v) = %q, want 2026-08", at, got)
	}
}

func TestPeriodBounds(t *testing.T) {
	start, next, err := Period("2026-08").Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestPeriodBounds_Malformed(t *testing.T) {
	if _, _, err := Period("not-a-period").Bounds(); err == nil {
		t.Error("expected error for malformed period")
	}
}

// -----------------------------------------------------------------------------
// Evaluate tests
// -----------------------------------------------------------------------------

func TestEvaluate_Allowed(t *testing.T) {
	d := Evaluate(3, 10, 0.8)
	if d.Verdict != Allowed {
		t.Errorf("verdict = %v, want allowed", d.Verdict)
	}
	if d.Remaining != 7 {
		t.Errorf("remaining = %d, want 7", d.Remaining)
	}
}

func TestEvaluate_WarnBoundary(t *testing.T) {
	// limit=10, ratio=0.8: count 7 is plain, count 8 warns with 2 left.
	if d := Evaluate(7, 10, 0.8); d.Verdict != Allowed {
		t.Errorf("count=7: verdict = %v, want allowed", d.Verdict)
	}
	d := Evaluate(8, 10, 0.8)
	if d.Verdict != Warned {
		t.Errorf("count=8: verdict = %v, want warned", d.Verdict)
	}
	if d.Remaining != 2 {
		t.Errorf("count=8: remaining = %d, want 2", d.Remaining)
	}
}

func TestEvaluate_DenyBoundary(t *testing.T) {
	// Deny begins exactly at count == limit.
	if d := Evaluate(4, 5, 0.8); d.Verdict == Denied {
		t.Error("count=4, limit=5: should not be denied")
	}
	d := Evaluate(5, 5, 0.8)
	if d.Verdict != Denied {
		t.Errorf("count=5, limit=5: verdict = %v, want denied", d.Verdict)
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining)
	}
}

func TestEvaluate_HalfRatioScenario(t *testing.T) {
	// limit=2, ratio=0.5: the warning threshold sits at count 1, so the
	// first unit already warns; the second warns with nothing left; only
	// a third attempt is denied.
	d := Evaluate(1, 2, 0.5)
	if d.Verdict != Warned || d.Remaining != 1 {
		t.Errorf("count=1: got %v remaining=%d, want warned remaining=1", d.Verdict, d.Remaining)
	}
	d = Evaluate(2, 2, 0.5)
	if d.Verdict != Denied || d.Remaining != 0 {
		t.Errorf("count=2: got %v remaining=%d, want denied remaining=0", d.Verdict, d.Remaining)
	}
}

func TestEvaluate_ZeroLimit(t *testing.T) {
	if d := Evaluate(0, 0, 0.8); d.Verdict != Denied {
		t.Errorf("limit=0: verdict = %v, want denied", d.Verdict)
	}
}

func TestEvaluate_CountPastLimit(t *testing.T) {
	// Limit lowered after usage already exceeded it.
	d := Evaluate(120, 100, 0.8)
	if d.Verdict != Denied {
		t.Errorf("verdict = %v, want denied", d.Verdict)
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0 (never negative)", d.Remaining)
	}
}

func TestWarns(t *testing.T) {
	cases := []struct {
		count, limit int64
		ratio        float64
		want         bool
	}{
		{7, 10, 0.8, false},
		{8, 10, 0.8, true},
		{10, 10, 0.8, true},
		{1, 2, 0.5, true},
		{0, 2, 0.5, false},
		{5, 0, 0.8, false}, // zero limit never "warns", it denies outright
	}
	for _, tc := range cases {
		if got := Warns(tc.count, tc.limit, tc.ratio); got != tc.want {
			t.Errorf("Warns(%d, %d, %v) = %v, want %v", tc.count, tc.limit, tc.ratio, got, tc.want)
		}
	}
}

func TestRemainingOf(t *testing.T) {
	if got := RemainingOf(8, 10); got != 2 {
		t.Errorf("RemainingOf(8, 10) = %d, want 2", got)
	}
	if got := RemainingOf(120, 100); got != 0 {
		t.Errorf("RemainingOf(120, 100) = %d, want 0", got)
	}
}

func TestVerdictString(t *testing.T) {
	cases := map[Verdict]string{
		Allowed:     "allowed",
		Warned:      "warned",
		Denied:      "denied",
		Verdict(99): "unknown",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("Verdict(%d).String() = %q, want %q", v, got, want)
		}
	}
}
