package clock

import (
	"testing"
	"time"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v, outside [%v, %v]", got, before, after)
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	if got := f.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	f.Advance(48 * time.Hour)
	if got := f.Now(); !got.Equal(start.Add(48*time.Hour)) {
		t.Errorf("after Advance: Now() = %v", got)
	}

	jump := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	f.Set(jump)
	if got := f.Now(); !got.Equal(jump) {
		t.Errorf("after Set: Now() = %v, want %v", got, jump)
	}
}
