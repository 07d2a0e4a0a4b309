package signal

import (
	"testing"
	"time"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func TestGate_AlternatesByHour(t *testing.T) {
	loc := saoPaulo(t)
	g := Gate{EvenHour: "aviator_a", OddHour: "aviator_b", Loc: loc}

	even := time.Date(2026, 3, 1, 14, 30, 0, 0, loc)
	if !g.IsPlatformWindowActive("aviator_a", even) || g.IsPlatformWindowActive("aviator_b", even) {
		t.Fatalf("14h should belong to aviator_a")
	}
	odd := time.Date(2026, 3, 1, 15, 0, 0, 0, loc)
	if g.ActivePlatform(odd) != "aviator_b" {
		t.Fatalf("15h active=%s want=aviator_b", g.ActivePlatform(odd))
	}
	midnight := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	if g.ActivePlatform(midnight) != "aviator_a" {
		t.Fatalf("00h is even")
	}
}

func TestGate_UsesGateTimezone(t *testing.T) {
	loc := saoPaulo(t)
	g := Gate{EvenHour: "aviator_a", OddHour: "aviator_b", Loc: loc}
	// 17:00 UTC is 14:00 in Sao Paulo (UTC-3, no DST since 2019).
	at := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	if got := g.ActivePlatform(at); got != "aviator_a" {
		t.Fatalf("active=%s want=aviator_a", got)
	}
}

func TestGate_ExactlyOneActive(t *testing.T) {
	loc := saoPaulo(t)
	g := Gate{EvenHour: "aviator_a", OddHour: "aviator_b", Loc: loc}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48*4; i++ {
		at := start.Add(time.Duration(i) * 15 * time.Minute)
		a := g.IsPlatformWindowActive("aviator_a", at)
		b := g.IsPlatformWindowActive("aviator_b", at)
		if a == b {
			t.Fatalf("at %v a=%v b=%v", at, a, b)
		}
	}
}

func TestGate_UnknownPlatform(t *testing.T) {
	g := Gate{EvenHour: "aviator_a", OddHour: "aviator_b"}
	at := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	if g.IsPlatformWindowActive("crash_x", at) || g.IsPlatformWindowActive("", at) {
		t.Fatalf("unknown platforms are never active")
	}
}

func TestGate_NextSwitch(t *testing.T) {
	g := Gate{EvenHour: "aviator_a", OddHour: "aviator_b", Loc: time.UTC}
	at := time.Date(2026, 3, 1, 14, 42, 10, 0, time.UTC)
	want := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	if got := g.NextSwitch(at); !got.Equal(want) {
		t.Fatalf("next=%v want=%v", got, want)
	}
}

func TestHourStart_InLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	at := time.Date(2026, 3, 1, 14, 10, 0, 0, time.UTC) // 19:40 local
	got := HourStart(at, loc)
	want := time.Date(2026, 3, 1, 19, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("start=%v want=%v", got, want)
	}
	// Truncate works in UTC and would give 14:00 UTC.
	if got.Equal(at.Truncate(time.Hour)) {
		t.Fatalf("hour start must follow the location, not UTC")
	}
}

func TestHourStart_DSTFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2026-11-01 01:00-02:00 happens twice in New York: EDT then EST.
	for _, tc := range []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC), time.Date(2026, 11, 1, 5, 0, 0, 0, time.UTC)},
		{time.Date(2026, 11, 1, 6, 30, 0, 0, time.UTC), time.Date(2026, 11, 1, 6, 0, 0, 0, time.UTC)},
		{time.Date(2026, 11, 1, 7, 30, 0, 0, time.UTC), time.Date(2026, 11, 1, 7, 0, 0, 0, time.UTC)},
	} {
		got := HourStart(tc.now, loc)
		if !got.Equal(tc.want) {
			t.Fatalf("now=%v start=%v want=%v", tc.now, got, tc.want)
		}
		if tc.now.Before(got) || !tc.now.Before(got.Add(time.Hour)) {
			t.Fatalf("now=%v outside [%v, +1h)", tc.now, got)
		}
	}
}
