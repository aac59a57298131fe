package expiry

import (
	"testing"
	"time"
)

var now = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

func TestDaysRemainingRoundsTowardFuture(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{name: "exactly now", offset: 0, want: 0},
		{name: "one nanosecond ahead", offset: time.Nanosecond, want: 1},
		{name: "half a day", offset: 12 * time.Hour, want: 1},
		{name: "exactly one day", offset: Day, want: 1},
		{name: "one day and a minute", offset: Day + time.Minute, want: 2},
		{name: "half a day ago", offset: -12 * time.Hour, want: 0},
		{name: "a day and a half ago", offset: -36 * time.Hour, want: -1},
		{name: "three days ago", offset: -3 * Day, want: -3},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DaysRemaining(now, now.Add(tc.offset)); got != tc.want {
				t.Fatalf("DaysRemaining(+%v) = %d, want %d", tc.offset, got, tc.want)
			}
		})
	}
}

func TestClassifyBands(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		offset   time.Duration
		wantKind Kind
		wantDays int
	}{
		{name: "far future", offset: 30 * Day, wantKind: KindActive, wantDays: 30},
		{name: "eight days", offset: 8 * Day, wantKind: KindActive, wantDays: 8},
		{name: "just over seven days", offset: 7*Day + time.Second, wantKind: KindActive, wantDays: 8},
		{name: "exactly seven days", offset: 7 * Day, wantKind: KindExpiring, wantDays: 7},
		{name: "three days", offset: 3 * Day, wantKind: KindExpiring, wantDays: 3},
		{name: "one hour", offset: time.Hour, wantKind: KindExpiring, wantDays: 1},
		{name: "zero boundary is expired", offset: 0, wantKind: KindExpired, wantDays: 0},
		{name: "hours ago", offset: -5 * time.Hour, wantKind: KindExpired, wantDays: 0},
		{name: "days ago", offset: -4 * Day, wantKind: KindExpired, wantDays: -4},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(now, now.Add(tc.offset))
			if got.Kind != tc.wantKind || got.DaysRemaining != tc.wantDays {
				t.Fatalf("Classify(+%v) = %+v, want {%s %d}", tc.offset, got, tc.wantKind, tc.wantDays)
			}
		})
	}
}

func TestClassifyPropertyBands(t *testing.T) {
	t.Parallel()

	// Walk every hour across a window around the threshold and check that the
	// kind always agrees with the computed day count.
	for h := -10 * 24; h <= 10*24; h++ {
		expiry := now.Add(time.Duration(h) * time.Hour)
		r := Classify(now, expiry)
		switch {
		case r.DaysRemaining > DefaultThreshold && r.Kind != KindActive:
			t.Fatalf("h=%d: %+v should be active", h, r)
		case r.DaysRemaining > 0 && r.DaysRemaining <= DefaultThreshold && r.Kind != KindExpiring:
			t.Fatalf("h=%d: %+v should be expiring", h, r)
		case r.DaysRemaining <= 0 && r.Kind != KindExpired:
			t.Fatalf("h=%d: %+v should be expired", h, r)
		}
	}
}

func TestCustomThreshold(t *testing.T) {
	t.Parallel()

	c := New(3)
	if got := c.Classify(now, now.Add(4*Day)); got.Kind != KindActive {
		t.Fatalf("4 days with threshold 3 = %s, want active", got.Kind)
	}
	if got := c.Classify(now, now.Add(3*Day)); got.Kind != KindExpiring {
		t.Fatalf("3 days with threshold 3 = %s, want expiring", got.Kind)
	}
	if New(0).Threshold != DefaultThreshold {
		t.Fatalf("New(0) threshold = %d", New(0).Threshold)
	}
}

func TestClassifyIgnoresStartDate(t *testing.T) {
	t.Parallel()

	// An expiry before the event's start is still classified purely on
	// distance from now.
	start := now.Add(20 * Day)
	expiryBeforeStart := now.Add(2 * Day)
	if expiryBeforeStart.After(start) {
		t.Fatal("fixture broken")
	}
	if got := Classify(now, expiryBeforeStart); got.Kind != KindExpiring {
		t.Fatalf("kind = %s, want expiring", got.Kind)
	}
}

func TestDaysAndLabel(t *testing.T) {
	t.Parallel()

	if got := Days(1); got != "1 day" {
		t.Fatalf("Days(1) = %q", got)
	}
	if got := Days(3); got != "3 days" {
		t.Fatalf("Days(3) = %q", got)
	}
	if got := Days(0); got != "0 days" {
		t.Fatalf("Days(0) = %q", got)
	}
	if got := Label(Result{Kind: KindExpiring, DaysRemaining: 1}); got != "1 day left" {
		t.Fatalf("Label = %q", got)
	}
	if got := Label(Result{Kind: KindActive, DaysRemaining: 12}); got != "12 days left" {
		t.Fatalf("Label = %q", got)
	}
	if got := Label(Result{Kind: KindExpired, DaysRemaining: 0}); got != "Expired" {
		t.Fatalf("Label = %q", got)
	}
}

func TestDefaultDeadline(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC)
	if got := DefaultDeadline(start); !got.Equal(start.Add(Day)) {
		t.Fatalf("DefaultDeadline = %v", got)
	}
}
