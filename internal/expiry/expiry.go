// Package expiry classifies an event's expiry date relative to now.
//
// Boundary rule, shared by the scanner and display labels: days remaining is
// the ceiling of (expiry - now) in whole days, and anything at or below zero
// is expired. An expiry exactly equal to now is therefore expired, while an
// expiry one nanosecond ahead still counts as one day left.
package expiry

import (
	"fmt"
	"time"
)

// Day is the length of a classification day.
const Day = 24 * time.Hour

// DefaultThreshold is the number of days before expiry at which an event
// becomes "expiring".
const DefaultThreshold = 7

// Kind is the classification of an expiry date.
type Kind string

const (
	KindActive   Kind = "active"
	KindExpiring Kind = "expiring"
	KindExpired  Kind = "expired"
)

// Result is the outcome of classifying one expiry date.
type Result struct {
	Kind          Kind
	DaysRemaining int
}

// Classifier holds the expiring threshold in days.
type Classifier struct {
	Threshold int
}

// New returns a Classifier; a non-positive threshold uses DefaultThreshold.
func New(threshold int) Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Classifier{Threshold: threshold}
}

// Classify is total and pure; it only looks at the distance between now and
// expiry, never at the event's start date.
func (c Classifier) Classify(now, expiry time.Time) Result {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	days := DaysRemaining(now, expiry)
	switch {
	case days <= 0:
		return Result{Kind: KindExpired, DaysRemaining: days}
	case days <= threshold:
		return Result{Kind: KindExpiring, DaysRemaining: days}
	default:
		return Result{Kind: KindActive, DaysRemaining: days}
	}
}

// Classify uses DefaultThreshold.
func Classify(now, expiry time.Time) Result {
	return New(DefaultThreshold).Classify(now, expiry)
}

// DaysRemaining returns ceil((expiry-now)/Day). Integer division truncates
// toward zero, which is already the ceiling for negative distances.
func DaysRemaining(now, expiry time.Time) int {
	d := expiry.Sub(now)
	days := d / Day
	if d%Day > 0 {
		days++
	}
	return int(days)
}

// Days renders a day count with the right plural: "1 day", "3 days".
func Days(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}

// Label is the short status text shown next to an event in listings.
func Label(r Result) string {
	if r.Kind == KindExpired {
		return "Expired"
	}
	return Days(r.DaysRemaining) + " left"
}

// DefaultDeadline is the expiry used for events that arrive without one:
// registration stays open for one day after the event starts.
func DefaultDeadline(date time.Time) time.Time {
	return date.Add(Day)
}
