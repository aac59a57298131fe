package events

import (
	"math"

	"eventdash/internal/model"
)

// Summary is the set of dashboard counters derived from an event list.
type Summary struct {
	Total          int
	Approved       int
	Pending        int
	Rejected       int
	Expired        int
	TotalAttendees int
}

// Summarize computes the dashboard counters over a snapshot from Store.List.
func Summarize(list []model.Event) Summary {
	var s Summary
	s.Total = len(list)
	for _, ev := range list {
		switch ev.Status {
		case model.StatusApproved:
			s.Approved++
		case model.StatusPending:
			s.Pending++
		case model.StatusRejected:
			s.Rejected++
		case model.StatusExpired:
			s.Expired++
		}
		s.TotalAttendees += ev.Attendees
	}
	return s
}

// FillRate returns attendance as a rounded percentage of capacity.
func FillRate(ev model.Event) int {
	if ev.MaxAttendees <= 0 {
		return 0
	}
	return int(math.Round(float64(ev.Attendees) / float64(ev.MaxAttendees) * 100))
}

// Recent returns at most n events from the front of list.
func Recent(list []model.Event, n int) []model.Event {
	if n < 0 {
		n = 0
	}
	if len(list) < n {
		n = len(list)
	}
	return list[:n]
}
