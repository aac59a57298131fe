package ics

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"eventdash/internal/expiry"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig controls how entries become events.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the occurrences of recurring entries.
	// Single entries are always kept; the engine decides their fate.
	RangeStart time.Time
	RangeEnd   time.Time

	// DefaultMaxAttendees is used when an entry carries no capacity.
	DefaultMaxAttendees int

	// MaxOccurrencesPerEvent caps one recurring entry. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the events ready for the store.
type ExpandResult struct {
	Events []model.Event
	// TruncatedUIDs records entries that hit MaxOccurrencesPerEvent.
	TruncatedUIDs []string
}

// Expand turns entries into events, one per occurrence. Entry order is kept
// and occurrences of one entry are chronological.
func Expand(entries []Entry, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	for _, e := range entries {
		if e.RawRRule == "" {
			result.Events = append(result.Events, toEvent(e, e.UID, e.Start, cfg))
			continue
		}

		starts, hitCap, err := occurrences(e, cfg)
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "uid", e.UID, "rrule", e.RawRRule)
			continue
		}
		if hitCap {
			result.TruncatedUIDs = append(result.TruncatedUIDs, e.UID)
			appLog.Warn("expand: occurrences truncated", "uid", e.UID, "cap", cfg.MaxOccurrencesPerEvent)
		}
		for _, s := range starts {
			id := fmt.Sprintf("%s-%s", e.UID, s.UTC().Format("20060102T150405Z"))
			result.Events = append(result.Events, toEvent(e, id, s, cfg))
		}
	}
	return result, nil
}

func occurrences(e Entry, cfg ExpandConfig) ([]time.Time, bool, error) {
	r, err := rrule.StrToRRule(e.RawRRule)
	if err != nil {
		return nil, false, err
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	loc := e.Start.Location()
	starts := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		return starts[:cfg.MaxOccurrencesPerEvent], true, nil
	}
	return starts, false, nil
}

// toEvent places one occurrence of e at start. Duration and the expiry
// offset are carried over from the entry's own DTSTART. A declared deadline
// is kept as is, even one at or before DTSTART, so the store can reject it.
func toEvent(e Entry, id string, start time.Time, cfg ExpandConfig) model.Event {
	shift := start.Sub(e.Start)

	deadline := e.Expiry
	if deadline.IsZero() {
		deadline = e.End
	}
	if deadline.IsZero() {
		deadline = expiry.DefaultDeadline(e.Start)
	}
	deadline = deadline.Add(shift)

	description := e.Description
	if description == "" {
		description = e.Summary
	}
	maxAttendees := e.MaxAttendees
	if maxAttendees <= 0 {
		maxAttendees = cfg.DefaultMaxAttendees
	}

	return model.Event{
		ID:           id,
		Title:        e.Summary,
		Description:  description,
		Location:     e.Location,
		Image:        e.Image,
		Date:         start,
		ExpiryDate:   deadline,
		Attendees:    e.Attendees,
		MaxAttendees: maxAttendees,
		Status:       e.Status,
	}
}
