// Package ics imports events from iCalendar files and exports the event
// store back to one.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// Custom properties carrying fields iCalendar has no slot for.
const (
	PropExpiry       ical.ComponentProperty = "X-EVENTDASH-EXPIRY"
	PropStatus       ical.ComponentProperty = "X-EVENTDASH-STATUS"
	PropAttendees    ical.ComponentProperty = "X-EVENTDASH-ATTENDEES"
	PropImage        ical.ComponentProperty = "X-EVENTDASH-IMAGE"
	PropMaxAttendees ical.ComponentProperty = "X-MAX-ATTENDEES"
)

// Entry is one VEVENT as read from a calendar, before recurrence expansion.
type Entry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Image       string

	Start  time.Time
	End    time.Time
	AllDay bool

	// Expiry is the registration deadline from X-EVENTDASH-EXPIRY; zero
	// means "use End".
	Expiry time.Time

	Status       model.Status
	Attendees    int
	MaxAttendees int

	RawRRule string
	ExDates  []time.Time
}

// Parse reads a calendar and returns its VEVENTs. Events that cannot be
// interpreted are logged and skipped; only an unreadable calendar fails.
func Parse(r io.Reader, name string) ([]Entry, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err, "source", name)
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	entries := make([]Entry, 0)
	for _, ve := range cal.Events() {
		e, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "source", name, "reason", perr.Error())
			continue
		}
		entries = append(entries, e)
	}

	appLog.Info("ics parse completed", "source", name, "event_count", len(entries))
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (Entry, error) {
	var out Entry

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid
	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)
	out.Image = propValue(ve, PropImage)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(p.Value, "T") {
			out.AllDay = true
		}
	}

	if v := propValue(ve, PropExpiry); v != "" {
		t, err := parseICSTime(v)
		if err != nil {
			return out, fmt.Errorf("%s: %w", PropExpiry, err)
		}
		out.Expiry = t
	}

	out.Status = statusOf(ve)
	out.Attendees = intProp(ve, PropAttendees)
	out.MaxAttendees = intProp(ve, PropMaxAttendees)

	out.RawRRule = propValue(ve, ical.ComponentPropertyRrule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func intProp(ve *ical.VEvent, prop ical.ComponentProperty) int {
	n, err := strconv.Atoi(propValue(ve, prop))
	if err != nil {
		return 0
	}
	return n
}

// statusOf prefers the exact dashboard status and falls back to the
// iCalendar STATUS property.
func statusOf(ve *ical.VEvent) model.Status {
	if s := model.Status(strings.ToLower(propValue(ve, PropStatus))); s.Valid() {
		return s
	}
	switch strings.ToUpper(propValue(ve, ical.ComponentPropertyStatus)) {
	case string(ical.ObjectStatusConfirmed):
		return model.StatusApproved
	case string(ical.ObjectStatusCancelled):
		return model.StatusRejected
	default:
		return model.StatusPending
	}
}

// parseICSTime parses the basic DATE and DATE-TIME forms used by EXDATE
// and the custom properties. Floating times are read as UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	default:
		return time.ParseInLocation("20060102", v, time.UTC)
	}
}

func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
