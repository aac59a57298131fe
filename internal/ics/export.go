package ics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

const productID = "-//eventdash//events//EN"

// Encode builds a calendar holding one VEVENT per event. DTEND carries the
// expiry date so calendar clients show the registration window.
func Encode(events []model.Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp)
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		if !ev.UpdatedAt.IsZero() {
			ve.SetModifiedAt(ev.UpdatedAt)
		}
		ve.SetStartAt(ev.Date)
		ve.SetEndAt(ev.ExpiryDate)
		ve.SetSummary(ev.Title)
		ve.SetDescription(ev.Description)
		ve.SetLocation(ev.Location)
		ve.SetStatus(objectStatus(ev.Status))

		ve.SetProperty(PropExpiry, formatICSTime(ev.ExpiryDate))
		ve.SetProperty(PropStatus, string(ev.Status))
		ve.SetProperty(PropAttendees, strconv.Itoa(ev.Attendees))
		ve.SetProperty(PropMaxAttendees, strconv.Itoa(ev.MaxAttendees))
		if ev.Image != "" {
			ve.SetProperty(PropImage, ev.Image)
		}
	}
	return cal
}

// Export writes events as an iCalendar document to w.
func Export(w io.Writer, events []model.Event, stamp time.Time) error {
	if _, err := io.WriteString(w, Encode(events, stamp).Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

// ExportFile writes events to path atomically (temp file + rename).
func ExportFile(path string, events []model.Event, stamp time.Time) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".eventdash-export-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Export(tmp, events, stamp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	appLog.Info("ics export written", "path", path, "event_count", len(events))
	return nil
}

func objectStatus(s model.Status) ical.ObjectStatus {
	switch s {
	case model.StatusApproved:
		return ical.ObjectStatusConfirmed
	case model.StatusPending:
		return ical.ObjectStatusTentative
	default:
		return ical.ObjectStatusCancelled
	}
}
