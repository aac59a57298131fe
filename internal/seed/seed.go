// Package seed loads sample events from a YAML file into the event store.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"eventdash/internal/expiry"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// Entry is one event in a seed file. Times are RFC 3339, or a local
// "2006-01-02T15:04:05" / "2006-01-02" read in the loader's location.
type Entry struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Date         string `yaml:"date"`
	ExpiryDate   string `yaml:"expiry_date"`
	Location     string `yaml:"location"`
	Image        string `yaml:"image"`
	Attendees    int    `yaml:"attendees"`
	MaxAttendees int    `yaml:"max_attendees"`
	Status       string `yaml:"status"`
}

// File is the top-level layout of a seed file.
type File struct {
	Events []Entry `yaml:"events"`
}

// Importer is the part of the event store seeding writes to.
type Importer interface {
	Import(ev model.Event) (model.Event, error)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Decode reads a seed file and converts its entries to events. Entries
// without an expiry date get expiry.DefaultDeadline of their date.
func Decode(r io.Reader, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]model.Event, 0, len(f.Events))
	for i, e := range f.Events {
		ev, err := e.event(loc)
		if err != nil {
			return nil, fmt.Errorf("seed event %d (%q): %w", i, e.Title, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (e Entry) event(loc *time.Location) (model.Event, error) {
	date, err := parseTime(e.Date, loc)
	if err != nil {
		return model.Event{}, fmt.Errorf("date: %w", err)
	}
	deadline := expiry.DefaultDeadline(date)
	if strings.TrimSpace(e.ExpiryDate) != "" {
		if deadline, err = parseTime(e.ExpiryDate, loc); err != nil {
			return model.Event{}, fmt.Errorf("expiry_date: %w", err)
		}
	}
	return model.Event{
		ID:           strings.TrimSpace(e.ID),
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		Image:        e.Image,
		Date:         date,
		ExpiryDate:   deadline,
		Attendees:    e.Attendees,
		MaxAttendees: e.MaxAttendees,
		Status:       model.Status(strings.ToLower(strings.TrimSpace(e.Status))),
	}, nil
}

func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}

// Load inserts the events of one seed file into dst, keeping the file's
// order as the store's listing order. It stops at the first rejected event
// and returns how many were inserted.
func Load(r io.Reader, dst Importer, loc *time.Location) (int, error) {
	evs, err := Decode(r, loc)
	if err != nil {
		return 0, err
	}
	// The store lists newest first, so insert back to front.
	for i := len(evs) - 1; i >= 0; i-- {
		if _, err := dst.Import(evs[i]); err != nil {
			return len(evs) - 1 - i, fmt.Errorf("seed event %q: %w", evs[i].Title, err)
		}
	}
	return len(evs), nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, dst Importer, loc *time.Location) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	n, err := Load(f, dst, loc)
	if err != nil {
		return n, err
	}
	appLog.Info("seed events loaded", "path", path, "count", n)
	return n, nil
}
