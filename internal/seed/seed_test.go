package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eventdash/internal/apperr"
	"eventdash/internal/events"
	"eventdash/internal/model"
)

const sample = `events:
  - id: "1"
    title: Advanced React Masterclass
    description: Deep dive into React hooks, context, and performance optimization.
    date: 2024-02-15T14:00:00
    expiry_date: 2024-02-16T14:00:00
    location: Tech Hub Convention Center
    attendees: 85
    max_attendees: 100
    status: approved
  - id: "2"
    title: UI/UX Design Workshop
    description: Learn the fundamentals of user experience design.
    date: "2024-02-20T10:00:00+09:00"
    location: Creative Arts Studio
    attendees: 42
    max_attendees: 60
    status: Pending
  - id: "4"
    title: Digital Marketing Bootcamp
    description: Complete guide to modern digital marketing strategies and tools.
    date: 2024-03-01
    location: Business Center Plaza
    max_attendees: 80
    status: rejected
`

func TestDecodeParsesTimesAndDefaults(t *testing.T) {
	t.Parallel()

	evs, err := Decode(strings.NewReader(sample), time.UTC)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("events = %d, want 3", len(evs))
	}

	if want := time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC); !evs[0].Date.Equal(want) {
		t.Fatalf("date = %v, want %v", evs[0].Date, want)
	}
	if !evs[1].Date.Equal(time.Date(2024, 2, 20, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("offset date = %v", evs[1].Date)
	}
	if evs[1].Status != model.StatusPending {
		t.Fatalf("status = %q, want pending", evs[1].Status)
	}
	if got := evs[2].ExpiryDate.Sub(evs[2].Date); got != 24*time.Hour {
		t.Fatalf("default expiry offset = %v", got)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "events:\n  - title: x\n    colour: red\n"},
		{name: "missing date", yaml: "events:\n  - title: x\n"},
		{name: "bad date", yaml: "events:\n  - title: x\n    date: yesterday\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode(strings.NewReader(tt.yaml), time.UTC); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	t.Parallel()

	evs, err := Decode(strings.NewReader(""), nil)
	if err != nil || len(evs) != 0 {
		t.Fatalf("empty seed = %v, %v", evs, err)
	}
}

func TestLoadKeepsFileOrder(t *testing.T) {
	t.Parallel()

	store := events.NewStore()
	n, err := Load(strings.NewReader(sample), store, time.UTC)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 3 {
		t.Fatalf("loaded %d, want 3", n)
	}

	list := store.List()
	if list[0].ID != "1" || list[1].ID != "2" || list[2].ID != "4" {
		t.Fatalf("order = %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].Status != model.StatusApproved || list[0].Attendees != 85 {
		t.Fatalf("seeded fields lost: %+v", list[0])
	}
}

func TestLoadStopsOnRejectedEvent(t *testing.T) {
	t.Parallel()

	data := `events:
  - title: Full
    description: over capacity
    date: 2024-02-15
    location: Hall
    attendees: 10
    max_attendees: 5
`
	_, err := Load(strings.NewReader(data), events.NewStore(), time.UTC)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := events.NewStore()
	if n, err := LoadFile(path, store, time.UTC); err != nil || n != 3 {
		t.Fatalf("LoadFile = %d, %v", n, err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), store, time.UTC); err == nil {
		t.Fatal("expected error for missing file")
	}
}
