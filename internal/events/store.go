package events

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"eventdash/internal/apperr"
	"eventdash/internal/clock"
	"eventdash/internal/model"
	"eventdash/internal/watch"
)

// ErrStatusFinal is returned when something tries to move an expired event
// to another status.
var ErrStatusFinal = errors.New("event status is final once expired")

// ErrInvalidStatus is returned by SetStatus for unknown status values.
var ErrInvalidStatus = errors.New("invalid event status")

// Store is the in-memory event collection. It exclusively owns the events;
// callers only ever see copies.
type Store struct {
	mu sync.RWMutex

	byID map[string]*model.Event
	// order holds IDs newest first, matching the dashboard which prepends
	// freshly created events.
	order []string

	clock clock.Clock
	newID func() string
	hub   *watch.Hub
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for CreatedAt/UpdatedAt.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithHub publishes a watch.Change for every mutation.
func WithHub(h *watch.Hub) Option {
	return func(s *Store) { s.hub = h }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID:  make(map[string]*model.Event),
		clock: clock.System,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a snapshot of all events, newest first.
func (s *Store) List() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Len returns the number of events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns a copy of one event.
func (s *Store) Get(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.byID[id]
	if !ok {
		return model.Event{}, apperr.NotFound("event", id)
	}
	return *ev, nil
}

// Create validates the draft and adds a new pending event with no attendees.
func (s *Store) Create(d model.Draft) (model.Event, error) {
	d = normalizeDraft(d)
	if err := ValidateDraft(d); err != nil {
		return model.Event{}, err
	}

	now := s.clock.Now()
	ev := &model.Event{
		ID:        s.newID(),
		Status:    model.StatusPending,
		Attendees: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyDraft(ev, d)

	s.mu.Lock()
	s.insertLocked(ev)
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicEvents, Op: watch.OpCreated, ID: ev.ID})
	return *ev, nil
}

// Import inserts a fully specified event, e.g. from seed data or an ICS feed.
// Status and attendee count are taken from ev; an empty ID gets a fresh one
// and an empty status becomes pending.
func (s *Store) Import(ev model.Event) (model.Event, error) {
	d := normalizeDraft(ev.Draft())
	verr := validate(d)
	if ev.Status == "" {
		ev.Status = model.StatusPending
	}
	if !ev.Status.Valid() {
		verr.Add("status", "Unknown status "+string(ev.Status))
	}
	if ev.Attendees < 0 {
		verr.Add("attendees", "Attendees cannot be negative")
	} else if d.MaxAttendees >= 1 && ev.Attendees > d.MaxAttendees {
		verr.Add("attendees", "Attendees cannot exceed maximum attendees")
	}
	if err := verr.OrNil(); err != nil {
		return model.Event{}, err
	}

	now := s.clock.Now()
	stored := ev
	applyDraft(&stored, d)
	if stored.ID == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.mu.Lock()
	if _, exists := s.byID[stored.ID]; exists {
		s.mu.Unlock()
		verr.Add("id", "An event with this ID already exists")
		return model.Event{}, verr
	}
	s.insertLocked(&stored)
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicEvents, Op: watch.OpCreated, ID: stored.ID})
	return stored, nil
}

// Update replaces the editable fields of an event, keeping its ID, attendees
// and status.
func (s *Store) Update(id string, d model.Draft) (model.Event, error) {
	d = normalizeDraft(d)
	verr := validate(d)

	s.mu.Lock()
	ev, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return model.Event{}, apperr.NotFound("event", id)
	}
	if d.MaxAttendees >= 1 && d.MaxAttendees < ev.Attendees {
		verr.Add("maxAttendees", "Cannot be lower than current attendees")
	}
	if err := verr.OrNil(); err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}
	applyDraft(ev, d)
	ev.UpdatedAt = s.clock.Now()
	out := *ev
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicEvents, Op: watch.OpUpdated, ID: id})
	return out, nil
}

// Delete removes an event.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return apperr.NotFound("event", id)
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicEvents, Op: watch.OpDeleted, ID: id})
	return nil
}

// SetStatus changes the status of an event. It is the expiry engine's
// mutation path; moderation goes through Approve and Reject, which can never
// produce expired. Expired is terminal: once set, any attempt to move to a
// different status fails with ErrStatusFinal. Setting the current status
// again is a no-op.
func (s *Store) SetStatus(id string, status model.Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	ev, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("event", id)
	}
	if ev.Status == status {
		s.mu.Unlock()
		return nil
	}
	if ev.Status == model.StatusExpired {
		s.mu.Unlock()
		return ErrStatusFinal
	}
	ev.Status = status
	ev.UpdatedAt = s.clock.Now()
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicEvents, Op: watch.OpUpdated, ID: id})
	return nil
}

// Approve is the moderation action that accepts an event.
func (s *Store) Approve(id string) error {
	return s.SetStatus(id, model.StatusApproved)
}

// Reject is the moderation action that declines an event.
func (s *Store) Reject(id string) error {
	return s.SetStatus(id, model.StatusRejected)
}

func (s *Store) insertLocked(ev *model.Event) {
	s.byID[ev.ID] = ev
	s.order = append([]string{ev.ID}, s.order...)
}

func applyDraft(ev *model.Event, d model.Draft) {
	ev.Title = d.Title
	ev.Description = d.Description
	ev.Location = d.Location
	ev.Image = d.Image
	ev.Date = d.Date
	ev.ExpiryDate = d.ExpiryDate
	ev.MaxAttendees = d.MaxAttendees
}

func normalizeDraft(d model.Draft) model.Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	d.Image = strings.TrimSpace(d.Image)
	return d
}

