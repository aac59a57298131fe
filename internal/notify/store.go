// Package notify holds the in-memory notification feed.
package notify

import (
	"errors"
	"sync"

	"eventdash/internal/apperr"
	"eventdash/internal/model"
	"eventdash/internal/watch"
)

// ErrDuplicateID is returned by Add when a notification ID is already stored.
var ErrDuplicateID = errors.New("notification id already exists")

// ErrIDRequired is returned by Add for a notification without an ID.
var ErrIDRequired = errors.New("notification id is required")

// Filter narrows List. Zero values match everything.
type Filter struct {
	Type       model.NotificationType
	EventID    string
	UnreadOnly bool
}

func (f Filter) match(n *model.Notification) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.EventID != "" && n.EventID != f.EventID {
		return false
	}
	if f.UnreadOnly && n.Read {
		return false
	}
	return true
}

// Store keeps notifications in insertion order. Newest-first display is left
// to the presentation layer.
type Store struct {
	mu    sync.RWMutex
	items []*model.Notification
	byID  map[string]*model.Notification

	// unreadWarnings counts unread warning notifications per event ID, so the
	// engine's de-duplication check does not scan the whole feed.
	unreadWarnings map[string]int

	hub *watch.Hub
}

// NewStore returns an empty Store. hub may be nil.
func NewStore(hub *watch.Hub) *Store {
	return &Store{
		byID:           make(map[string]*model.Notification),
		unreadWarnings: make(map[string]int),
		hub:            hub,
	}
}

// List returns copies of the notifications matching f, oldest first.
func (s *Store) List(f Filter) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, 0, len(s.items))
	for _, n := range s.items {
		if f.match(n) {
			out = append(out, *n)
		}
	}
	return out
}

// Get returns one notification.
func (s *Store) Get(id string) (model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return model.Notification{}, apperr.NotFound("notification", id)
	}
	return *n, nil
}

// Add appends a notification.
func (s *Store) Add(n model.Notification) error {
	if n.ID == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	if _, exists := s.byID[n.ID]; exists {
		s.mu.Unlock()
		return ErrDuplicateID
	}
	stored := n
	s.items = append(s.items, &stored)
	s.byID[n.ID] = &stored
	if isUnreadWarning(&stored) {
		s.unreadWarnings[stored.EventID]++
	}
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicNotifications, Op: watch.OpCreated, ID: n.ID})
	return nil
}

// MarkRead acknowledges a notification. Marking an already-read notification
// again succeeds without change.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	n, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("notification", id)
	}
	if n.Read {
		s.mu.Unlock()
		return nil
	}
	s.markReadLocked(n)
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicNotifications, Op: watch.OpUpdated, ID: id})
	return nil
}

// MarkAllRead acknowledges every unread notification and returns how many
// changed.
func (s *Store) MarkAllRead() int {
	s.mu.Lock()
	changed := make([]string, 0)
	for _, n := range s.items {
		if !n.Read {
			s.markReadLocked(n)
			changed = append(changed, n.ID)
		}
	}
	s.mu.Unlock()

	for _, id := range changed {
		s.hub.Publish(watch.Change{Topic: watch.TopicNotifications, Op: watch.OpUpdated, ID: id})
	}
	return len(changed)
}

// Dismiss removes a notification. Unknown IDs are ignored.
func (s *Store) Dismiss(id string) {
	s.mu.Lock()
	n, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if isUnreadWarning(n) {
		s.decWarningLocked(n.EventID)
	}
	delete(s.byID, id)
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.hub.Publish(watch.Change{Topic: watch.TopicNotifications, Op: watch.OpDeleted, ID: id})
}

// HasUnreadWarning reports whether an unread warning exists for eventID.
func (s *Store) HasUnreadWarning(eventID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadWarnings[eventID] > 0
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Len returns the number of stored notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) markReadLocked(n *model.Notification) {
	if isUnreadWarning(n) {
		s.decWarningLocked(n.EventID)
	}
	n.Read = true
}

func (s *Store) decWarningLocked(eventID string) {
	if s.unreadWarnings[eventID] <= 1 {
		delete(s.unreadWarnings, eventID)
		return
	}
	s.unreadWarnings[eventID]--
}

func isUnreadWarning(n *model.Notification) bool {
	return n.Type == model.NotificationWarning && !n.Read && n.EventID != ""
}
