package main

import (
	"errors"

	"eventdash/internal/apperr"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/notify"
	"eventdash/internal/watch"
)

// alertLog writes every notification to the log exactly once. The change
// feed only signals that something happened; the store is the source of
// truth, so a change dropped by a full feed is picked up by the next flush,
// which runs when a lookup misses and once at shutdown.
type alertLog struct {
	notes *notify.Store
	seen  map[string]struct{}
}

func newAlertLog(notes *notify.Store) *alertLog {
	return &alertLog{notes: notes, seen: make(map[string]struct{})}
}

func (a *alertLog) follow(feed <-chan watch.Change) {
	for c := range feed {
		if c.Topic != watch.TopicNotifications || c.Op != watch.OpCreated {
			continue
		}
		n, err := a.notes.Get(c.ID)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				appLog.Warn("notification lookup failed", "id", c.ID, "error", err.Error())
				continue
			}
			a.flush()
			continue
		}
		a.emit(n)
	}
}

// flush logs any notification not seen yet, in store order.
func (a *alertLog) flush() {
	for _, n := range a.notes.List(notify.Filter{}) {
		a.emit(n)
	}
}

func (a *alertLog) emit(n model.Notification) {
	if _, ok := a.seen[n.ID]; ok {
		return
	}
	a.seen[n.ID] = struct{}{}

	kv := []any{"id", n.ID, "type", n.Type, "event_id", n.EventID, "title", n.Title, "message", n.Message}
	if n.Type == model.NotificationInfo {
		appLog.Info("notification", kv...)
		return
	}
	appLog.Warn("notification", kv...)
}
