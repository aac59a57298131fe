package engine

import (
	"fmt"
	"time"

	"eventdash/internal/expiry"
	"eventdash/internal/model"
)

const (
	titleExpiring = "Event Expiring Soon"
	titleExpired  = "Event Expired"
)

// notificationID derives an ID from kind, event and creation instant. One
// scan emits at most one notification per event, so IDs never collide within
// a scan.
func notificationID(kind model.NotificationType, eventID string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", kind, eventID, at.UnixNano())
}

func warningNotification(ev model.Event, res expiry.Result, now time.Time) model.Notification {
	return model.Notification{
		ID:        notificationID(model.NotificationWarning, ev.ID, now),
		Type:      model.NotificationWarning,
		Title:     titleExpiring,
		Message:   fmt.Sprintf("%q expires in %s. Registration closes on %s.", ev.Title, expiry.Days(res.DaysRemaining), ev.ExpiryDate.Format("Jan 2, 2006")),
		EventID:   ev.ID,
		Timestamp: now,
	}
}

func expiredNotification(ev model.Event, res expiry.Result, now time.Time) model.Notification {
	elapsed := -res.DaysRemaining
	var msg string
	if elapsed <= 0 {
		msg = fmt.Sprintf("%q has expired and is no longer accepting registrations.", ev.Title)
	} else {
		msg = fmt.Sprintf("%q expired %s ago and is no longer accepting registrations.", ev.Title, expiry.Days(elapsed))
	}
	return model.Notification{
		ID:        notificationID(model.NotificationError, ev.ID, now),
		Type:      model.NotificationError,
		Title:     titleExpired,
		Message:   msg,
		EventID:   ev.ID,
		Timestamp: now,
	}
}
