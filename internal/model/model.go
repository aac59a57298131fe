package model

import "time"

// Status is the moderation/lifecycle state of an event.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusExpired is terminal. The expiry engine sets it; imports may carry it.
	StatusExpired Status = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Event is a course-style listing with capacity, a start date and an expiry
// date after which it stops accepting registrations.
type Event struct {
	ID string

	Title       string
	Description string
	Location    string
	Image       string // optional image reference

	// Date is the event start; ExpiryDate closes registration.
	Date       time.Time
	ExpiryDate time.Time

	Attendees    int
	MaxAttendees int

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft holds the editable fields submitted by a form for create/update.
type Draft struct {
	Title        string
	Description  string
	Date         time.Time
	ExpiryDate   time.Time
	Location     string
	MaxAttendees int
	Image        string
}

// Draft returns the editable part of e, e.g. to prefill an edit form.
func (e Event) Draft() Draft {
	return Draft{
		Title:        e.Title,
		Description:  e.Description,
		Date:         e.Date,
		ExpiryDate:   e.ExpiryDate,
		Location:     e.Location,
		MaxAttendees: e.MaxAttendees,
		Image:        e.Image,
	}
}

// NotificationType classifies alerts in the notification feed.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning" // expiring within threshold
	NotificationError   NotificationType = "error"   // expiry just happened
)

// Notification is one alert in the feed.
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	EventID   string // lookup only; the event may since have been deleted
	Timestamp time.Time
	Read      bool
}
