package events

import (
	"eventdash/internal/apperr"
	"eventdash/internal/model"
)

// Field names reported in validation errors. They match the form field IDs
// of the dashboard so a form layer can attach messages directly.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldDate         = "date"
	FieldExpiryDate   = "expiryDate"
	FieldLocation     = "location"
	FieldMaxAttendees = "maxAttendees"
)

// ValidateDraft checks every field of d and reports all violations together.
// It returns nil or a *apperr.ValidationError.
func ValidateDraft(d model.Draft) error {
	return validate(normalizeDraft(d)).OrNil()
}

func validate(d model.Draft) *apperr.ValidationError {
	verr := &apperr.ValidationError{}

	if d.Title == "" {
		verr.Add(FieldTitle, "Title is required")
	}
	if d.Description == "" {
		verr.Add(FieldDescription, "Description is required")
	}
	if d.Date.IsZero() {
		verr.Add(FieldDate, "Date is required")
	}
	if d.ExpiryDate.IsZero() {
		verr.Add(FieldExpiryDate, "Expiry date is required")
	}
	if d.Location == "" {
		verr.Add(FieldLocation, "Location is required")
	}
	if d.MaxAttendees < 1 {
		verr.Add(FieldMaxAttendees, "Must allow at least 1 attendee")
	}
	if !d.Date.IsZero() && !d.ExpiryDate.IsZero() && !d.ExpiryDate.After(d.Date) {
		verr.Add(FieldExpiryDate, "Expiry date must be after event date")
	}

	return verr
}
