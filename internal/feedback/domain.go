package feedback

import "time"

// Type classifies a feedback entry.
type Type string

const (
	TypeFeature Type = "feature"
	TypeBug     Type = "bug"
	TypeGeneral Type = "general"
)

// Valid reports whether the type is recognized.
func (t Type) Valid() bool {
	switch t {
	case TypeFeature, TypeBug, TypeGeneral:
		return true
	}
	return false
}

// Status tracks review progress. New entries always start as submitted.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusInReview  Status = "in_review"
	StatusPlanned   Status = "planned"
	StatusDone      Status = "done"
	StatusDeclined  Status = "declined"
)

// Valid reports whether the status is recognized.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusInReview, StatusPlanned, StatusDone, StatusDeclined:
		return true
	}
	return false
}

// Feedback is a user-submitted report from the field apps. Responses come
// from the admin surface.
type Feedback struct {
	ID          int64
	UserID      int64
	CompanyID   int64
	Type        Type
	Title       string
	Description string
	Priority    string
	Status      Status
	AppVersion  string
	DevNotes    string
	DevResponse string
	RespondedAt *time.Time
	CreatedAt   time.Time
}

// Filter narrows admin feedback listings.
type Filter struct {
	Status Status
	Type   Type
}
