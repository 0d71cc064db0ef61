package quotes

import "time"

// Status tracks a quote request through intake, pricing, and outcome.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusQuoted   Status = "quoted"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is a known quote status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusQuoted, StatusSent, StatusAccepted, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// QuoteRequest is a field-submitted request for pricing new work. Once
// accepted it can be converted into a project.
type QuoteRequest struct {
	ID                 int64
	Title              string
	Description        string
	Address            string
	City               string
	State              string
	CustomerName       string
	CustomerPhone      string
	CustomerEmail      string
	ScopeNotes         string
	Urgency            string
	Status             Status
	SubmittedByID      int64
	AssignedToID       int64
	QuotedAmount       float64
	QuoteNotes         string
	QuotedAt           *time.Time
	QuoteValidUntil    *time.Time
	ConvertedProjectID int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
