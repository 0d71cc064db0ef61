package servicecalls

import "time"

// Priority orders the dispatch queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is recognized.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ServiceCall is a dispatched callback or warranty visit. A call may
// reference a project but often stands alone, so routes gate on the
// service permissions without a membership check.
type ServiceCall struct {
	ID              int64
	ProjectID       int64
	CallNumber      string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	IssueDescription string
	Priority        Priority
	AssignedToID    int64
	ScheduledAt     *time.Time
	IsCompleted     bool
	CompletedAt     *time.Time
	ResolutionNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filter narrows call listings.
type Filter struct {
	AssignedToID int64
	Completed    *bool
}
