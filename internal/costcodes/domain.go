package costcodes

import "time"

// CostCode is a project budget line used by timecards and expense
// tracking. Codes mirror the estimate, so removal is a deactivation
// rather than a hard delete.
type CostCode struct {
	ID             int64
	ProjectID      int64
	Code           string
	Description    string
	BudgetedHours  float64
	BudgetedAmount float64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
