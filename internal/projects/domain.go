package projects

import "time"

// Status tracks the lifecycle of a project.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusClosed:
		return true
	}
	return false
}

// Project is a construction job with its site details.
type Project struct {
	ID               int64
	Name             string
	Number           string
	Description      string
	Status           Status
	Address          string
	City             string
	State            string
	ClientName       string
	ContractValue    float64
	StartDate        *time.Time
	TargetCompletion *time.Time
	CreatedBy        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Member is a user attached to a project's team.
type Member struct {
	UserID    int64
	Email     string
	FirstName string
	LastName  string
	Role      string
	AddedAt   time.Time
}
