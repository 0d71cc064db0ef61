// Package field covers the small site-tracking records that share one
// surface: punch items, deliveries, constraints and the decision log.
package field

import "time"

// PunchStatus tracks a punch item from open to verified.
type PunchStatus string

const (
	PunchOpen       PunchStatus = "open"
	PunchInProgress PunchStatus = "in_progress"
	PunchCompleted  PunchStatus = "completed"
	PunchVerified   PunchStatus = "verified"
)

// Valid reports whether s is a known punch status.
func (s PunchStatus) Valid() bool {
	switch s {
	case PunchOpen, PunchInProgress, PunchCompleted, PunchVerified:
		return true
	}
	return false
}

// PunchItem is a closeout defect with location and responsibility.
type PunchItem struct {
	ID               int64
	ProjectID        int64
	Description      string
	Location         string
	ResponsibleParty string
	AssignedToID     int64
	Status           PunchStatus
	DueDate          *time.Time
	VerifiedAt       *time.Time
	VerifiedByID     int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Delivery tracks expected and received material.
type Delivery struct {
	ID              int64
	ProjectID       int64
	PONumber        string
	Vendor          string
	Description     string
	ExpectedDate    *time.Time
	ActualDate      *time.Time
	StagingLocation string
	ReceivedByID    int64
	HasDamage       bool
	HasShortage     bool
	IssueNotes      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Constraint records what must happen before work can proceed.
type Constraint struct {
	ID              int64
	ProjectID       int64
	Description     string
	ConstraintType  string
	Area            string
	OwnerName       string
	DueDate         *time.Time
	IsResolved      bool
	ResolvedAt      *time.Time
	ResolutionNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Decision is an append-only record of a direction taken on site.
type Decision struct {
	ID              int64
	ProjectID       int64
	DecisionDate    time.Time
	Decision        string
	ApprovedBy      string
	ApprovedByID    int64
	AffectsCost     bool
	AffectsSchedule bool
	ImpactDetails   string
	CreatedAt       time.Time
}
