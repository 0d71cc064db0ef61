package admin

import (
	"encoding/json"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
)

// DashboardStats is the operator overview of the whole installation.
type DashboardStats struct {
	TotalUsers       int64
	TotalCompanies   int64
	TotalProjects    int64
	ActiveUsersToday int64
	ActiveUsersWeek  int64
	TotalFeedback    int64
	PendingFeedback  int64
}

// UserOverview is the cross-company view of a user account.
type UserOverview struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	Role        authz.Role
	CompanyName string
	IsActive    bool
	LastLogin   *time.Time
	CreatedAt   time.Time
}

// CompanyOverview summarizes a company and its roster size.
type CompanyOverview struct {
	ID          int64
	Name        string
	Code        string
	MemberCount int64
	CreatedAt   time.Time
}

// AuditEntry is one row of the audit trail.
type AuditEntry struct {
	ID         int64
	ActorID    int64
	Action     string
	Entity     string
	EntityID   string
	ProjectID  int64
	Meta       json.RawMessage
	OccurredAt time.Time
}

// AuditFilter narrows audit trail listings.
type AuditFilter struct {
	ActorID int64
	Entity  string
}
