package companies

import (
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
)

// Default seat cap for newly created companies.
const defaultMaxUsers = 25

// Company is a contractor organization. Every user belongs to at most one
// company; the owner is the user who created it.
type Company struct {
	ID         int64
	Name       string
	Code       string
	InviteCode string
	Address    string
	City       string
	State      string
	Zip        string
	Phone      string
	Email      string
	OwnerID    int64
	MaxUsers   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Member is the roster view of a company user.
type Member struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Role      authz.Role
	IsActive  bool
	LastLogin *time.Time
}
