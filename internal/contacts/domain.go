package contacts

import "time"

// Type classifies a contact.
type Type string

const (
	TypeCustomer    Type = "customer"
	TypeVendor      Type = "vendor"
	TypeGC          Type = "gc"
	TypeSiteContact Type = "site_contact"
	TypeArchitect   Type = "architect"
	TypeEngineer    Type = "engineer"
	TypeInspector   Type = "inspector"
	TypeOwner       Type = "owner"
)

// Valid reports whether t is a known contact type.
func (t Type) Valid() bool {
	switch t {
	case TypeCustomer, TypeVendor, TypeGC, TypeSiteContact, TypeArchitect, TypeEngineer, TypeInspector, TypeOwner:
		return true
	}
	return false
}

// Contact is a reusable company-wide directory entry. Contacts are not
// scoped to a project.
type Contact struct {
	ID          int64
	ContactType Type
	CompanyName string
	FirstName   string
	LastName    string
	Title       string
	Email       string
	Phone       string
	Mobile      string
	Address     string
	City        string
	State       string
	LastUsedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
