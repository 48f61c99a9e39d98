package employee

import "time"

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can decide leave and read team reports
	RoleEmployee Role = "employee" // Regular employee
)

// IsManager reports whether the role may run manager-only operations.
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner
}

type Employee struct {
	ID           string
	EmployeeCode string
	FullName     string
	Email        string
	Department   string
	Position     *string
	Role         Role
	IsActive     bool
	SlackUserID  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated caller as supplied by the identity layer.
type Actor struct {
	EmployeeID string
	Role       Role
}

func (a Actor) IsManager() bool {
	return a.Role.IsManager()
}
