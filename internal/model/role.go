package model

import "strings"

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleManager     Role = "MANAGER"
	RoleCoordinator Role = "COORDINATOR"
	RoleEmployee    Role = "EMPLOYEE"
)

// Privilege returns the rank of a role on the access ladder. Higher means
// broader visibility. Unknown roles rank as mid-level, never as admin.
func (r Role) Privilege() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager, RoleCoordinator:
		return 2
	case RoleEmployee:
		return 1
	default:
		return 2
	}
}

func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleCoordinator:
		return RoleCoordinator
	case RoleEmployee:
		return RoleEmployee
	default:
		return Role(strings.ToUpper(strings.TrimSpace(raw)))
	}
}

type Principal struct {
	UserID         string
	Email          string
	FullName       string
	Role           Role
	OrganizationID *int64
	DepartmentID   *int64
}

func (p Principal) IsAdmin() bool       { return p.Role == RoleAdmin }
func (p Principal) IsManager() bool     { return p.Role == RoleManager }
func (p Principal) IsCoordinator() bool { return p.Role == RoleCoordinator }
func (p Principal) IsEmployee() bool    { return p.Role == RoleEmployee }
