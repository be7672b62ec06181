package visibility

import (
	"strings"

	"github.com/nurpe/negotiations-service/internal/model"
)

// Scope is the computed predicate deciding which requests and notifications a
// principal may see. The same scope feeds both the request-search filter and
// the notification visibility check.
type Scope struct {
	All            bool
	Role           model.Role
	UserID         string
	Email          string
	OrganizationID *int64
	DepartmentID   *int64
	SelfOnly       bool
}

// ScopeFor resolves the privilege ladder for a principal. Admin is
// unrestricted; manager and coordinator are org/department scoped; employee is
// additionally limited to own requests. Unknown roles get the mid-level scope,
// never the unrestricted one.
func ScopeFor(p model.Principal) Scope {
	scope := Scope{
		Role:           p.Role,
		UserID:         p.UserID,
		Email:          p.Email,
		OrganizationID: p.OrganizationID,
		DepartmentID:   p.DepartmentID,
	}

	switch p.Role {
	case model.RoleAdmin:
		scope.All = true
	case model.RoleManager, model.RoleCoordinator:
		// org/department scoped
	case model.RoleEmployee:
		scope.SelfOnly = true
	default:
		// unrecognized role: treat as org/department scoped
	}
	return scope
}

// MatchesRequest reports whether the scope admits the given request.
func (s Scope) MatchesRequest(r model.Request) bool {
	if s.All {
		return true
	}
	if s.OrganizationID != nil && (r.OrganizationID == nil || *r.OrganizationID != *s.OrganizationID) {
		return false
	}
	if s.DepartmentID != nil && (r.DepartmentID == nil || *r.DepartmentID != *s.DepartmentID) {
		return false
	}
	if s.SelfOnly {
		return r.RequesterID == s.UserID ||
			(s.Email != "" && strings.EqualFold(r.RequesterEmail, s.Email))
	}
	return true
}

// RequestFilter renders the scope as a SQL condition over the requests table.
// An empty condition means no filtering.
func (s Scope) RequestFilter() (string, []interface{}) {
	if s.All {
		return "", nil
	}
	var conds []string
	var args []interface{}
	if s.OrganizationID != nil {
		conds = append(conds, "organization_id = ?")
		args = append(args, *s.OrganizationID)
	}
	if s.DepartmentID != nil {
		conds = append(conds, "department_id = ?")
		args = append(args, *s.DepartmentID)
	}
	if s.SelfOnly {
		conds = append(conds, "(requester_id = ? OR LOWER(requester_email) = LOWER(?))")
		args = append(args, s.UserID, s.Email)
	}
	return strings.Join(conds, " AND "), args
}

// MatchesNotification implements the recipient check: broadcasts are visible
// to everyone, user-targeted rows only to that user, and scope-targeted rows
// to principals whose role/org/department satisfy every set scoping field.
func (s Scope) MatchesNotification(n model.Notification) bool {
	if n.IsBroadcast() {
		return true
	}
	if n.RecipientUserID != nil {
		return *n.RecipientUserID == s.UserID
	}
	if s.All {
		return true
	}
	if n.RecipientRole != nil && *n.RecipientRole != s.Role {
		return false
	}
	if n.RecipientOrganizationID != nil && (s.OrganizationID == nil || *s.OrganizationID != *n.RecipientOrganizationID) {
		return false
	}
	if n.RecipientDepartmentID != nil && (s.DepartmentID == nil || *s.DepartmentID != *n.RecipientDepartmentID) {
		return false
	}
	return true
}

// NotificationFilter renders MatchesNotification as a SQL condition over the
// notifications table.
func (s Scope) NotificationFilter() (string, []interface{}) {
	if s.All {
		return "", nil
	}

	broadcast := "(recipient_user_id IS NULL AND recipient_role IS NULL AND recipient_department_id IS NULL AND recipient_organization_id IS NULL)"
	direct := "recipient_user_id = ?"

	scoped := []string{"recipient_user_id IS NULL"}
	args := []interface{}{s.UserID}

	scoped = append(scoped, "(recipient_role IS NULL OR recipient_role = ?)")
	args = append(args, string(s.Role))

	if s.OrganizationID != nil {
		scoped = append(scoped, "(recipient_organization_id IS NULL OR recipient_organization_id = ?)")
		args = append(args, *s.OrganizationID)
	} else {
		scoped = append(scoped, "recipient_organization_id IS NULL")
	}
	if s.DepartmentID != nil {
		scoped = append(scoped, "(recipient_department_id IS NULL OR recipient_department_id = ?)")
		args = append(args, *s.DepartmentID)
	} else {
		scoped = append(scoped, "recipient_department_id IS NULL")
	}

	cond := "(" + broadcast + " OR " + direct + " OR (" + strings.Join(scoped, " AND ") + "))"
	return cond, args
}
