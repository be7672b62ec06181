package visibility

import (
	"testing"

	"github.com/nurpe/negotiations-service/internal/model"
)

func int64p(v int64) *int64 { return &v }

func rolep(r model.Role) *model.Role { return &r }

func strp(s string) *string { return &s }

func request(org, dept *int64, requesterID, requesterEmail string) model.Request {
	return model.Request{
		RequestKey:     "REQ-1",
		RequesterID:    requesterID,
		RequesterEmail: requesterEmail,
		OrganizationID: org,
		DepartmentID:   dept,
	}
}

func TestScopeForPrivilegeLadder(t *testing.T) {
	cases := []struct {
		name         string
		role         model.Role
		wantAll      bool
		wantSelfOnly bool
	}{
		{"admin unrestricted", model.RoleAdmin, true, false},
		{"manager scoped", model.RoleManager, false, false},
		{"coordinator scoped", model.RoleCoordinator, false, false},
		{"employee self only", model.RoleEmployee, false, true},
		{"unknown role gets mid scope", model.Role("AUDITOR"), false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scope := ScopeFor(model.Principal{UserID: "u-1", Role: tc.role})
			if scope.All != tc.wantAll {
				t.Fatalf("All = %v, want %v", scope.All, tc.wantAll)
			}
			if scope.SelfOnly != tc.wantSelfOnly {
				t.Fatalf("SelfOnly = %v, want %v", scope.SelfOnly, tc.wantSelfOnly)
			}
		})
	}
}

func TestMatchesRequest(t *testing.T) {
	admin := ScopeFor(model.Principal{UserID: "a", Role: model.RoleAdmin})
	manager := ScopeFor(model.Principal{UserID: "m", Role: model.RoleManager, OrganizationID: int64p(5)})
	coordinator := ScopeFor(model.Principal{
		UserID: "c", Role: model.RoleCoordinator,
		OrganizationID: int64p(5), DepartmentID: int64p(3),
	})
	employee := ScopeFor(model.Principal{
		UserID: "e-1", Email: "emp@corp.test", Role: model.RoleEmployee,
		OrganizationID: int64p(5), DepartmentID: int64p(3),
	})

	cases := []struct {
		name  string
		scope Scope
		req   model.Request
		want  bool
	}{
		{"admin sees foreign org", admin, request(int64p(9), int64p(9), "x", ""), true},
		{"admin sees unscoped", admin, request(nil, nil, "", ""), true},
		{"manager same org any dept", manager, request(int64p(5), int64p(7), "x", ""), true},
		{"manager other org", manager, request(int64p(6), nil, "x", ""), false},
		{"manager unscoped request", manager, request(nil, nil, "x", ""), false},
		{"coordinator same org and dept", coordinator, request(int64p(5), int64p(3), "x", ""), true},
		{"coordinator same org other dept", coordinator, request(int64p(5), int64p(4), "x", ""), false},
		{"employee own by id", employee, request(int64p(5), int64p(3), "e-1", ""), true},
		{"employee own by email case insensitive", employee, request(int64p(5), int64p(3), "other", "EMP@corp.test"), true},
		{"employee colleague request", employee, request(int64p(5), int64p(3), "e-2", "x@corp.test"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.MatchesRequest(tc.req); got != tc.want {
				t.Fatalf("MatchesRequest = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchesNotification(t *testing.T) {
	admin := ScopeFor(model.Principal{UserID: "a", Role: model.RoleAdmin})
	manager := ScopeFor(model.Principal{
		UserID: "m", Role: model.RoleManager,
		OrganizationID: int64p(5), DepartmentID: int64p(3),
	})
	otherDept := ScopeFor(model.Principal{
		UserID: "m2", Role: model.RoleManager,
		OrganizationID: int64p(5), DepartmentID: int64p(4),
	})
	employee := ScopeFor(model.Principal{UserID: "e-1", Role: model.RoleEmployee})

	broadcast := model.Notification{}
	direct := model.Notification{RecipientUserID: strp("e-1")}
	managerOrg := model.Notification{
		RecipientRole:           rolep(model.RoleManager),
		RecipientOrganizationID: int64p(5),
	}
	coordinatorDept := model.Notification{
		RecipientRole:         rolep(model.RoleCoordinator),
		RecipientDepartmentID: int64p(3),
	}

	cases := []struct {
		name  string
		scope Scope
		n     model.Notification
		want  bool
	}{
		{"broadcast visible to admin", admin, broadcast, true},
		{"broadcast visible to employee", employee, broadcast, true},
		{"direct visible to recipient", employee, direct, true},
		{"direct hidden from others", manager, direct, false},
		{"admin sees any scoped row", admin, coordinatorDept, true},
		{"manager sees own role and org", manager, managerOrg, true},
		{"role mismatch hides scoped row", manager, coordinatorDept, false},
		{"department mismatch hides scoped row", otherDept,
			model.Notification{RecipientRole: rolep(model.RoleManager), RecipientDepartmentID: int64p(3)}, false},
		{"unset principal org fails org-scoped row", employee,
			model.Notification{RecipientRole: rolep(model.RoleEmployee), RecipientOrganizationID: int64p(5)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.MatchesNotification(tc.n); got != tc.want {
				t.Fatalf("MatchesNotification = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRequestFilter(t *testing.T) {
	admin := ScopeFor(model.Principal{UserID: "a", Role: model.RoleAdmin})
	if cond, args := admin.RequestFilter(); cond != "" || args != nil {
		t.Fatalf("admin filter = %q %v, want empty", cond, args)
	}

	coordinator := ScopeFor(model.Principal{
		UserID: "c", Role: model.RoleCoordinator,
		OrganizationID: int64p(5), DepartmentID: int64p(3),
	})
	cond, args := coordinator.RequestFilter()
	if cond != "organization_id = ? AND department_id = ?" {
		t.Fatalf("cond = %q", cond)
	}
	if len(args) != 2 || args[0] != int64(5) || args[1] != int64(3) {
		t.Fatalf("args = %v", args)
	}

	employee := ScopeFor(model.Principal{UserID: "e-1", Email: "e@corp.test", Role: model.RoleEmployee})
	cond, args = employee.RequestFilter()
	if cond != "(requester_id = ? OR LOWER(requester_email) = LOWER(?))" {
		t.Fatalf("cond = %q", cond)
	}
	if len(args) != 2 || args[0] != "e-1" || args[1] != "e@corp.test" {
		t.Fatalf("args = %v", args)
	}
}

func TestNotificationFilterArgs(t *testing.T) {
	admin := ScopeFor(model.Principal{UserID: "a", Role: model.RoleAdmin})
	if cond, args := admin.NotificationFilter(); cond != "" || args != nil {
		t.Fatalf("admin filter = %q %v, want empty", cond, args)
	}

	manager := ScopeFor(model.Principal{
		UserID: "m", Role: model.RoleManager, OrganizationID: int64p(5),
	})
	_, args := manager.NotificationFilter()
	want := []interface{}{"m", string(model.RoleManager), int64(5)}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestScopedFilterMatchesPredicate(t *testing.T) {
	// The SQL filter and the in-memory predicate must agree on which
	// notifications a scoped principal sees.
	manager := ScopeFor(model.Principal{
		UserID: "m", Role: model.RoleManager,
		OrganizationID: int64p(5), DepartmentID: int64p(3),
	})

	visible := []model.Notification{
		{},
		{RecipientUserID: strp("m")},
		{RecipientRole: rolep(model.RoleManager), RecipientOrganizationID: int64p(5), RecipientDepartmentID: int64p(3)},
		{RecipientOrganizationID: int64p(5)},
	}
	hidden := []model.Notification{
		{RecipientUserID: strp("someone-else")},
		{RecipientRole: rolep(model.RoleCoordinator), RecipientOrganizationID: int64p(5)},
		{RecipientOrganizationID: int64p(6)},
		{RecipientDepartmentID: int64p(4)},
	}

	for i, n := range visible {
		if !manager.MatchesNotification(n) {
			t.Fatalf("visible[%d] rejected: %+v", i, n)
		}
	}
	for i, n := range hidden {
		if manager.MatchesNotification(n) {
			t.Fatalf("hidden[%d] admitted: %+v", i, n)
		}
	}
}
