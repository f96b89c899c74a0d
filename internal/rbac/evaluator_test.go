package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lestari-hub/forestry-service/internal/models"
)

// fakeProfileStore serves profiles from a map and can simulate lookup
// failures.
type fakeProfileStore struct {
	profiles map[string]*models.UserProfile
	err      error
	calls    int
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	profile, ok := f.profiles[id]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return profile, nil
}

func newTestEvaluator(store *fakeProfileStore) *Evaluator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEvaluator(store, logger)
}

func profileWith(role models.UserRole) *models.UserProfile {
	return &models.UserProfile{ID: "u1", Role: role, Email: "u1@example.org"}
}

func TestHasPermission_DefaultDeny(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		store *fakeProfileStore
		user  string
	}{
		{
			name:  "missing profile",
			store: &fakeProfileStore{profiles: map[string]*models.UserProfile{}},
			user:  "ghost",
		},
		{
			name:  "lookup error",
			store: &fakeProfileStore{err: errors.New("connection refused")},
			user:  "u1",
		},
		{
			name:  "empty user id",
			store: &fakeProfileStore{profiles: map[string]*models.UserProfile{}},
			user:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator(tt.store)
			for _, perm := range AllPermissions() {
				if e.HasPermission(ctx, perm, tt.user) {
					t.Errorf("HasPermission(%s) = true, want deny", perm)
				}
			}
		})
	}
}

func TestHasPermission_RoleMembership(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		role models.UserRole
		perm Permission
		want bool
	}{
		{"admin can delete", models.RoleAdmin, PermissionDelete, true},
		{"viewer cannot delete", models.RoleViewer, PermissionDelete, false},
		{"viewer can read", models.RoleViewer, PermissionRead, true},
		{"carbon specialist manages carbon projects", models.RoleCarbonSpecialist, PermissionCarbonProjects, true},
		{"finance operational cannot manage budgets", models.RoleFinanceOperational, PermissionFinancialBudgetManage, false},
		{"finance operational records transactions", models.RoleFinanceOperational, PermissionFinancialTransactionManage, true},
		{"investor views financials", models.RoleInvestor, PermissionFinancialView, true},
		{"investor cannot edit", models.RoleInvestor, PermissionEdit, false},
		{"monev officer runs compliance checks", models.RoleMonevOfficer, PermissionComplianceCheck, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
				"u1": profileWith(tt.role),
			}}
			e := newTestEvaluator(store)
			if got := e.HasPermission(ctx, tt.perm, "u1"); got != tt.want {
				t.Errorf("HasPermission(%s) for role %s = %v, want %v", tt.perm, tt.role, got, tt.want)
			}
		})
	}
}

func TestHasPermission_TableDrivenEquivalence(t *testing.T) {
	// HasPermission(DELETE) must agree with the explicit role-list form for
	// every role.
	ctx := context.Background()
	for _, role := range models.AllRoles {
		store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
			"u1": profileWith(role),
		}}
		e := newTestEvaluator(store)

		byName := e.HasPermission(ctx, PermissionDelete, "u1")
		byList := e.CheckUserRole(ctx, []models.UserRole{models.RoleAdmin}, "u1")
		if byName != byList {
			t.Errorf("role %s: HasPermission(DELETE)=%v, CheckUserRole([admin])=%v", role, byName, byList)
		}
	}
}

func TestCheckUserRole_Deterministic(t *testing.T) {
	ctx := context.Background()
	store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
		"u1": profileWith(models.RoleMonev),
	}}
	e := newTestEvaluator(store)

	required := []models.UserRole{models.RoleMonev, models.RoleAdmin}
	first := e.CheckUserRole(ctx, required, "u1")
	second := e.CheckUserRole(ctx, required, "u1")
	if first != second {
		t.Errorf("CheckUserRole not deterministic: %v then %v", first, second)
	}
	if !first {
		t.Error("monev should satisfy [monev admin]")
	}
}

func TestGetUserRole(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves role", func(t *testing.T) {
		store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
			"u1": profileWith(models.RoleProgramPlanner),
		}}
		e := newTestEvaluator(store)
		if got := e.GetUserRole(ctx, "u1"); got != models.RoleProgramPlanner {
			t.Errorf("GetUserRole() = %q, want program_planner", got)
		}
	})

	t.Run("empty on failure", func(t *testing.T) {
		store := &fakeProfileStore{err: errors.New("boom")}
		e := newTestEvaluator(store)
		if got := e.GetUserRole(ctx, "u1"); got != "" {
			t.Errorf("GetUserRole() = %q, want empty", got)
		}
	})
}

func TestGetUserPermissions(t *testing.T) {
	ctx := context.Background()
	store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
		"u1": profileWith(models.RoleViewer),
	}}
	e := newTestEvaluator(store)

	perms := e.GetUserPermissions(ctx, "u1")
	if len(perms) != len(AllPermissions()) {
		t.Fatalf("expected %d entries, got %d", len(AllPermissions()), len(perms))
	}
	if !perms[PermissionRead] {
		t.Error("viewer should have READ")
	}
	if perms[PermissionDelete] {
		t.Error("viewer should not have DELETE")
	}
	if store.calls != 1 {
		t.Errorf("expected a single profile lookup, got %d", store.calls)
	}
}

func TestConveniencePredicates(t *testing.T) {
	ctx := context.Background()
	store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
		"admin":   {ID: "admin", Role: models.RoleAdmin},
		"carbon":  {ID: "carbon", Role: models.RoleCarbonSpecialist},
		"finance": {ID: "finance", Role: models.RoleFinanceManager},
	}}
	e := newTestEvaluator(store)

	if !e.IsAdmin(ctx, "admin") {
		t.Error("IsAdmin(admin) = false")
	}
	if e.IsAdmin(ctx, "carbon") {
		t.Error("IsAdmin(carbon) = true")
	}
	if !e.CanManageCarbonProjects(ctx, "carbon") {
		t.Error("carbon specialist should manage carbon projects")
	}
	if !e.CanManageBudgets(ctx, "finance") {
		t.Error("finance manager should manage budgets")
	}
	if e.CanDelete(ctx, "finance") {
		t.Error("finance manager should not delete")
	}
}
