package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type fakeProfileRepo struct {
	profiles map[string]*models.UserProfile
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProfileRepo) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.UserProfile, int64, error) {
	out := make([]*models.UserProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		if filters.Role != nil && p.Role != *filters.Role {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProfileRepo) Search(ctx context.Context, query string, filters repositories.ProfileFilters) ([]*models.UserProfile, int64, error) {
	return f.List(ctx, filters)
}

func (f *fakeProfileRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	p, ok := f.profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Role = role
	return nil
}

// userFakeRepo layers a working profile repository over the shared fake.
type userFakeRepo struct {
	*fakeRepo
	profile *fakeProfileRepo
}

func (f *userFakeRepo) Profile() repositories.ProfileRepository { return f.profile }

func newUserService(t *testing.T, profiles map[string]*models.UserProfile) (UserService, *fakeProfileRepo, *events.MockEventPublisher) {
	t.Helper()

	profileRepo := &fakeProfileRepo{profiles: profiles}
	repo := &userFakeRepo{fakeRepo: completeRepo(), profile: profileRepo}
	publisher := events.NewMockEventPublisher(testLogger())

	// The evaluator reads the same store, so role changes take effect
	// on the next permission check.
	evaluator := rbac.NewEvaluator(profileRepo, testLogger())

	svc := NewUserService(repo, evaluator, publisher, testLogger(), validator.New())
	return svc, profileRepo, publisher
}

func adminAndViewer() map[string]*models.UserProfile {
	return map[string]*models.UserProfile{
		"admin-1":  {ID: "admin-1", Email: "admin@example.org", Role: models.RoleAdmin},
		"viewer-1": {ID: "viewer-1", Email: "viewer@example.org", Role: models.RoleViewer},
	}
}

func TestGetProfile_SelfAlwaysAllowed(t *testing.T) {
	svc, _, _ := newUserService(t, adminAndViewer())

	profile, err := svc.GetProfile(context.Background(), "viewer-1", "viewer-1")
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if profile.Email != "viewer@example.org" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestGetProfile_OtherUserRequiresAdmin(t *testing.T) {
	svc, _, _ := newUserService(t, adminAndViewer())

	if _, err := svc.GetProfile(context.Background(), "admin-1", "viewer-1"); !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}

	if _, err := svc.GetProfile(context.Background(), "viewer-1", "admin-1"); err != nil {
		t.Fatalf("admin should read any profile, got %v", err)
	}
}

func TestList_RequiresUserManagement(t *testing.T) {
	svc, _, _ := newUserService(t, adminAndViewer())

	if _, err := svc.List(context.Background(), repositories.ProfileFilters{}, "viewer-1"); !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}

	resp, err := svc.List(context.Background(), repositories.ProfileFilters{}, "admin-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected 2 profiles, got %d", resp.Total)
	}
}

func TestUpdateRole_PersistsAndPublishes(t *testing.T) {
	svc, profileRepo, publisher := newUserService(t, adminAndViewer())

	req := &UpdateUserRoleRequest{Role: models.RoleMonev}
	if err := svc.UpdateRole(context.Background(), "viewer-1", req, "admin-1"); err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}

	if profileRepo.profiles["viewer-1"].Role != models.RoleMonev {
		t.Errorf("role not persisted, got %s", profileRepo.profiles["viewer-1"].Role)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventProfileRoleChanged {
		t.Fatalf("expected one role change event, got %v", published)
	}
}

func TestUpdateRole_NoopWhenUnchanged(t *testing.T) {
	svc, _, publisher := newUserService(t, adminAndViewer())

	req := &UpdateUserRoleRequest{Role: models.RoleViewer}
	if err := svc.UpdateRole(context.Background(), "viewer-1", req, "admin-1"); err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("no event should be published when the role is unchanged")
	}
}

func TestUpdateRole_SelfDemotionBlocked(t *testing.T) {
	svc, profileRepo, _ := newUserService(t, adminAndViewer())

	req := &UpdateUserRoleRequest{Role: models.RoleViewer}
	err := svc.UpdateRole(context.Background(), "admin-1", req, "admin-1")

	var ruleErr *BusinessRuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected BusinessRuleError, got %v", err)
	}
	if profileRepo.profiles["admin-1"].Role != models.RoleAdmin {
		t.Error("admin role must not change on a blocked demotion")
	}
}

func TestUpdateRole_NonAdminDenied(t *testing.T) {
	svc, _, publisher := newUserService(t, adminAndViewer())

	req := &UpdateUserRoleRequest{Role: models.RoleAdmin}
	if err := svc.UpdateRole(context.Background(), "viewer-1", req, "viewer-1"); !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("no event should be published on denial")
	}
}

func TestUpdateRole_UnknownUser(t *testing.T) {
	svc, _, _ := newUserService(t, adminAndViewer())

	req := &UpdateUserRoleRequest{Role: models.RoleMonev}
	if err := svc.UpdateRole(context.Background(), "ghost", req, "admin-1"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestGetPermissions_SortedAndRoleScoped(t *testing.T) {
	svc, _, _ := newUserService(t, adminAndViewer())

	adminPerms, err := svc.GetPermissions(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("GetPermissions returned error: %v", err)
	}
	if len(adminPerms) != len(rbac.AllPermissions()) {
		t.Errorf("admin should hold every permission, got %d of %d",
			len(adminPerms), len(rbac.AllPermissions()))
	}
	for i := 1; i < len(adminPerms); i++ {
		if adminPerms[i-1] >= adminPerms[i] {
			t.Fatalf("permissions not sorted: %v", adminPerms)
		}
	}

	viewerPerms, err := svc.GetPermissions(context.Background(), "viewer-1")
	if err != nil {
		t.Fatalf("GetPermissions returned error: %v", err)
	}
	if len(viewerPerms) != 1 || viewerPerms[0] != rbac.PermissionRead {
		t.Errorf("viewer should only hold READ, got %v", viewerPerms)
	}
}
