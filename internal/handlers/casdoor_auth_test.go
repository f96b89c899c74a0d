package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/config"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

// ===== TEST FAKES =====

type stubProfileRepo struct {
	profiles map[string]*models.UserProfile
}

func (s *stubProfileRepo) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (s *stubProfileRepo) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return nil, repositories.ErrNotFound
}

func (s *stubProfileRepo) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.UserProfile, int64, error) {
	return nil, 0, nil
}

func (s *stubProfileRepo) Search(ctx context.Context, query string, filters repositories.ProfileFilters) ([]*models.UserProfile, int64, error) {
	return nil, 0, nil
}

func (s *stubProfileRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	return nil
}

// ===== HELPERS =====

func newTestAuthMiddleware(profiles map[string]*models.UserProfile) *CasdoorAuthMiddleware {
	repo := &stubProfileRepo{profiles: profiles}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	evaluator := rbac.NewEvaluator(repo, logger)
	return NewCasdoorAuthMiddleware(config.CasdoorConfig{Endpoint: "http://localhost:8000"}, repo, evaluator)
}

// setUser stands in for a validated session in guard tests.
func setUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Next()
	}
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

// ===== TESTS =====

func TestAuthMiddleware_NoSessionIs401(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := newTestAuthMiddleware(nil)

	router := gin.New()
	router.GET("/grants", mw.AuthMiddleware(), mw.RequirePermission(rbac.PermissionRead), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/grants", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if msg, _ := body["error"].(string); msg == "" {
		t.Errorf("expected an error field in the body, got %v", body)
	}
}

func TestRequirePermission_ViewerDeniedDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := newTestAuthMiddleware(map[string]*models.UserProfile{
		"viewer-1": {ID: "viewer-1", Email: "viewer@example.org", Role: models.RoleViewer},
	})

	router := gin.New()
	router.DELETE("/grants/:id", setUser("viewer-1"), mw.RequirePermission(rbac.PermissionDelete), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/grants/g-1", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer delete, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	msg, _ := body["error"].(string)
	if !strings.HasPrefix(msg, "Forbidden: ") {
		t.Errorf("expected error to start with %q, got %q", "Forbidden: ", msg)
	}
}

func TestRequirePermission_AdminReachesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := newTestAuthMiddleware(map[string]*models.UserProfile{
		"admin-1": {ID: "admin-1", Email: "admin@example.org", Role: models.RoleAdmin},
	})

	router := gin.New()
	router.DELETE("/grants/:id", setUser("admin-1"), mw.RequirePermission(rbac.PermissionDelete), func(c *gin.Context) {
		// The guard let the request through; the resource itself is missing.
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "grant not found"})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/grants/g-1", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected the admin request to reach the handler (404), got %d", rec.Code)
	}
}

func TestResolveProfile_UnknownUserRejected(t *testing.T) {
	mw := newTestAuthMiddleware(nil)

	_, err := mw.resolveProfile(context.Background(), &casdoorsdk.Claims{
		User: casdoorsdk.User{Id: "ghost", Email: "ghost@example.org", DisplayName: "Ghost"},
	})
	if err == nil {
		t.Fatal("expected an error for a token without a provisioned profile")
	}
}

func TestResolveProfile_KnownUserKeepsStoredRole(t *testing.T) {
	mw := newTestAuthMiddleware(map[string]*models.UserProfile{
		"u-1": {ID: "u-1", Email: "monev@example.org", Role: models.RoleMonev},
	})

	profile, err := mw.resolveProfile(context.Background(), &casdoorsdk.Claims{
		User: casdoorsdk.User{Id: "u-1", Email: "monev@example.org"},
	})
	if err != nil {
		t.Fatalf("resolveProfile returned error: %v", err)
	}
	if profile.Role != models.RoleMonev {
		t.Errorf("expected stored role %s, got %s", models.RoleMonev, profile.Role)
	}
}
