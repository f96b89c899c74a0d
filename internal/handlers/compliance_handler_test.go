package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
)

type stubComplianceService struct {
	report *services.ComplianceReport
	calls  int
}

func (s *stubComplianceService) CheckProject(ctx context.Context, projectID string, userID string) (*services.ComplianceReport, error) {
	s.calls++
	return s.report, nil
}

func (s *stubComplianceService) CheckProjectOfType(ctx context.Context, projectID, projectType, userID string) (*services.ComplianceReport, error) {
	s.calls++
	return s.report, nil
}

func newComplianceTestRouter(svc services.ComplianceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewComplianceHandler(svc, logger)

	router := gin.New()
	router.GET("/api/v1/compliance/check", setUser("u-1"), handler.CheckCompliance)
	return router
}

func TestCheckCompliance_MissingProjectIDIs400(t *testing.T) {
	svc := &stubComplianceService{}
	router := newComplianceTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/compliance/check?type=perhutanan_sosial", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without project_id, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service should not run on bad query params")
	}
}

func TestCheckCompliance_UnknownTypeIs400(t *testing.T) {
	svc := &stubComplianceService{}
	router := newComplianceTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/compliance/check?project_id=p-1&type=plantation", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service should not run on bad query params")
	}
	body := decodeErrorBody(t, rec)
	if msg, _ := body["error"].(string); msg == "" {
		t.Errorf("expected an error field in the body, got %v", body)
	}
}

func TestCheckCompliance_ResponseContract(t *testing.T) {
	svc := &stubComplianceService{report: &services.ComplianceReport{
		ProjectID:   "p-1",
		ProjectType: services.ProjectTypeGrant,
		Score:       92,
		TotalPoints: 1200,
		MaxPoints:   1300,
		Checks: []services.ComplianceCheck{
			{Name: "kml_file", Status: services.CheckIncomplete, Detail: "no boundary file uploaded"},
		},
		MissingFields: []string{"kml_file"},
		NextActions:   []string{"kml_file: no boundary file uploaded"},
		Summary:       "12 of 13 checks complete, score 92%",
	}}
	router := newComplianceTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/compliance/check?project_id=p-1&type=perhutanan_sosial", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	for _, key := range []string{"project_id", "project_type", "compliance_score", "details", "missing_fields", "next_actions", "summary"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response is missing the %s field; got keys %v", key, keysOf(body))
		}
	}
	if score, ok := body["compliance_score"].(float64); !ok || score != 92 {
		t.Errorf("expected compliance_score 92, got %v", body["compliance_score"])
	}
}

func keysOf(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
