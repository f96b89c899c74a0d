package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"gorm.io/datatypes"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

// ===== TEST FAKES =====

type fakeProfileStore struct {
	profiles map[string]*models.UserProfile
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return p, nil
}

type fakeGrantRepo struct {
	grants map[string]*models.Grant
}

func (f *fakeGrantRepo) Create(ctx context.Context, g *models.Grant) error { return nil }
func (f *fakeGrantRepo) GetByID(ctx context.Context, id string) (*models.Grant, error) {
	if g, ok := f.grants[id]; ok {
		return g, nil
	}
	return nil, repositories.ErrNotFound
}
func (f *fakeGrantRepo) GetByIDWithDetails(ctx context.Context, id string) (*models.Grant, error) {
	return f.GetByID(ctx, id)
}
func (f *fakeGrantRepo) GetByCode(ctx context.Context, code string) (*models.Grant, error) {
	return nil, repositories.ErrNotFound
}
func (f *fakeGrantRepo) List(ctx context.Context, filters repositories.GrantFilters) ([]*models.Grant, int64, error) {
	return nil, 0, nil
}
func (f *fakeGrantRepo) Update(ctx context.Context, g *models.Grant) error { return nil }
func (f *fakeGrantRepo) UpdateStatus(ctx context.Context, id string, status models.GrantStatus) error {
	return nil
}
func (f *fakeGrantRepo) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeGrantRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}

type fakeCarbonRepo struct {
	projects map[string]*models.CarbonProject
	estimate *models.CarbonEstimate
	schedule *models.VerificationSchedule
	err      error
}

func (f *fakeCarbonRepo) Create(ctx context.Context, p *models.CarbonProject) error { return nil }
func (f *fakeCarbonRepo) GetByID(ctx context.Context, id string) (*models.CarbonProject, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, repositories.ErrNotFound
}
func (f *fakeCarbonRepo) GetByIDWithDetails(ctx context.Context, id string) (*models.CarbonProject, error) {
	return f.GetByID(ctx, id)
}
func (f *fakeCarbonRepo) GetByCode(ctx context.Context, code string) (*models.CarbonProject, error) {
	return nil, repositories.ErrNotFound
}
func (f *fakeCarbonRepo) List(ctx context.Context, filters repositories.CarbonFilters) ([]*models.CarbonProject, int64, error) {
	return nil, 0, nil
}
func (f *fakeCarbonRepo) Update(ctx context.Context, p *models.CarbonProject) error { return nil }
func (f *fakeCarbonRepo) UpdateStatus(ctx context.Context, id string, status models.CarbonProjectStatus) error {
	return nil
}
func (f *fakeCarbonRepo) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeCarbonRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}
func (f *fakeCarbonRepo) UpsertEstimate(ctx context.Context, e *models.CarbonEstimate) error {
	return nil
}
func (f *fakeCarbonRepo) GetEstimate(ctx context.Context, projectID string) (*models.CarbonEstimate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.estimate == nil {
		return nil, repositories.ErrNotFound
	}
	return f.estimate, nil
}
func (f *fakeCarbonRepo) UpsertVerificationSchedule(ctx context.Context, s *models.VerificationSchedule) error {
	return nil
}
func (f *fakeCarbonRepo) GetVerificationSchedule(ctx context.Context, projectID string) (*models.VerificationSchedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.schedule == nil {
		return nil, repositories.ErrNotFound
	}
	return f.schedule, nil
}

type fakeSectionRepo struct {
	orgProfile     *models.OrganizationalProfile
	tenure         *models.LandTenure
	forestCount    int64
	driverCount    int64
	projectModels  map[string]*models.ProjectModel
	milestoneCount int64
	kml            map[bool]*models.KMLFile
	err            error
}

func (f *fakeSectionRepo) UpsertOrganizationalProfile(ctx context.Context, p *models.OrganizationalProfile) error {
	return nil
}
func (f *fakeSectionRepo) GetOrganizationalProfile(ctx context.Context, projectID string) (*models.OrganizationalProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.orgProfile == nil {
		return nil, repositories.ErrNotFound
	}
	return f.orgProfile, nil
}
func (f *fakeSectionRepo) UpsertLandTenure(ctx context.Context, t *models.LandTenure) error {
	return nil
}
func (f *fakeSectionRepo) GetLandTenure(ctx context.Context, projectID string) (*models.LandTenure, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.tenure == nil {
		return nil, repositories.ErrNotFound
	}
	return f.tenure, nil
}
func (f *fakeSectionRepo) AddForestStatusRecord(ctx context.Context, r *models.ForestStatusRecord) error {
	return nil
}
func (f *fakeSectionRepo) ListForestStatusRecords(ctx context.Context, projectID string) ([]*models.ForestStatusRecord, error) {
	return nil, nil
}
func (f *fakeSectionRepo) CountForestStatusRecords(ctx context.Context, projectID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.forestCount, nil
}
func (f *fakeSectionRepo) AddDeforestationDriver(ctx context.Context, d *models.DeforestationDriver) error {
	return nil
}
func (f *fakeSectionRepo) ListDeforestationDrivers(ctx context.Context, projectID string) ([]*models.DeforestationDriver, error) {
	return nil, nil
}
func (f *fakeSectionRepo) CountDeforestationDrivers(ctx context.Context, projectID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.driverCount, nil
}
func (f *fakeSectionRepo) UpsertModel(ctx context.Context, m *models.ProjectModel) error { return nil }
func (f *fakeSectionRepo) GetModel(ctx context.Context, projectID, kind string) (*models.ProjectModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.projectModels[kind]; ok {
		return m, nil
	}
	return nil, repositories.ErrNotFound
}
func (f *fakeSectionRepo) AddMilestone(ctx context.Context, m *models.TimelineMilestone) error {
	return nil
}
func (f *fakeSectionRepo) ListMilestones(ctx context.Context, projectID string) ([]*models.TimelineMilestone, error) {
	return nil, nil
}
func (f *fakeSectionRepo) CountMilestones(ctx context.Context, projectID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.milestoneCount, nil
}
func (f *fakeSectionRepo) AddKMLFile(ctx context.Context, file *models.KMLFile) error { return nil }
func (f *fakeSectionRepo) GetLatestKMLFile(ctx context.Context, projectID string, isVerra bool) (*models.KMLFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if file, ok := f.kml[isVerra]; ok {
		return file, nil
	}
	return nil, repositories.ErrNotFound
}

type fakeOrgRepo struct {
	linkCount int64
}

func (f *fakeOrgRepo) Create(ctx context.Context, o *models.Organization) error { return nil }
func (f *fakeOrgRepo) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	return nil, repositories.ErrNotFound
}
func (f *fakeOrgRepo) List(ctx context.Context, filters repositories.OrganizationFilters) ([]*models.Organization, int64, error) {
	return nil, 0, nil
}
func (f *fakeOrgRepo) Update(ctx context.Context, o *models.Organization) error { return nil }
func (f *fakeOrgRepo) Delete(ctx context.Context, id string) error              { return nil }
func (f *fakeOrgRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}
func (f *fakeOrgRepo) LinkProject(ctx context.Context, link *models.ProjectOrganization) error {
	return nil
}
func (f *fakeOrgRepo) UnlinkProject(ctx context.Context, projectID, organizationID string) error {
	return nil
}
func (f *fakeOrgRepo) ListProjectLinks(ctx context.Context, projectID string) ([]*models.ProjectOrganization, error) {
	return nil, nil
}
func (f *fakeOrgRepo) CountProjectLinks(ctx context.Context, projectID string) (int64, error) {
	return f.linkCount, nil
}

// fakeRepo satisfies repositories.Repository with only the sub-repositories
// the compliance scorer touches.
type fakeRepo struct {
	grant   *fakeGrantRepo
	carbon  *fakeCarbonRepo
	section *fakeSectionRepo
	org     *fakeOrgRepo
}

func (f *fakeRepo) Profile() repositories.ProfileRepository           { return nil }
func (f *fakeRepo) Grant() repositories.GrantRepository               { return f.grant }
func (f *fakeRepo) Carbon() repositories.CarbonRepository             { return f.carbon }
func (f *fakeRepo) Section() repositories.SectionRepository           { return f.section }
func (f *fakeRepo) Organization() repositories.OrganizationRepository { return f.org }
func (f *fakeRepo) Finance() repositories.FinanceRepository           { return nil }
func (f *fakeRepo) Dashboard() repositories.DashboardRepository       { return nil }
func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

// ===== HELPERS =====

const testProjectID = "11111111-1111-1111-1111-111111111111"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvaluator(role models.UserRole) *rbac.Evaluator {
	store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
		"user-1": {ID: "user-1", Email: "user@example.org", Role: role},
	}}
	return rbac.NewEvaluator(store, testLogger())
}

func str(s string) *string { return &s }

// completeRepo returns a fake repository where every compliance section is
// filled in for testProjectID.
func completeRepo() *fakeRepo {
	payload := datatypes.JSON([]byte(`{"ok":true}`))
	return &fakeRepo{
		grant: &fakeGrantRepo{grants: map[string]*models.Grant{
			testProjectID: {ID: testProjectID, Code: "PS-001", Status: models.GrantStatusActive},
		}},
		carbon: &fakeCarbonRepo{
			projects: map[string]*models.CarbonProject{},
			estimate: &models.CarbonEstimate{ProjectID: testProjectID, BaselineTCO2e: 50000, ProjectedTCO2e: 20000},
			schedule: &models.VerificationSchedule{ProjectID: testProjectID, FrequencyMonths: 12},
		},
		section: &fakeSectionRepo{
			orgProfile:  &models.OrganizationalProfile{ProjectID: testProjectID, MemberCount: 120, WomenMembers: 45},
			tenure:      &models.LandTenure{ProjectID: testProjectID, TenureType: str("hutan_desa"), LegalBasis: str("SK.123/2020")},
			forestCount: 3,
			driverCount: 2,
			projectModels: map[string]*models.ProjectModel{
				models.ModelKindSocial:    {ProjectID: testProjectID, Kind: models.ModelKindSocial, Payload: payload},
				models.ModelKindCarbon:    {ProjectID: testProjectID, Kind: models.ModelKindCarbon, Payload: payload},
				models.ModelKindFinancial: {ProjectID: testProjectID, Kind: models.ModelKindFinancial, Payload: payload},
			},
			milestoneCount: 4,
			kml: map[bool]*models.KMLFile{
				false: {ProjectID: testProjectID, FileName: "boundary.kml"},
				true:  {ProjectID: testProjectID, FileName: "verra.kml", IsVerra: true},
			},
		},
		org: &fakeOrgRepo{linkCount: 1},
	}
}

func newComplianceService(repo *fakeRepo, role models.UserRole) (ComplianceService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewComplianceService(repo, testEvaluator(role), publisher, testLogger())
	return svc, publisher
}

// ===== TESTS =====

func TestCheckProject_AllSectionsComplete(t *testing.T) {
	svc, publisher := newComplianceService(completeRepo(), models.RoleAdmin)

	report, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("CheckProject returned error: %v", err)
	}

	if report.Score != 100 {
		t.Errorf("expected score 100, got %d", report.Score)
	}
	if report.TotalPoints != 1300 || report.MaxPoints != 1300 {
		t.Errorf("expected 1300/1300 points, got %d/%d", report.TotalPoints, report.MaxPoints)
	}
	if len(report.Checks) != 13 {
		t.Fatalf("expected 13 checks, got %d", len(report.Checks))
	}
	for _, check := range report.Checks {
		if check.Status != CheckComplete {
			t.Errorf("check %s: expected complete, got %s (%s)", check.Name, check.Status, check.Detail)
		}
	}

	if report.ProjectType != ProjectTypeGrant {
		t.Errorf("expected project type %s, got %s", ProjectTypeGrant, report.ProjectType)
	}
	if len(report.MissingFields) != 0 || len(report.NextActions) != 0 {
		t.Errorf("expected no missing fields, got %v / %v", report.MissingFields, report.NextActions)
	}
	if report.Summary == "" {
		t.Error("expected a summary line")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventComplianceChecked {
		t.Errorf("expected one compliance event, got %v", published)
	}
}

func TestCheckProject_BoundaryFileMissing(t *testing.T) {
	repo := completeRepo()
	delete(repo.section.kml, false)

	svc, _ := newComplianceService(repo, models.RoleAdmin)

	report, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("CheckProject returned error: %v", err)
	}

	// 1200 of 1300 points rounds to 92
	if report.Score != 92 {
		t.Errorf("expected score 92, got %d", report.Score)
	}
	if len(report.MissingFields) != 1 || report.MissingFields[0] != CheckKMLFile {
		t.Errorf("expected missing_fields [%s], got %v", CheckKMLFile, report.MissingFields)
	}
	if len(report.NextActions) != 1 {
		t.Errorf("expected one next action, got %v", report.NextActions)
	}
	for _, check := range report.Checks {
		want := CheckComplete
		if check.Name == CheckKMLFile {
			want = CheckIncomplete
		}
		if check.Status != want {
			t.Errorf("check %s: expected %s, got %s", check.Name, want, check.Status)
		}
	}
}

func TestCheckProject_NothingSubmitted(t *testing.T) {
	repo := &fakeRepo{
		grant: &fakeGrantRepo{grants: map[string]*models.Grant{
			testProjectID: {ID: testProjectID, Code: "PS-002"},
		}},
		carbon:  &fakeCarbonRepo{projects: map[string]*models.CarbonProject{}},
		section: &fakeSectionRepo{},
		org:     &fakeOrgRepo{},
	}
	svc, _ := newComplianceService(repo, models.RoleAdmin)

	report, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("CheckProject returned error: %v", err)
	}

	if report.Score != 0 || report.TotalPoints != 0 {
		t.Errorf("expected score 0 with 0 points, got score %d points %d", report.Score, report.TotalPoints)
	}
	for _, check := range report.Checks {
		if check.Status != CheckIncomplete {
			t.Errorf("check %s: expected incomplete, got %s", check.Name, check.Status)
		}
		if check.Detail == "" {
			t.Errorf("check %s: expected a detail message", check.Name)
		}
	}
}

func TestCheckProject_Deterministic(t *testing.T) {
	svc, _ := newComplianceService(completeRepo(), models.RoleAdmin)

	first, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Score != second.Score || first.TotalPoints != second.TotalPoints {
		t.Errorf("runs disagree: %d/%d vs %d/%d",
			first.Score, first.TotalPoints, second.Score, second.TotalPoints)
	}
	for i := range first.Checks {
		if first.Checks[i].Name != second.Checks[i].Name || first.Checks[i].Status != second.Checks[i].Status {
			t.Errorf("check %d differs between runs: %+v vs %+v", i, first.Checks[i], second.Checks[i])
		}
	}
}

func TestCheckProject_LookupErrorsDegradeToIncomplete(t *testing.T) {
	repo := completeRepo()
	repo.section.err = errors.New("connection refused")
	repo.carbon.err = errors.New("connection refused")

	svc, _ := newComplianceService(repo, models.RoleAdmin)

	report, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("CheckProject should not fail on lookup errors, got: %v", err)
	}

	// Only organization linkage still succeeds
	if report.TotalPoints != 100 {
		t.Errorf("expected 100 points, got %d", report.TotalPoints)
	}
}

func TestCheckProject_PermissionDenied(t *testing.T) {
	svc, publisher := newComplianceService(completeRepo(), models.RoleViewer)

	_, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("no event should be published on denial")
	}
}

func TestCheckProject_UnknownProject(t *testing.T) {
	svc, _ := newComplianceService(completeRepo(), models.RoleAdmin)

	_, err := svc.CheckProject(context.Background(), "does-not-exist", "user-1")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestCheckProject_ReportJSONKeys(t *testing.T) {
	repo := completeRepo()
	delete(repo.section.kml, false)

	svc, _ := newComplianceService(repo, models.RoleAdmin)
	report, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("CheckProject returned error: %v", err)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	for _, key := range []string{"project_id", "project_type", "compliance_score", "details", "missing_fields", "next_actions", "summary"} {
		if _, ok := body[key]; !ok {
			t.Errorf("report JSON is missing the %s field", key)
		}
	}
	if score, ok := body["compliance_score"].(float64); !ok || score != 92 {
		t.Errorf("expected compliance_score 92, got %v", body["compliance_score"])
	}
	if details, ok := body["details"].([]interface{}); !ok || len(details) != 13 {
		t.Errorf("expected 13 entries under details, got %v", body["details"])
	}
}

func TestCheckProjectOfType_TypeMismatchIsNotFound(t *testing.T) {
	// testProjectID is a grant; checking it as a carbon project must 404.
	svc, _ := newComplianceService(completeRepo(), models.RoleAdmin)

	_, err := svc.CheckProjectOfType(context.Background(), testProjectID, ProjectTypeCarbon, "user-1")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestCheckProjectOfType_UnknownTypeRejected(t *testing.T) {
	svc, _ := newComplianceService(completeRepo(), models.RoleAdmin)

	_, err := svc.CheckProjectOfType(context.Background(), testProjectID, "plantation", "user-1")
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestCheckProjectOfType_MatchesAutoResolution(t *testing.T) {
	svc, _ := newComplianceService(completeRepo(), models.RoleAdmin)

	auto, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
	if err != nil {
		t.Fatalf("CheckProject returned error: %v", err)
	}
	typed, err := svc.CheckProjectOfType(context.Background(), testProjectID, ProjectTypeGrant, "user-1")
	if err != nil {
		t.Fatalf("CheckProjectOfType returned error: %v", err)
	}

	if auto.Score != typed.Score || auto.ProjectType != typed.ProjectType {
		t.Errorf("entry points disagree: %d/%s vs %d/%s",
			auto.Score, auto.ProjectType, typed.Score, typed.ProjectType)
	}
}

func TestCheckProject_ScoreBounds(t *testing.T) {
	// Every subset of missing sections must stay within [0,100].
	scenarios := []func(*fakeRepo){
		func(r *fakeRepo) { r.section.orgProfile = nil },
		func(r *fakeRepo) { r.section.tenure = nil },
		func(r *fakeRepo) { r.section.forestCount = 0 },
		func(r *fakeRepo) { r.section.driverCount = 0 },
		func(r *fakeRepo) { delete(r.section.projectModels, models.ModelKindSocial) },
		func(r *fakeRepo) { delete(r.section.projectModels, models.ModelKindCarbon) },
		func(r *fakeRepo) { delete(r.section.projectModels, models.ModelKindFinancial) },
		func(r *fakeRepo) { r.section.milestoneCount = 0 },
		func(r *fakeRepo) { delete(r.section.kml, false) },
		func(r *fakeRepo) { r.carbon.estimate = nil },
		func(r *fakeRepo) { r.carbon.schedule = nil },
		func(r *fakeRepo) { r.org.linkCount = 0 },
		func(r *fakeRepo) { delete(r.section.kml, true) },
	}

	for i, mutate := range scenarios {
		repo := completeRepo()
		mutate(repo)

		svc, _ := newComplianceService(repo, models.RoleAdmin)
		report, err := svc.CheckProject(context.Background(), testProjectID, "user-1")
		if err != nil {
			t.Fatalf("scenario %d: %v", i, err)
		}
		if report.Score < 0 || report.Score > 100 {
			t.Errorf("scenario %d: score %d out of bounds", i, report.Score)
		}
		if report.Score != 92 {
			t.Errorf("scenario %d: one missing section should score 92, got %d", i, report.Score)
		}
	}
}
