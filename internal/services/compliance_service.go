package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

// Compliance check names, in report order.
const (
	CheckOrganizationalInfo   = "organizational_info"
	CheckLandTenure           = "land_tenure"
	CheckForestHistory        = "forest_history"
	CheckDeforestationDrivers = "deforestation_drivers"
	CheckSocialModel          = "social_model"
	CheckCarbonModel          = "carbon_model"
	CheckFinancialModel       = "financial_model"
	CheckTimeline             = "timeline"
	CheckKMLFile              = "kml_file"
	CheckCarbonEstimate       = "carbon_estimate"
	CheckVerification         = "verification_schedule"
	CheckOrganizationLinkage  = "organization_linkage"
	CheckVerraKML             = "verra_kml"
)

// Project types reported on the scorecard.
const (
	ProjectTypeGrant  = "perhutanan_sosial"
	ProjectTypeCarbon = "carbon_project"
)

// checkOrder fixes the report layout. Scoring is independent of order.
var checkOrder = []string{
	CheckOrganizationalInfo,
	CheckLandTenure,
	CheckForestHistory,
	CheckDeforestationDrivers,
	CheckSocialModel,
	CheckCarbonModel,
	CheckFinancialModel,
	CheckTimeline,
	CheckKMLFile,
	CheckCarbonEstimate,
	CheckVerification,
	CheckOrganizationLinkage,
	CheckVerraKML,
}

type complianceService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewComplianceService(repo repositories.Repository, evaluator *rbac.Evaluator, publisher events.EventPublisher, logger *slog.Logger) ComplianceService {
	return &complianceService{
		repo:      repo,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
	}
}

// CheckProject runs all document checks for a project and returns the
// scorecard. Checks run concurrently; a failing lookup marks its check
// incomplete rather than failing the whole report.
func (s *complianceService) CheckProject(ctx context.Context, projectID string, userID string) (*ComplianceReport, error) {
	if !s.evaluator.CanRunComplianceChecks(ctx, userID) {
		return nil, NewPermissionError(userID, projectID, "compliance", "check", "insufficient role permissions")
	}

	projectType, err := s.resolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return s.runReport(ctx, projectID, projectType, userID)
}

// CheckProjectOfType runs the scorecard for a project whose type the caller
// names up front. The project must exist under that type; a grant ID checked
// as a carbon project reports not found.
func (s *complianceService) CheckProjectOfType(ctx context.Context, projectID, projectType, userID string) (*ComplianceReport, error) {
	if !s.evaluator.CanRunComplianceChecks(ctx, userID) {
		return nil, NewPermissionError(userID, projectID, "compliance", "check", "insufficient role permissions")
	}

	if err := s.resolveProjectOfType(ctx, projectID, projectType); err != nil {
		return nil, err
	}

	return s.runReport(ctx, projectID, projectType, userID)
}

func (s *complianceService) runReport(ctx context.Context, projectID, projectType, userID string) (*ComplianceReport, error) {
	s.logger.Info("Running compliance check", "project_id", projectID, "user_id", userID)

	results := make(map[string]ComplianceCheck, len(checkOrder))
	var mu sync.Mutex
	var wg sync.WaitGroup

	run := func(name string, fn func(ctx context.Context) (bool, string)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, detail := fn(ctx)

			check := ComplianceCheck{Name: name, Status: CheckIncomplete, Detail: detail}
			if ok {
				check.Status = CheckComplete
				check.Points = checkPoints
			}

			mu.Lock()
			results[name] = check
			mu.Unlock()
		}()
	}

	run(CheckOrganizationalInfo, s.checkOrganizationalInfo(projectID))
	run(CheckLandTenure, s.checkLandTenure(projectID))
	run(CheckForestHistory, s.checkForestHistory(projectID))
	run(CheckDeforestationDrivers, s.checkDeforestationDrivers(projectID))
	run(CheckSocialModel, s.checkModel(projectID, models.ModelKindSocial))
	run(CheckCarbonModel, s.checkModel(projectID, models.ModelKindCarbon))
	run(CheckFinancialModel, s.checkModel(projectID, models.ModelKindFinancial))
	run(CheckTimeline, s.checkTimeline(projectID))
	run(CheckKMLFile, s.checkKMLFile(projectID, false))
	run(CheckCarbonEstimate, s.checkCarbonEstimate(projectID))
	run(CheckVerification, s.checkVerificationSchedule(projectID))
	run(CheckOrganizationLinkage, s.checkOrganizationLinkage(projectID))
	run(CheckVerraKML, s.checkKMLFile(projectID, true))

	wg.Wait()

	report := &ComplianceReport{
		ProjectID:     projectID,
		ProjectType:   projectType,
		MaxPoints:     len(checkOrder) * checkPoints,
		Checks:        make([]ComplianceCheck, 0, len(checkOrder)),
		MissingFields: []string{},
		NextActions:   []string{},
		CheckedAt:     time.Now().UTC(),
	}
	complete := 0
	for _, name := range checkOrder {
		check := results[name]
		report.TotalPoints += check.Points
		report.Checks = append(report.Checks, check)
		if check.Status == CheckComplete {
			complete++
			continue
		}
		report.MissingFields = append(report.MissingFields, check.Name)
		report.NextActions = append(report.NextActions, nextAction(check))
	}
	report.Score = int(math.Round(float64(report.TotalPoints) / float64(report.MaxPoints) * 100))
	report.Summary = fmt.Sprintf("%d of %d checks complete, score %d%%", complete, len(checkOrder), report.Score)

	event := events.NewEvent(events.EventComplianceChecked, map[string]interface{}{
		"project_id": projectID,
		"score":      report.Score,
		"checked_by": userID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish compliance event", "project_id", projectID, "error", err)
	}

	s.logger.Info("Compliance check finished",
		"project_id", projectID,
		"score", report.Score,
		"total_points", report.TotalPoints)

	return report, nil
}

func (s *complianceService) resolveProject(ctx context.Context, projectID string) (string, error) {
	if _, err := s.repo.Grant().GetByID(ctx, projectID); err == nil {
		return ProjectTypeGrant, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to resolve project: %w", err)
	}

	if _, err := s.repo.Carbon().GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrProjectNotFound
		}
		return "", fmt.Errorf("failed to resolve project: %w", err)
	}
	return ProjectTypeCarbon, nil
}

func (s *complianceService) resolveProjectOfType(ctx context.Context, projectID, projectType string) error {
	var err error
	switch projectType {
	case ProjectTypeGrant:
		_, err = s.repo.Grant().GetByID(ctx, projectID)
	case ProjectTypeCarbon:
		_, err = s.repo.Carbon().GetByID(ctx, projectID)
	default:
		return fmt.Errorf("%w: unknown project type %q", ErrValidationFailed, projectType)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to resolve project: %w", err)
	}
	return nil
}

// nextAction turns an incomplete check into a remediation line.
func nextAction(check ComplianceCheck) string {
	if check.Detail != "" {
		return fmt.Sprintf("%s: %s", check.Name, check.Detail)
	}
	return fmt.Sprintf("complete the %s section", check.Name)
}

// ===== INDIVIDUAL CHECKS =====
//
// Each check returns (complete, detail). Lookup errors log a warning and
// degrade to incomplete so a flaky table never inflates a score.

func (s *complianceService) checkOrganizationalInfo(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		profile, err := s.repo.Section().GetOrganizationalProfile(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckOrganizationalInfo, projectID, err, "organizational profile not filled in")
		}
		if profile.MemberCount <= 0 {
			return false, "member count not recorded"
		}
		return true, ""
	}
}

func (s *complianceService) checkLandTenure(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		tenure, err := s.repo.Section().GetLandTenure(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckLandTenure, projectID, err, "land tenure not documented")
		}
		if tenure.TenureType == nil || tenure.LegalBasis == nil {
			return false, "tenure type or legal basis missing"
		}
		return true, ""
	}
}

func (s *complianceService) checkForestHistory(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		count, err := s.repo.Section().CountForestStatusRecords(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckForestHistory, projectID, err, "forest history unavailable")
		}
		if count == 0 {
			return false, "no forest-cover history recorded"
		}
		return true, ""
	}
}

func (s *complianceService) checkDeforestationDrivers(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		count, err := s.repo.Section().CountDeforestationDrivers(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckDeforestationDrivers, projectID, err, "deforestation drivers unavailable")
		}
		if count == 0 {
			return false, "no deforestation drivers identified"
		}
		return true, ""
	}
}

func (s *complianceService) checkModel(projectID, kind string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		model, err := s.repo.Section().GetModel(ctx, projectID, kind)
		if err != nil {
			return s.missing(ctx, kind+"_model", projectID, err, kind+" model not submitted")
		}
		if len(model.Payload) == 0 {
			return false, kind + " model is empty"
		}
		return true, ""
	}
}

func (s *complianceService) checkTimeline(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		count, err := s.repo.Section().CountMilestones(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckTimeline, projectID, err, "timeline unavailable")
		}
		if count == 0 {
			return false, "no implementation milestones recorded"
		}
		return true, ""
	}
}

func (s *complianceService) checkKMLFile(projectID string, isVerra bool) func(ctx context.Context) (bool, string) {
	name := CheckKMLFile
	detail := "no boundary file uploaded"
	if isVerra {
		name = CheckVerraKML
		detail = "no Verra boundary file uploaded"
	}
	return func(ctx context.Context) (bool, string) {
		if _, err := s.repo.Section().GetLatestKMLFile(ctx, projectID, isVerra); err != nil {
			return s.missing(ctx, name, projectID, err, detail)
		}
		return true, ""
	}
}

func (s *complianceService) checkCarbonEstimate(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		estimate, err := s.repo.Carbon().GetEstimate(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckCarbonEstimate, projectID, err, "carbon estimate not submitted")
		}
		if estimate.BaselineTCO2e <= 0 || estimate.ProjectedTCO2e <= 0 {
			return false, "estimate figures incomplete"
		}
		return true, ""
	}
}

func (s *complianceService) checkVerificationSchedule(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		schedule, err := s.repo.Carbon().GetVerificationSchedule(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckVerification, projectID, err, "verification schedule not set")
		}
		if schedule.FrequencyMonths <= 0 {
			return false, "verification frequency not set"
		}
		return true, ""
	}
}

func (s *complianceService) checkOrganizationLinkage(projectID string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		count, err := s.repo.Organization().CountProjectLinks(ctx, projectID)
		if err != nil {
			return s.missing(ctx, CheckOrganizationLinkage, projectID, err, "organization links unavailable")
		}
		if count == 0 {
			return false, "no organization linked to project"
		}
		return true, ""
	}
}

// missing maps a lookup error to the incomplete result, logging anything
// other than a plain not-found.
func (s *complianceService) missing(ctx context.Context, check, projectID string, err error, detail string) (bool, string) {
	if !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Warn("compliance check lookup failed",
			"check", check,
			"project_id", projectID,
			"error", err)
	}
	return false, detail
}
