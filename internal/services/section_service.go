package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type sectionService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSectionService(repo repositories.Repository, evaluator *rbac.Evaluator, logger *slog.Logger, validator *validator.Validator) SectionService {
	return &sectionService{
		repo:      repo,
		evaluator: evaluator,
		logger:    logger,
		validator: validator,
	}
}

// resolveProject confirms the project exists as a grant or carbon project.
func (s *sectionService) resolveProject(ctx context.Context, projectID string) error {
	if _, err := s.repo.Grant().GetByID(ctx, projectID); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to resolve project: %w", err)
	}

	if _, err := s.repo.Carbon().GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to resolve project: %w", err)
	}
	return nil
}

func (s *sectionService) checkWrite(ctx context.Context, projectID, section, userID string) error {
	if !s.evaluator.CanEdit(ctx, userID) {
		return NewPermissionError(userID, projectID, section, "upsert", "insufficient role permissions")
	}
	return s.resolveProject(ctx, projectID)
}

func (s *sectionService) checkRead(ctx context.Context, projectID, section, userID string) error {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return NewPermissionError(userID, projectID, section, "read", "insufficient role permissions")
	}
	return nil
}

// ===== ORGANIZATIONAL PROFILE =====

func (s *sectionService) UpsertOrganizationalProfile(ctx context.Context, projectID string, req *OrganizationalProfileRequest, userID string) (*models.OrganizationalProfile, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "organizational_profile", userID); err != nil {
		return nil, err
	}

	if req.WomenMembers > req.MemberCount {
		return nil, NewBusinessRuleError("member_counts", "women members cannot exceed total members")
	}

	profile := &models.OrganizationalProfile{
		ProjectID:       projectID,
		LegalStatus:     req.LegalStatus,
		GovernanceBody:  req.GovernanceBody,
		MemberCount:     req.MemberCount,
		WomenMembers:    req.WomenMembers,
		DecisionProcess: req.DecisionProcess,
	}

	if err := s.repo.Section().UpsertOrganizationalProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert organizational profile: %w", err)
	}
	return profile, nil
}

func (s *sectionService) GetOrganizationalProfile(ctx context.Context, projectID string, userID string) (*models.OrganizationalProfile, error) {
	if err := s.checkRead(ctx, projectID, "organizational_profile", userID); err != nil {
		return nil, err
	}

	profile, err := s.repo.Section().GetOrganizationalProfile(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get organizational profile: %w", err)
	}
	return profile, nil
}

// ===== LAND TENURE =====

func (s *sectionService) UpsertLandTenure(ctx context.Context, projectID string, req *LandTenureRequest, userID string) (*models.LandTenure, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "land_tenure", userID); err != nil {
		return nil, err
	}

	tenure := &models.LandTenure{
		ProjectID:     projectID,
		TenureType:    req.TenureType,
		LegalBasis:    req.LegalBasis,
		ConflictNotes: req.ConflictNotes,
		ResolvedAt:    req.ResolvedAt,
	}

	if err := s.repo.Section().UpsertLandTenure(ctx, tenure); err != nil {
		return nil, fmt.Errorf("failed to upsert land tenure: %w", err)
	}
	return tenure, nil
}

func (s *sectionService) GetLandTenure(ctx context.Context, projectID string, userID string) (*models.LandTenure, error) {
	if err := s.checkRead(ctx, projectID, "land_tenure", userID); err != nil {
		return nil, err
	}

	tenure, err := s.repo.Section().GetLandTenure(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get land tenure: %w", err)
	}
	return tenure, nil
}

// ===== FOREST STATUS HISTORY =====

func (s *sectionService) AddForestStatusRecord(ctx context.Context, projectID string, req *ForestStatusRecordRequest, userID string) (*models.ForestStatusRecord, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "forest_status", userID); err != nil {
		return nil, err
	}

	record := &models.ForestStatusRecord{
		ProjectID:     projectID,
		Year:          req.Year,
		ForestCoverHa: req.ForestCoverHa,
		DegradedHa:    req.DegradedHa,
		Source:        req.Source,
	}

	if err := s.repo.Section().AddForestStatusRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to add forest status record: %w", err)
	}
	return record, nil
}

func (s *sectionService) ListForestStatusRecords(ctx context.Context, projectID string, userID string) ([]*models.ForestStatusRecord, error) {
	if err := s.checkRead(ctx, projectID, "forest_status", userID); err != nil {
		return nil, err
	}

	records, err := s.repo.Section().ListForestStatusRecords(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forest status records: %w", err)
	}
	return records, nil
}

// ===== DEFORESTATION DRIVERS =====

func (s *sectionService) AddDeforestationDriver(ctx context.Context, projectID string, req *DeforestationDriverRequest, userID string) (*models.DeforestationDriver, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "deforestation_driver", userID); err != nil {
		return nil, err
	}

	driver := &models.DeforestationDriver{
		ProjectID:   projectID,
		Driver:      req.Driver,
		Severity:    req.Severity,
		Mitigation:  req.Mitigation,
		Description: req.Description,
	}
	if driver.Severity == "" {
		driver.Severity = "medium"
	}

	if err := s.repo.Section().AddDeforestationDriver(ctx, driver); err != nil {
		return nil, fmt.Errorf("failed to add deforestation driver: %w", err)
	}
	return driver, nil
}

func (s *sectionService) ListDeforestationDrivers(ctx context.Context, projectID string, userID string) ([]*models.DeforestationDriver, error) {
	if err := s.checkRead(ctx, projectID, "deforestation_driver", userID); err != nil {
		return nil, err
	}

	drivers, err := s.repo.Section().ListDeforestationDrivers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deforestation drivers: %w", err)
	}
	return drivers, nil
}

// ===== PROJECT MODELS =====

func (s *sectionService) UpsertModel(ctx context.Context, projectID string, req *ProjectModelRequest, userID string) (*models.ProjectModel, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "project_model", userID); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model payload: %w", err)
	}

	model := &models.ProjectModel{
		ProjectID: projectID,
		Kind:      req.Kind,
		Payload:   datatypes.JSON(payload),
		Summary:   req.Summary,
	}

	if err := s.repo.Section().UpsertModel(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to upsert project model: %w", err)
	}
	return model, nil
}

func (s *sectionService) GetModel(ctx context.Context, projectID, kind string, userID string) (*models.ProjectModel, error) {
	if err := s.checkRead(ctx, projectID, "project_model", userID); err != nil {
		return nil, err
	}

	model, err := s.repo.Section().GetModel(ctx, projectID, kind)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get project model: %w", err)
	}
	return model, nil
}

// ===== TIMELINE =====

func (s *sectionService) AddMilestone(ctx context.Context, projectID string, req *MilestoneRequest, userID string) (*models.TimelineMilestone, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "timeline", userID); err != nil {
		return nil, err
	}

	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, NewBusinessRuleError("milestone_dates", "end date cannot precede start date")
	}

	milestone := &models.TimelineMilestone{
		ProjectID: projectID,
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    req.Status,
	}
	if milestone.Status == "" {
		milestone.Status = "planned"
	}

	if err := s.repo.Section().AddMilestone(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to add milestone: %w", err)
	}
	return milestone, nil
}

func (s *sectionService) ListMilestones(ctx context.Context, projectID string, userID string) ([]*models.TimelineMilestone, error) {
	if err := s.checkRead(ctx, projectID, "timeline", userID); err != nil {
		return nil, err
	}

	milestones, err := s.repo.Section().ListMilestones(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

// ===== KML FILES =====

func (s *sectionService) AddKMLFile(ctx context.Context, projectID string, req *KMLFileRequest, userID string) (*models.KMLFile, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWrite(ctx, projectID, "kml_file", userID); err != nil {
		return nil, err
	}

	file := &models.KMLFile{
		ProjectID:  projectID,
		FileName:   req.FileName,
		StorageKey: req.StorageKey,
		SizeBytes:  req.SizeBytes,
		IsVerra:    req.IsVerra,
		UploadedBy: userID,
	}

	if err := s.repo.Section().AddKMLFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to add kml file: %w", err)
	}
	return file, nil
}
