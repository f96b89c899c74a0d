package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type carbonService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCarbonService(repo repositories.Repository, evaluator *rbac.Evaluator, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) CarbonService {
	return &carbonService{
		repo:      repo,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *carbonService) Create(ctx context.Context, req *CreateCarbonRequest, userID string) (*CarbonResponse, error) {
	s.logger.Info("Creating carbon project", "user_id", userID, "code", req.Code)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageCarbonProjects(ctx, userID) {
		return nil, NewPermissionError(userID, "", "carbon_project", "create", "insufficient role permissions")
	}

	exists, err := s.repo.Carbon().ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check carbon project code uniqueness: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("carbon project code %s: %w", req.Code, ErrDuplicateCode)
	}

	// A carbon project may layer on top of an existing grant
	if req.GrantID != nil {
		if _, err := s.repo.Grant().GetByID(ctx, *req.GrantID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrGrantNotFound
			}
			return nil, fmt.Errorf("failed to resolve linked grant: %w", err)
		}
	}

	project := &models.CarbonProject{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		Status:      models.CarbonStatusDesign,
		Regency:     req.Regency,
		Province:    req.Province,
		AreaHa:      req.AreaHa,
		Standard:    req.Standard,
		Methodology: req.Methodology,
		GrantID:     req.GrantID,
		Description: req.Description,
		CreatedBy:   userID,
	}
	if project.Standard == "" {
		project.Standard = "verra_vcs"
	}

	if err := s.repo.Carbon().Create(ctx, project); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("carbon project code %s: %w", req.Code, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to create carbon project: %w", err)
	}

	s.logger.Info("Carbon project created successfully", "project_id", project.ID, "code", project.Code)

	return s.buildCarbonResponse(ctx, project, userID), nil
}

func (s *carbonService) GetByID(ctx context.Context, id string, userID string) (*CarbonResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, id, "carbon_project", "read", "insufficient role permissions")
	}

	project, err := s.repo.Carbon().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCarbonNotFound
		}
		return nil, fmt.Errorf("failed to get carbon project: %w", err)
	}

	return s.buildCarbonResponse(ctx, project, userID), nil
}

func (s *carbonService) GetByIDWithDetails(ctx context.Context, id string, userID string) (*CarbonResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, id, "carbon_project", "read", "insufficient role permissions")
	}

	project, err := s.repo.Carbon().GetByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCarbonNotFound
		}
		return nil, fmt.Errorf("failed to get carbon project with details: %w", err)
	}

	return s.buildCarbonResponse(ctx, project, userID), nil
}

func (s *carbonService) Update(ctx context.Context, id string, req *UpdateCarbonRequest, userID string) (*CarbonResponse, error) {
	s.logger.Info("Updating carbon project", "project_id", id, "user_id", userID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageCarbonProjects(ctx, userID) {
		return nil, NewPermissionError(userID, id, "carbon_project", "update", "insufficient role permissions")
	}

	project, err := s.repo.Carbon().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCarbonNotFound
		}
		return nil, fmt.Errorf("failed to get carbon project: %w", err)
	}

	if project.Status == models.CarbonStatusRetired {
		return nil, NewBusinessRuleError("carbon_retired", "retired projects cannot be modified")
	}

	s.applyCarbonUpdates(project, req)

	if err := s.repo.Carbon().Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update carbon project: %w", err)
	}

	return s.buildCarbonResponse(ctx, project, userID), nil
}

func (s *carbonService) UpdateStatus(ctx context.Context, id string, req *CarbonStatusRequest, userID string) error {
	s.logger.Info("Updating carbon project status", "project_id", id, "user_id", userID, "status", req.Status)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return errs
	}

	if !s.evaluator.CanManageCarbonProjects(ctx, userID) {
		return NewPermissionError(userID, id, "carbon_project", "update_status", "insufficient role permissions")
	}

	project, err := s.repo.Carbon().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCarbonNotFound
		}
		return fmt.Errorf("failed to get carbon project: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateCarbonStatusTransition(project.Status, req.Status); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Carbon().UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCarbonNotFound
		}
		return fmt.Errorf("failed to update carbon project status: %w", err)
	}

	return nil
}

func (s *carbonService) Delete(ctx context.Context, id string, userID string) error {
	s.logger.Info("Deleting carbon project", "project_id", id, "user_id", userID)

	if !s.evaluator.CanDelete(ctx, userID) {
		return NewPermissionError(userID, id, "carbon_project", "delete", "insufficient role permissions")
	}

	project, err := s.repo.Carbon().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCarbonNotFound
		}
		return fmt.Errorf("failed to get carbon project: %w", err)
	}

	// Registered and later stages carry registry obligations
	switch project.Status {
	case models.CarbonStatusRegistered, models.CarbonStatusVerification, models.CarbonStatusIssuance:
		return NewBusinessRuleError("carbon_registered", "cannot delete a registered carbon project")
	}

	if err := s.repo.Carbon().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCarbonNotFound
		}
		return fmt.Errorf("failed to delete carbon project: %w", err)
	}

	s.logger.Info("Carbon project deleted", "project_id", id)
	return nil
}

func (s *carbonService) List(ctx context.Context, filters repositories.CarbonFilters, userID string) (*CarbonListResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, "", "carbon_project", "list", "insufficient role permissions")
	}

	projects, total, err := s.repo.Carbon().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list carbon projects: %w", err)
	}

	canEdit := s.evaluator.CanManageCarbonProjects(ctx, userID)
	canDelete := s.evaluator.CanDelete(ctx, userID)

	responses := make([]*CarbonResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, &CarbonResponse{
			CarbonProject: project,
			CanEdit:       canEdit,
			CanDelete:     canDelete,
		})
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &CarbonListResponse{
		Projects: responses,
		Total:    total,
		Page:     page,
		Size:     len(responses),
	}, nil
}

// ===== ESTIMATE AND VERIFICATION =====

func (s *carbonService) SetEstimate(ctx context.Context, projectID string, req *CarbonEstimateRequest, userID string) (*models.CarbonEstimate, error) {
	s.logger.Info("Setting carbon estimate", "project_id", projectID, "user_id", userID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageCarbonProjects(ctx, userID) {
		return nil, NewPermissionError(userID, projectID, "carbon_estimate", "upsert", "insufficient role permissions")
	}

	if _, err := s.repo.Carbon().GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCarbonNotFound
		}
		return nil, fmt.Errorf("failed to get carbon project: %w", err)
	}

	if req.ProjectedTCO2e >= req.BaselineTCO2e {
		return nil, NewBusinessRuleError("estimate_reduction", "projected emissions must be below the baseline")
	}

	estimate := &models.CarbonEstimate{
		ProjectID:       projectID,
		BaselineTCO2e:   req.BaselineTCO2e,
		ProjectedTCO2e:  req.ProjectedTCO2e,
		AnnualTCO2e:     req.AnnualTCO2e,
		CreditingYears:  req.CreditingYears,
		UncertaintyPct:  req.UncertaintyPct,
		MethodologyNote: req.MethodologyNote,
	}
	if estimate.CreditingYears == 0 {
		estimate.CreditingYears = 30
	}
	if estimate.AnnualTCO2e == 0 && estimate.CreditingYears > 0 {
		estimate.AnnualTCO2e = (req.BaselineTCO2e - req.ProjectedTCO2e) / float64(estimate.CreditingYears)
	}

	if err := s.repo.Carbon().UpsertEstimate(ctx, estimate); err != nil {
		return nil, fmt.Errorf("failed to upsert carbon estimate: %w", err)
	}

	return estimate, nil
}

func (s *carbonService) GetEstimate(ctx context.Context, projectID string, userID string) (*models.CarbonEstimate, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, projectID, "carbon_estimate", "read", "insufficient role permissions")
	}

	estimate, err := s.repo.Carbon().GetEstimate(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get carbon estimate: %w", err)
	}
	return estimate, nil
}

func (s *carbonService) SetVerificationSchedule(ctx context.Context, projectID string, req *VerificationScheduleRequest, userID string) (*models.VerificationSchedule, error) {
	s.logger.Info("Setting verification schedule", "project_id", projectID, "user_id", userID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageCarbonProjects(ctx, userID) {
		return nil, NewPermissionError(userID, projectID, "verification_schedule", "upsert", "insufficient role permissions")
	}

	if _, err := s.repo.Carbon().GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCarbonNotFound
		}
		return nil, fmt.Errorf("failed to get carbon project: %w", err)
	}

	schedule := &models.VerificationSchedule{
		ProjectID:         projectID,
		FrequencyMonths:   req.FrequencyMonths,
		FirstVerification: req.FirstVerification,
		VerifierBody:      req.VerifierBody,
	}
	if req.FirstVerification != nil {
		next := req.FirstVerification.AddDate(0, req.FrequencyMonths, 0)
		schedule.NextVerification = &next
	}

	if err := s.repo.Carbon().UpsertVerificationSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to upsert verification schedule: %w", err)
	}

	return schedule, nil
}

func (s *carbonService) GetVerificationSchedule(ctx context.Context, projectID string, userID string) (*models.VerificationSchedule, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, projectID, "verification_schedule", "read", "insufficient role permissions")
	}

	schedule, err := s.repo.Carbon().GetVerificationSchedule(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get verification schedule: %w", err)
	}
	return schedule, nil
}

// ===== HELPERS =====

func (s *carbonService) applyCarbonUpdates(project *models.CarbonProject, req *UpdateCarbonRequest) {
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Regency != nil {
		project.Regency = *req.Regency
	}
	if req.Province != nil {
		project.Province = *req.Province
	}
	if req.AreaHa != nil {
		project.AreaHa = *req.AreaHa
	}
	if req.Standard != nil {
		project.Standard = *req.Standard
	}
	if req.Methodology != nil {
		project.Methodology = req.Methodology
	}
	if req.VerraID != nil {
		project.VerraID = req.VerraID
	}
	if req.Description != nil {
		project.Description = req.Description
	}
}

func (s *carbonService) buildCarbonResponse(ctx context.Context, project *models.CarbonProject, userID string) *CarbonResponse {
	return &CarbonResponse{
		CarbonProject: project,
		CanEdit:       s.evaluator.CanManageCarbonProjects(ctx, userID),
		CanDelete:     s.evaluator.CanDelete(ctx, userID),
	}
}
