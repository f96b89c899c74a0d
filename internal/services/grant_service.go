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

type grantService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewGrantService(repo repositories.Repository, evaluator *rbac.Evaluator, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) GrantService {
	return &grantService{
		repo:      repo,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *grantService) Create(ctx context.Context, req *CreateGrantRequest, userID string) (*GrantResponse, error) {
	s.logger.Info("Creating grant", "user_id", userID, "code", req.Code)

	if errs := s.validator.GetBusinessValidator().ValidateGrantCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageGrants(ctx, userID) {
		return nil, NewPermissionError(userID, "", "grant", "create", "insufficient role permissions")
	}

	exists, err := s.repo.Grant().ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check grant code uniqueness: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("grant code %s: %w", req.Code, ErrDuplicateCode)
	}

	grant := &models.Grant{
		ID:           uuid.New().String(),
		Code:         req.Code,
		Name:         req.Name,
		Status:       models.GrantStatusDraft,
		Scheme:       req.Scheme,
		Regency:      req.Regency,
		Province:     req.Province,
		AreaHa:       req.AreaHa,
		PermitNumber: req.PermitNumber,
		PermitDate:   req.PermitDate,
		ValidUntil:   req.ValidUntil,
		Description:  req.Description,
		CreatedBy:    userID,
	}

	if err := s.repo.Grant().Create(ctx, grant); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("grant code %s: %w", req.Code, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to create grant: %w", err)
	}

	s.logger.Info("Grant created successfully", "grant_id", grant.ID, "code", grant.Code)

	return s.buildGrantResponse(ctx, grant, userID), nil
}

func (s *grantService) GetByID(ctx context.Context, id string, userID string) (*GrantResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, id, "grant", "read", "insufficient role permissions")
	}

	grant, err := s.repo.Grant().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	return s.buildGrantResponse(ctx, grant, userID), nil
}

func (s *grantService) GetByIDWithDetails(ctx context.Context, id string, userID string) (*GrantResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, id, "grant", "read", "insufficient role permissions")
	}

	grant, err := s.repo.Grant().GetByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant with details: %w", err)
	}

	return s.buildGrantResponse(ctx, grant, userID), nil
}

func (s *grantService) Update(ctx context.Context, id string, req *UpdateGrantRequest, userID string) (*GrantResponse, error) {
	s.logger.Info("Updating grant", "grant_id", id, "user_id", userID)

	grant, err := s.repo.Grant().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateGrantUpdate(req, grant); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.CanManageGrants(ctx, userID) {
		return nil, NewPermissionError(userID, id, "grant", "update", "insufficient role permissions")
	}

	s.applyGrantUpdates(grant, req)

	if err := s.repo.Grant().Update(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to update grant: %w", err)
	}

	return s.buildGrantResponse(ctx, grant, userID), nil
}

func (s *grantService) UpdateStatus(ctx context.Context, id string, req *GrantStatusRequest, userID string) error {
	s.logger.Info("Updating grant status", "grant_id", id, "user_id", userID, "status", req.Status)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return errs
	}

	if !s.evaluator.CanManageGrants(ctx, userID) {
		return NewPermissionError(userID, id, "grant", "update_status", "insufficient role permissions")
	}

	grant, err := s.repo.Grant().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to get grant: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateGrantStatusTransition(grant.Status, req.Status); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Grant().UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to update grant status: %w", err)
	}

	event := events.NewEvent(events.EventGrantStatusChanged, map[string]interface{}{
		"grant_id":   id,
		"old_status": grant.Status,
		"new_status": req.Status,
		"changed_by": userID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish grant status event", "grant_id", id, "error", err)
	}

	return nil
}

func (s *grantService) Delete(ctx context.Context, id string, userID string) error {
	s.logger.Info("Deleting grant", "grant_id", id, "user_id", userID)

	if !s.evaluator.CanDelete(ctx, userID) {
		return NewPermissionError(userID, id, "grant", "delete", "insufficient role permissions")
	}

	grant, err := s.repo.Grant().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to get grant: %w", err)
	}

	grantID := grant.ID
	linked, _, err := s.repo.Carbon().List(ctx, repositories.CarbonFilters{GrantID: &grantID, Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to check linked carbon projects: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateGrantDelete(grant.Status, int64(len(linked))); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Grant().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to delete grant: %w", err)
	}

	s.logger.Info("Grant deleted", "grant_id", id)
	return nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *grantService) List(ctx context.Context, filters repositories.GrantFilters, userID string) (*GrantListResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, "", "grant", "list", "insufficient role permissions")
	}

	grants, total, err := s.repo.Grant().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}

	return s.buildGrantListResponse(ctx, grants, total, filters, userID), nil
}

func (s *grantService) Search(ctx context.Context, query string, filters repositories.GrantFilters, userID string) (*GrantListResponse, error) {
	filters.Query = query
	return s.List(ctx, filters, userID)
}

// ===== HELPERS =====

func (s *grantService) applyGrantUpdates(grant *models.Grant, req *UpdateGrantRequest) {
	if req.Name != nil {
		grant.Name = *req.Name
	}
	if req.Scheme != nil {
		grant.Scheme = *req.Scheme
	}
	if req.Regency != nil {
		grant.Regency = *req.Regency
	}
	if req.Province != nil {
		grant.Province = *req.Province
	}
	if req.AreaHa != nil {
		grant.AreaHa = *req.AreaHa
	}
	if req.PermitNumber != nil {
		grant.PermitNumber = req.PermitNumber
	}
	if req.PermitDate != nil {
		grant.PermitDate = req.PermitDate
	}
	if req.ValidUntil != nil {
		grant.ValidUntil = req.ValidUntil
	}
	if req.Description != nil {
		grant.Description = req.Description
	}
}

func (s *grantService) buildGrantResponse(ctx context.Context, grant *models.Grant, userID string) *GrantResponse {
	return &GrantResponse{
		Grant:     grant,
		CanEdit:   s.evaluator.CanManageGrants(ctx, userID),
		CanDelete: s.evaluator.CanDelete(ctx, userID),
	}
}

func (s *grantService) buildGrantListResponse(ctx context.Context, grants []*models.Grant, total int64, filters repositories.GrantFilters, userID string) *GrantListResponse {
	canEdit := s.evaluator.CanManageGrants(ctx, userID)
	canDelete := s.evaluator.CanDelete(ctx, userID)

	responses := make([]*GrantResponse, 0, len(grants))
	for _, grant := range grants {
		responses = append(responses, &GrantResponse{
			Grant:     grant,
			CanEdit:   canEdit,
			CanDelete: canDelete,
		})
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &GrantListResponse{
		Grants: responses,
		Total:  total,
		Page:   page,
		Size:   len(responses),
	}
}
