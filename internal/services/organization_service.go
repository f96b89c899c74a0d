package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type organizationService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	logger    *slog.Logger
	validator *validator.Validator
}

func NewOrganizationService(repo repositories.Repository, evaluator *rbac.Evaluator, logger *slog.Logger, validator *validator.Validator) OrganizationService {
	return &organizationService{
		repo:      repo,
		evaluator: evaluator,
		logger:    logger,
		validator: validator,
	}
}

func (s *organizationService) Create(ctx context.Context, req *CreateOrganizationRequest, userID string) (*models.Organization, error) {
	s.logger.Info("Creating organization", "user_id", userID, "code", req.Code)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.HasPermission(ctx, rbac.PermissionOrganizationManage, userID) {
		return nil, NewPermissionError(userID, "", "organization", "create", "insufficient role permissions")
	}

	exists, err := s.repo.Organization().ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check organization code uniqueness: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("organization code %s: %w", req.Code, ErrDuplicateCode)
	}

	org := &models.Organization{
		ID:            uuid.New().String(),
		Code:          req.Code,
		Name:          req.Name,
		Type:          req.Type,
		Regency:       req.Regency,
		Province:      req.Province,
		ContactPerson: req.ContactPerson,
		ContactPhone:  req.ContactPhone,
		MemberCount:   req.MemberCount,
		CreatedBy:     userID,
	}

	if err := s.repo.Organization().Create(ctx, org); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("organization code %s: %w", req.Code, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

func (s *organizationService) GetByID(ctx context.Context, id string, userID string) (*models.Organization, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, id, "organization", "read", "insufficient role permissions")
	}

	org, err := s.repo.Organization().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) Update(ctx context.Context, id string, req *UpdateOrganizationRequest, userID string) (*models.Organization, error) {
	s.logger.Info("Updating organization", "organization_id", id, "user_id", userID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.evaluator.HasPermission(ctx, rbac.PermissionOrganizationManage, userID) {
		return nil, NewPermissionError(userID, id, "organization", "update", "insufficient role permissions")
	}

	org, err := s.repo.Organization().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.Type != nil {
		org.Type = *req.Type
	}
	if req.Regency != nil {
		org.Regency = *req.Regency
	}
	if req.Province != nil {
		org.Province = *req.Province
	}
	if req.ContactPerson != nil {
		org.ContactPerson = req.ContactPerson
	}
	if req.ContactPhone != nil {
		org.ContactPhone = req.ContactPhone
	}
	if req.MemberCount != nil {
		org.MemberCount = *req.MemberCount
	}

	if err := s.repo.Organization().Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) Delete(ctx context.Context, id string, userID string) error {
	s.logger.Info("Deleting organization", "organization_id", id, "user_id", userID)

	if !s.evaluator.CanDelete(ctx, userID) {
		return NewPermissionError(userID, id, "organization", "delete", "insufficient role permissions")
	}

	if err := s.repo.Organization().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func (s *organizationService) List(ctx context.Context, filters repositories.OrganizationFilters, userID string) (*OrganizationListResponse, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, "", "organization", "list", "insufficient role permissions")
	}

	orgs, total, err := s.repo.Organization().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &OrganizationListResponse{
		Organizations: orgs,
		Total:         total,
		Page:          page,
		Size:          len(orgs),
	}, nil
}

// ===== PROJECT LINKS =====

func (s *organizationService) LinkProject(ctx context.Context, projectID string, req *LinkOrganizationRequest, userID string) error {
	s.logger.Info("Linking organization to project",
		"project_id", projectID,
		"organization_id", req.OrganizationID,
		"user_id", userID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return errs
	}

	if !s.evaluator.HasPermission(ctx, rbac.PermissionOrganizationManage, userID) {
		return NewPermissionError(userID, projectID, "project_organization", "link", "insufficient role permissions")
	}

	if _, err := s.repo.Organization().GetByID(ctx, req.OrganizationID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to get organization: %w", err)
	}

	link := &models.ProjectOrganization{
		ProjectID:      projectID,
		OrganizationID: req.OrganizationID,
		Relationship:   req.Relationship,
	}
	if link.Relationship == "" {
		link.Relationship = "holder"
	}

	if err := s.repo.Organization().LinkProject(ctx, link); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return NewBusinessRuleError("project_org_link", "organization is already linked to this project")
		}
		return fmt.Errorf("failed to link organization: %w", err)
	}
	return nil
}

func (s *organizationService) UnlinkProject(ctx context.Context, projectID, organizationID string, userID string) error {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionOrganizationManage, userID) {
		return NewPermissionError(userID, projectID, "project_organization", "unlink", "insufficient role permissions")
	}

	if err := s.repo.Organization().UnlinkProject(ctx, projectID, organizationID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to unlink organization: %w", err)
	}
	return nil
}

func (s *organizationService) ListProjectLinks(ctx context.Context, projectID string, userID string) ([]*models.ProjectOrganization, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, projectID, "project_organization", "list", "insufficient role permissions")
	}

	links, err := s.repo.Organization().ListProjectLinks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project links: %w", err)
	}
	return links, nil
}
