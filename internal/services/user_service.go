package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, evaluator *rbac.Evaluator, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// GetProfile returns a user profile. Users may always read their own profile;
// reading anyone else's requires user management rights.
func (s *userService) GetProfile(ctx context.Context, id string, requesterID string) (*models.UserProfile, error) {
	if id != requesterID && !s.evaluator.CanManageUsers(ctx, requesterID) {
		return nil, NewPermissionError(requesterID, id, "profile", "read", "insufficient role permissions")
	}

	profile, err := s.repo.Profile().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *userService) List(ctx context.Context, filters repositories.ProfileFilters, requesterID string) (*ProfileListResponse, error) {
	if !s.evaluator.CanManageUsers(ctx, requesterID) {
		return nil, NewPermissionError(requesterID, "", "profile", "list", "insufficient role permissions")
	}

	profiles, total, err := s.repo.Profile().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return s.buildProfileListResponse(profiles, total, filters), nil
}

func (s *userService) Search(ctx context.Context, query string, filters repositories.ProfileFilters, requesterID string) (*ProfileListResponse, error) {
	if !s.evaluator.CanManageUsers(ctx, requesterID) {
		return nil, NewPermissionError(requesterID, "", "profile", "search", "insufficient role permissions")
	}

	profiles, total, err := s.repo.Profile().Search(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	return s.buildProfileListResponse(profiles, total, filters), nil
}

// UpdateRole assigns a new role to a user. Admins cannot demote themselves,
// which keeps the system from locking out its last administrator.
func (s *userService) UpdateRole(ctx context.Context, id string, req *UpdateUserRoleRequest, requesterID string) error {
	s.logger.Info("Updating user role", "user_id", id, "new_role", req.Role, "requester_id", requesterID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return errs
	}

	if !s.evaluator.CanManageUsers(ctx, requesterID) {
		return NewPermissionError(requesterID, id, "profile", "update_role", "insufficient role permissions")
	}
	if id == requesterID && req.Role != models.RoleAdmin {
		return NewBusinessRuleError("self_demotion", "administrators cannot change their own role")
	}

	profile, err := s.repo.Profile().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}

	oldRole := profile.Role
	if oldRole == req.Role {
		return nil
	}

	if err := s.repo.Profile().UpdateRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	event := events.NewEvent(events.EventProfileRoleChanged, map[string]interface{}{
		"user_id":    id,
		"old_role":   oldRole,
		"new_role":   req.Role,
		"changed_by": requesterID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish role change event", "user_id", id, "error", err)
	}

	return nil
}

// GetPermissions returns the permissions the user's role grants, sorted for a
// stable API response.
func (s *userService) GetPermissions(ctx context.Context, id string) ([]rbac.Permission, error) {
	if _, err := s.repo.Profile().GetByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	granted := make([]rbac.Permission, 0)
	for perm, allowed := range s.evaluator.GetUserPermissions(ctx, id) {
		if allowed {
			granted = append(granted, perm)
		}
	}
	sort.Slice(granted, func(i, j int) bool { return granted[i] < granted[j] })
	return granted, nil
}

func (s *userService) buildProfileListResponse(profiles []*models.UserProfile, total int64, filters repositories.ProfileFilters) *ProfileListResponse {
	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}
	return &ProfileListResponse{
		Profiles: profiles,
		Total:    total,
		Page:     page,
		Size:     len(profiles),
	}
}
