package rbac

import (
	"context"
	"log/slog"

	"github.com/lestari-hub/forestry-service/internal/models"
)

// ProfileStore resolves a user identifier to its persisted profile.
// Implemented by the Casdoor-backed profile repository.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
}

// Evaluator answers "is this user allowed to do X?" from the static
// permission table. Every failure mode degrades to deny: lookups never
// surface an error to the caller, so a careless call site cannot turn a
// broken profile fetch into an allow.
type Evaluator struct {
	profiles ProfileStore
	logger   *slog.Logger
}

func NewEvaluator(profiles ProfileStore, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		profiles: profiles,
		logger:   logger,
	}
}

// GetUserProfile returns the full profile for userID, or nil when the user
// is unknown or the lookup fails.
func (e *Evaluator) GetUserProfile(ctx context.Context, userID string) *models.UserProfile {
	if userID == "" {
		return nil
	}

	profile, err := e.profiles.GetByID(ctx, userID)
	if err != nil {
		e.logger.Warn("profile lookup failed, denying access", "user_id", userID, "error", err)
		return nil
	}
	return profile
}

// GetUserRole resolves the role for userID. Returns the empty role when
// unauthenticated or the profile is missing.
func (e *Evaluator) GetUserRole(ctx context.Context, userID string) models.UserRole {
	profile := e.GetUserProfile(ctx, userID)
	if profile == nil {
		return ""
	}
	return profile.Role
}

// CheckUserRole reports whether the resolved role of userID is a member of
// requiredRoles. An unresolvable role always yields false.
func (e *Evaluator) CheckUserRole(ctx context.Context, requiredRoles []models.UserRole, userID string) bool {
	role := e.GetUserRole(ctx, userID)
	if role == "" {
		return false
	}
	for _, required := range requiredRoles {
		if role == required {
			return true
		}
	}
	return false
}

// HasPermission looks up perm in the permission table and checks membership.
// Unknown permissions deny.
func (e *Evaluator) HasPermission(ctx context.Context, perm Permission, userID string) bool {
	roles, ok := Roles(perm)
	if !ok {
		e.logger.Warn("permission not in table, denying access", "permission", string(perm))
		return false
	}
	return e.CheckUserRole(ctx, roles, userID)
}

// GetUserPermissions computes the full permission map for userID in a single
// profile lookup. Used for UI gating, not enforcement.
func (e *Evaluator) GetUserPermissions(ctx context.Context, userID string) map[Permission]bool {
	result := make(map[Permission]bool, len(permissionTable))

	role := e.GetUserRole(ctx, userID)
	for perm, roles := range permissionTable {
		allowed := false
		if role != "" {
			for _, r := range roles {
				if r == role {
					allowed = true
					break
				}
			}
		}
		result[perm] = allowed
	}
	return result
}

// ===== CONVENIENCE PREDICATES =====
//
// Fixed calls into the table so call sites never repeat role lists.

func (e *Evaluator) IsAdmin(ctx context.Context, userID string) bool {
	return e.CheckUserRole(ctx, []models.UserRole{models.RoleAdmin}, userID)
}

func (e *Evaluator) CanEdit(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionEdit, userID)
}

func (e *Evaluator) CanDelete(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionDelete, userID)
}

func (e *Evaluator) CanManageUsers(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionManageUsers, userID)
}

func (e *Evaluator) CanManageGrants(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionGrantManage, userID)
}

func (e *Evaluator) CanManageCarbonProjects(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionCarbonProjects, userID)
}

func (e *Evaluator) CanManagePrograms(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionProgramManagement, userID)
}

func (e *Evaluator) CanViewFinancials(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionFinancialView, userID)
}

func (e *Evaluator) CanManageBudgets(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionFinancialBudgetManage, userID)
}

func (e *Evaluator) CanManageTransactions(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionFinancialTransactionManage, userID)
}

func (e *Evaluator) CanRunComplianceChecks(ctx context.Context, userID string) bool {
	return e.HasPermission(ctx, PermissionComplianceCheck, userID)
}
