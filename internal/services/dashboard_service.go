package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type dashboardService struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	logger    *slog.Logger
}

func NewDashboardService(repo repositories.Repository, evaluator *rbac.Evaluator, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:      repo,
		evaluator: evaluator,
		logger:    logger,
	}
}

const (
	topRegencyLimit  = 10
	recentItemsLimit = 5
)

// GetOverview assembles the landing-page aggregates. Financial figures are
// included only for users allowed to see them.
func (s *dashboardService) GetOverview(ctx context.Context, userID string) (*DashboardOverview, error) {
	if !s.evaluator.HasPermission(ctx, rbac.PermissionRead, userID) {
		return nil, NewPermissionError(userID, "", "dashboard", "read", "insufficient role permissions")
	}

	dash := s.repo.Dashboard()
	overview := &DashboardOverview{}

	var err error
	if overview.TotalGrants, err = dash.CountGrants(ctx); err != nil {
		return nil, fmt.Errorf("failed to count grants: %w", err)
	}
	if overview.TotalCarbonProjects, err = dash.CountCarbonProjects(ctx); err != nil {
		return nil, fmt.Errorf("failed to count carbon projects: %w", err)
	}
	if overview.TotalOrganizations, err = dash.CountOrganizations(ctx); err != nil {
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}
	if overview.TotalAreaHa, err = dash.TotalGrantAreaHa(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum grant area: %w", err)
	}
	if overview.TotalEstimatedTCO2e, err = dash.TotalEstimatedTCO2e(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum estimated tco2e: %w", err)
	}
	if overview.GrantsByStatus, err = dash.GrantsByStatus(ctx); err != nil {
		return nil, fmt.Errorf("failed to group grants by status: %w", err)
	}
	if overview.CarbonByStatus, err = dash.CarbonByStatus(ctx); err != nil {
		return nil, fmt.Errorf("failed to group carbon projects by status: %w", err)
	}
	if overview.TopRegencies, err = dash.GrantsByRegency(ctx, topRegencyLimit); err != nil {
		return nil, fmt.Errorf("failed to group grants by regency: %w", err)
	}
	if overview.RecentGrants, err = dash.RecentGrants(ctx, recentItemsLimit); err != nil {
		return nil, fmt.Errorf("failed to list recent grants: %w", err)
	}

	if s.evaluator.CanViewFinancials(ctx, userID) {
		if overview.RecentTransactions, err = dash.RecentTransactions(ctx, recentItemsLimit); err != nil {
			return nil, fmt.Errorf("failed to list recent transactions: %w", err)
		}
	}

	return overview, nil
}
