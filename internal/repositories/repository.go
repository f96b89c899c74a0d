package repositories

import "context"

// Repository aggregates all per-domain repository interfaces.
type Repository interface {
	// Identity domain
	Profile() ProfileRepository

	// Project domain
	Grant() GrantRepository
	Carbon() CarbonRepository
	Section() SectionRepository
	Organization() OrganizationRepository

	// Finance domain
	Finance() FinanceRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
