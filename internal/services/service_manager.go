package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lestari-hub/forestry-service/internal/events"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

// serviceManager wires every domain service over one repository, one RBAC
// evaluator and one event publisher.
type serviceManager struct {
	repo      repositories.Repository
	evaluator *rbac.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	mu          sync.RWMutex
	initialized bool

	grant        GrantService
	carbon       CarbonService
	section      SectionService
	organization OrganizationService
	finance      FinanceService
	compliance   ComplianceService
	dashboard    DashboardService
	user         UserService
	importExport ImportExportService
}

func NewServiceManager(repo repositories.Repository, evaluator *rbac.Evaluator, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	return &serviceManager{
		repo:      repo,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (m *serviceManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository not reachable: %w", err)
	}

	m.grant = NewGrantService(m.repo, m.evaluator, m.publisher, m.logger, m.validator)
	m.carbon = NewCarbonService(m.repo, m.evaluator, m.publisher, m.logger, m.validator)
	m.section = NewSectionService(m.repo, m.evaluator, m.logger, m.validator)
	m.organization = NewOrganizationService(m.repo, m.evaluator, m.logger, m.validator)
	m.finance = NewFinanceService(m.repo, m.evaluator, m.logger, m.validator)
	m.compliance = NewComplianceService(m.repo, m.evaluator, m.publisher, m.logger)
	m.dashboard = NewDashboardService(m.repo, m.evaluator, m.logger)
	m.user = NewUserService(m.repo, m.evaluator, m.publisher, m.logger, m.validator)
	m.importExport = NewImportExportService(m.repo, m.evaluator, m.publisher, m.logger, m.validator)

	m.initialized = true
	m.logger.Info("Service manager initialized")
	return nil
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}

	if err := m.publisher.Close(); err != nil {
		m.logger.Warn("failed to close event publisher", "error", err)
	}

	m.initialized = false
	m.logger.Info("Service manager shut down")
	return nil
}

func (m *serviceManager) Grant() GrantService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.grant
}

func (m *serviceManager) Carbon() CarbonService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.carbon
}

func (m *serviceManager) Section() SectionService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.section
}

func (m *serviceManager) Organization() OrganizationService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.organization
}

func (m *serviceManager) Finance() FinanceService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finance
}

func (m *serviceManager) Compliance() ComplianceService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.compliance
}

func (m *serviceManager) Dashboard() DashboardService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dashboard
}

func (m *serviceManager) User() UserService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *serviceManager) ImportExport() ImportExportService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.importExport
}
