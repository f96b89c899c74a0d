package repositories

import (
	"context"
	"time"

	"github.com/lestari-hub/forestry-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type GrantFilters struct {
	Status    *models.GrantStatus `json:"status"`
	Scheme    *models.GrantScheme `json:"scheme"`
	Regency   *string             `json:"regency"`
	CreatedBy *string             `json:"created_by"`
	Query     string              `json:"query"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`    // "created_at", "name", "area_ha"
	SortOrder string              `json:"sort_order"` // "asc", "desc"
}

type CarbonFilters struct {
	Status    *models.CarbonProjectStatus `json:"status"`
	Regency   *string                     `json:"regency"`
	GrantID   *string                     `json:"grant_id"`
	CreatedBy *string                     `json:"created_by"`
	Query     string                      `json:"query"`
	Limit     int                         `json:"limit"`
	Offset    int                         `json:"offset"`
	SortBy    string                      `json:"sort_by"`
	SortOrder string                      `json:"sort_order"`
}

type ProfileFilters struct {
	Role   *models.UserRole `json:"role"`
	Query  string           `json:"query"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type OrganizationFilters struct {
	Type    *models.OrganizationType `json:"type"`
	Regency *string                  `json:"regency"`
	Query   string                   `json:"query"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

type TransactionFilters struct {
	Direction *models.TransactionDirection `json:"direction"`
	Category  *models.BudgetCategory       `json:"category"`
	DateFrom  *time.Time                   `json:"date_from"`
	DateTo    *time.Time                   `json:"date_to"`
	Limit     int                          `json:"limit"`
	Offset    int                          `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type LedgerSummary struct {
	LedgerID    string  `json:"ledger_id"`
	TotalBudget float64 `json:"total_budget"`
	TotalDebit  float64 `json:"total_debit"`
	TotalCredit float64 `json:"total_credit"`
	Balance     float64 `json:"balance"`
	Utilization float64 `json:"utilization"`
	TxCount     int64   `json:"tx_count"`
}

type RegencyCount struct {
	Regency string `json:"regency"`
	Count   int64  `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ===== REPOSITORY INTERFACES =====

// ProfileRepository is the Profile Store: read-mostly, backed by Casdoor
// with a Redis cache in front.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	List(ctx context.Context, filters ProfileFilters) ([]*models.UserProfile, int64, error)
	Search(ctx context.Context, query string, filters ProfileFilters) ([]*models.UserProfile, int64, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}

type GrantRepository interface {
	Create(ctx context.Context, grant *models.Grant) error
	GetByID(ctx context.Context, id string) (*models.Grant, error)
	GetByIDWithDetails(ctx context.Context, id string) (*models.Grant, error)
	GetByCode(ctx context.Context, code string) (*models.Grant, error)
	List(ctx context.Context, filters GrantFilters) ([]*models.Grant, int64, error)
	Update(ctx context.Context, grant *models.Grant) error
	UpdateStatus(ctx context.Context, id string, status models.GrantStatus) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

type CarbonRepository interface {
	Create(ctx context.Context, project *models.CarbonProject) error
	GetByID(ctx context.Context, id string) (*models.CarbonProject, error)
	GetByIDWithDetails(ctx context.Context, id string) (*models.CarbonProject, error)
	GetByCode(ctx context.Context, code string) (*models.CarbonProject, error)
	List(ctx context.Context, filters CarbonFilters) ([]*models.CarbonProject, int64, error)
	Update(ctx context.Context, project *models.CarbonProject) error
	UpdateStatus(ctx context.Context, id string, status models.CarbonProjectStatus) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code string) (bool, error)

	UpsertEstimate(ctx context.Context, estimate *models.CarbonEstimate) error
	GetEstimate(ctx context.Context, projectID string) (*models.CarbonEstimate, error)
	UpsertVerificationSchedule(ctx context.Context, schedule *models.VerificationSchedule) error
	GetVerificationSchedule(ctx context.Context, projectID string) (*models.VerificationSchedule, error)
}

// SectionRepository manages the per-project document sections shared between
// grants and carbon projects. The compliance scorer reads through it.
type SectionRepository interface {
	UpsertOrganizationalProfile(ctx context.Context, profile *models.OrganizationalProfile) error
	GetOrganizationalProfile(ctx context.Context, projectID string) (*models.OrganizationalProfile, error)

	UpsertLandTenure(ctx context.Context, tenure *models.LandTenure) error
	GetLandTenure(ctx context.Context, projectID string) (*models.LandTenure, error)

	AddForestStatusRecord(ctx context.Context, record *models.ForestStatusRecord) error
	ListForestStatusRecords(ctx context.Context, projectID string) ([]*models.ForestStatusRecord, error)
	CountForestStatusRecords(ctx context.Context, projectID string) (int64, error)

	AddDeforestationDriver(ctx context.Context, driver *models.DeforestationDriver) error
	ListDeforestationDrivers(ctx context.Context, projectID string) ([]*models.DeforestationDriver, error)
	CountDeforestationDrivers(ctx context.Context, projectID string) (int64, error)

	UpsertModel(ctx context.Context, model *models.ProjectModel) error
	GetModel(ctx context.Context, projectID, kind string) (*models.ProjectModel, error)

	AddMilestone(ctx context.Context, milestone *models.TimelineMilestone) error
	ListMilestones(ctx context.Context, projectID string) ([]*models.TimelineMilestone, error)
	CountMilestones(ctx context.Context, projectID string) (int64, error)

	AddKMLFile(ctx context.Context, file *models.KMLFile) error
	GetLatestKMLFile(ctx context.Context, projectID string, isVerra bool) (*models.KMLFile, error)
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	List(ctx context.Context, filters OrganizationFilters) ([]*models.Organization, int64, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code string) (bool, error)

	LinkProject(ctx context.Context, link *models.ProjectOrganization) error
	UnlinkProject(ctx context.Context, projectID, organizationID string) error
	ListProjectLinks(ctx context.Context, projectID string) ([]*models.ProjectOrganization, error)
	CountProjectLinks(ctx context.Context, projectID string) (int64, error)
}

type FinanceRepository interface {
	CreateLedger(ctx context.Context, ledger *models.Ledger) error
	GetLedger(ctx context.Context, id string) (*models.Ledger, error)
	GetLedgerWithDetails(ctx context.Context, id string) (*models.Ledger, error)
	ListLedgersByProject(ctx context.Context, projectID string) ([]*models.Ledger, error)
	LedgerExistsByCode(ctx context.Context, code string) (bool, error)
	CloseLedger(ctx context.Context, id string) error

	CreateBudgetLine(ctx context.Context, line *models.BudgetLine) error
	UpdateBudgetLine(ctx context.Context, line *models.BudgetLine) error
	DeleteBudgetLine(ctx context.Context, id uint) error
	ListBudgetLines(ctx context.Context, ledgerID string) ([]*models.BudgetLine, error)

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	CreateTransactionsBatch(ctx context.Context, txs []*models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ledgerID string, filters TransactionFilters) ([]*models.Transaction, int64, error)
	DeleteTransaction(ctx context.Context, id string) error

	GetLedgerSummary(ctx context.Context, ledgerID string) (*LedgerSummary, error)
}

type DashboardRepository interface {
	CountGrants(ctx context.Context) (int64, error)
	CountCarbonProjects(ctx context.Context) (int64, error)
	CountOrganizations(ctx context.Context) (int64, error)
	GrantsByStatus(ctx context.Context) ([]StatusCount, error)
	GrantsByRegency(ctx context.Context, limit int) ([]RegencyCount, error)
	CarbonByStatus(ctx context.Context) ([]StatusCount, error)
	TotalGrantAreaHa(ctx context.Context) (float64, error)
	TotalEstimatedTCO2e(ctx context.Context) (float64, error)
	RecentGrants(ctx context.Context, limit int) ([]*models.Grant, error)
	RecentTransactions(ctx context.Context, limit int) ([]*models.Transaction, error)
}
