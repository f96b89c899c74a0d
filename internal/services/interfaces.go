package services

import (
	"context"
	"io"
	"time"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateGrantRequest = validator.GrantCreateRequest
type UpdateGrantRequest = validator.GrantUpdateRequest
type GrantStatusRequest = validator.GrantStatusRequest

type CreateCarbonRequest = validator.CarbonCreateRequest
type UpdateCarbonRequest = validator.CarbonUpdateRequest
type CarbonStatusRequest = validator.CarbonStatusRequest
type CarbonEstimateRequest = validator.CarbonEstimateRequest
type VerificationScheduleRequest = validator.VerificationScheduleRequest

type CreateOrganizationRequest = validator.OrganizationCreateRequest
type UpdateOrganizationRequest = validator.OrganizationUpdateRequest
type LinkOrganizationRequest = validator.LinkOrganizationRequest

type OrganizationalProfileRequest = validator.OrganizationalProfileRequest
type LandTenureRequest = validator.LandTenureRequest
type ForestStatusRecordRequest = validator.ForestStatusRecordRequest
type DeforestationDriverRequest = validator.DeforestationDriverRequest
type ProjectModelRequest = validator.ProjectModelRequest
type MilestoneRequest = validator.MilestoneRequest
type KMLFileRequest = validator.KMLFileRequest

type CreateLedgerRequest = validator.LedgerCreateRequest
type BudgetLineRequest = validator.BudgetLineRequest
type CreateTransactionRequest = validator.TransactionCreateRequest

type UpdateUserRoleRequest = validator.UpdateUserRoleRequest

type GrantResponse struct {
	*models.Grant
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type GrantListResponse struct {
	Grants []*GrantResponse `json:"grants"`
	Total  int64            `json:"total"`
	Page   int              `json:"page"`
	Size   int              `json:"size"`
}

type CarbonResponse struct {
	*models.CarbonProject
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type CarbonListResponse struct {
	Projects []*CarbonResponse `json:"projects"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

type OrganizationListResponse struct {
	Organizations []*models.Organization `json:"organizations"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
}

type ProfileListResponse struct {
	Profiles []*models.UserProfile `json:"profiles"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	Size     int                   `json:"size"`
}

type TransactionListResponse struct {
	Transactions []*models.Transaction `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Size         int                   `json:"size"`
}

// ===== COMPLIANCE DTOs =====

type CheckStatus string

const (
	CheckComplete   CheckStatus = "complete"
	CheckIncomplete CheckStatus = "incomplete"
)

// checkPoints is the weight of one passing compliance check.
const checkPoints = 100

// ComplianceCheck is the outcome of one document check.
type ComplianceCheck struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Points int         `json:"points"`
	Detail string      `json:"detail,omitempty"`
}

// ComplianceReport is the full scorecard for a project. Checks keep a stable
// order so repeated runs compare cleanly; MissingFields and NextActions list
// the incomplete checks in that same order.
type ComplianceReport struct {
	ProjectID     string            `json:"project_id"`
	ProjectType   string            `json:"project_type"`
	Score         int               `json:"compliance_score"`
	TotalPoints   int               `json:"total_points"`
	MaxPoints     int               `json:"max_points"`
	Checks        []ComplianceCheck `json:"details"`
	MissingFields []string          `json:"missing_fields"`
	NextActions   []string          `json:"next_actions"`
	Summary       string            `json:"summary"`
	CheckedAt     time.Time         `json:"checked_at"`
}

// ===== DASHBOARD DTOs =====

type DashboardOverview struct {
	TotalGrants         int64                       `json:"total_grants"`
	TotalCarbonProjects int64                       `json:"total_carbon_projects"`
	TotalOrganizations  int64                       `json:"total_organizations"`
	TotalAreaHa         float64                     `json:"total_area_ha"`
	TotalEstimatedTCO2e float64                     `json:"total_estimated_tco2e"`
	GrantsByStatus      []repositories.StatusCount  `json:"grants_by_status"`
	CarbonByStatus      []repositories.StatusCount  `json:"carbon_by_status"`
	TopRegencies        []repositories.RegencyCount `json:"top_regencies"`
	RecentGrants        []*models.Grant             `json:"recent_grants"`
	RecentTransactions  []*models.Transaction       `json:"recent_transactions,omitempty"`
}

// ===== IMPORT/EXPORT DTOs =====

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type GrantService interface {
	Create(ctx context.Context, req *CreateGrantRequest, userID string) (*GrantResponse, error)
	GetByID(ctx context.Context, id string, userID string) (*GrantResponse, error)
	GetByIDWithDetails(ctx context.Context, id string, userID string) (*GrantResponse, error)
	Update(ctx context.Context, id string, req *UpdateGrantRequest, userID string) (*GrantResponse, error)
	UpdateStatus(ctx context.Context, id string, req *GrantStatusRequest, userID string) error
	Delete(ctx context.Context, id string, userID string) error

	List(ctx context.Context, filters repositories.GrantFilters, userID string) (*GrantListResponse, error)
	Search(ctx context.Context, query string, filters repositories.GrantFilters, userID string) (*GrantListResponse, error)
}

type CarbonService interface {
	Create(ctx context.Context, req *CreateCarbonRequest, userID string) (*CarbonResponse, error)
	GetByID(ctx context.Context, id string, userID string) (*CarbonResponse, error)
	GetByIDWithDetails(ctx context.Context, id string, userID string) (*CarbonResponse, error)
	Update(ctx context.Context, id string, req *UpdateCarbonRequest, userID string) (*CarbonResponse, error)
	UpdateStatus(ctx context.Context, id string, req *CarbonStatusRequest, userID string) error
	Delete(ctx context.Context, id string, userID string) error

	List(ctx context.Context, filters repositories.CarbonFilters, userID string) (*CarbonListResponse, error)

	SetEstimate(ctx context.Context, projectID string, req *CarbonEstimateRequest, userID string) (*models.CarbonEstimate, error)
	GetEstimate(ctx context.Context, projectID string, userID string) (*models.CarbonEstimate, error)
	SetVerificationSchedule(ctx context.Context, projectID string, req *VerificationScheduleRequest, userID string) (*models.VerificationSchedule, error)
	GetVerificationSchedule(ctx context.Context, projectID string, userID string) (*models.VerificationSchedule, error)
}

// SectionService manages the per-project document sections the compliance
// scorer reads. Sections apply to grants and carbon projects alike.
type SectionService interface {
	UpsertOrganizationalProfile(ctx context.Context, projectID string, req *OrganizationalProfileRequest, userID string) (*models.OrganizationalProfile, error)
	GetOrganizationalProfile(ctx context.Context, projectID string, userID string) (*models.OrganizationalProfile, error)

	UpsertLandTenure(ctx context.Context, projectID string, req *LandTenureRequest, userID string) (*models.LandTenure, error)
	GetLandTenure(ctx context.Context, projectID string, userID string) (*models.LandTenure, error)

	AddForestStatusRecord(ctx context.Context, projectID string, req *ForestStatusRecordRequest, userID string) (*models.ForestStatusRecord, error)
	ListForestStatusRecords(ctx context.Context, projectID string, userID string) ([]*models.ForestStatusRecord, error)

	AddDeforestationDriver(ctx context.Context, projectID string, req *DeforestationDriverRequest, userID string) (*models.DeforestationDriver, error)
	ListDeforestationDrivers(ctx context.Context, projectID string, userID string) ([]*models.DeforestationDriver, error)

	UpsertModel(ctx context.Context, projectID string, req *ProjectModelRequest, userID string) (*models.ProjectModel, error)
	GetModel(ctx context.Context, projectID, kind string, userID string) (*models.ProjectModel, error)

	AddMilestone(ctx context.Context, projectID string, req *MilestoneRequest, userID string) (*models.TimelineMilestone, error)
	ListMilestones(ctx context.Context, projectID string, userID string) ([]*models.TimelineMilestone, error)

	AddKMLFile(ctx context.Context, projectID string, req *KMLFileRequest, userID string) (*models.KMLFile, error)
}

type OrganizationService interface {
	Create(ctx context.Context, req *CreateOrganizationRequest, userID string) (*models.Organization, error)
	GetByID(ctx context.Context, id string, userID string) (*models.Organization, error)
	Update(ctx context.Context, id string, req *UpdateOrganizationRequest, userID string) (*models.Organization, error)
	Delete(ctx context.Context, id string, userID string) error
	List(ctx context.Context, filters repositories.OrganizationFilters, userID string) (*OrganizationListResponse, error)

	LinkProject(ctx context.Context, projectID string, req *LinkOrganizationRequest, userID string) error
	UnlinkProject(ctx context.Context, projectID, organizationID string, userID string) error
	ListProjectLinks(ctx context.Context, projectID string, userID string) ([]*models.ProjectOrganization, error)
}

type FinanceService interface {
	CreateLedger(ctx context.Context, req *CreateLedgerRequest, userID string) (*models.Ledger, error)
	GetLedger(ctx context.Context, id string, userID string) (*models.Ledger, error)
	GetLedgerWithDetails(ctx context.Context, id string, userID string) (*models.Ledger, error)
	ListLedgersByProject(ctx context.Context, projectID string, userID string) ([]*models.Ledger, error)
	CloseLedger(ctx context.Context, id string, userID string) error

	AddBudgetLine(ctx context.Context, ledgerID string, req *BudgetLineRequest, userID string) (*models.BudgetLine, error)
	UpdateBudgetLine(ctx context.Context, ledgerID string, lineID uint, req *BudgetLineRequest, userID string) (*models.BudgetLine, error)
	DeleteBudgetLine(ctx context.Context, ledgerID string, lineID uint, userID string) error
	ListBudgetLines(ctx context.Context, ledgerID string, userID string) ([]*models.BudgetLine, error)

	RecordTransaction(ctx context.Context, ledgerID string, req *CreateTransactionRequest, userID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ledgerID string, filters repositories.TransactionFilters, userID string) (*TransactionListResponse, error)
	DeleteTransaction(ctx context.Context, ledgerID, txID string, userID string) error

	GetLedgerSummary(ctx context.Context, ledgerID string, userID string) (*repositories.LedgerSummary, error)
}

// ComplianceService scores a project's document completeness.
type ComplianceService interface {
	CheckProject(ctx context.Context, projectID string, userID string) (*ComplianceReport, error)
	CheckProjectOfType(ctx context.Context, projectID, projectType, userID string) (*ComplianceReport, error)
}

type DashboardService interface {
	GetOverview(ctx context.Context, userID string) (*DashboardOverview, error)
}

type UserService interface {
	GetProfile(ctx context.Context, id string, requesterID string) (*models.UserProfile, error)
	List(ctx context.Context, filters repositories.ProfileFilters, requesterID string) (*ProfileListResponse, error)
	Search(ctx context.Context, query string, filters repositories.ProfileFilters, requesterID string) (*ProfileListResponse, error)
	UpdateRole(ctx context.Context, id string, req *UpdateUserRoleRequest, requesterID string) error
	GetPermissions(ctx context.Context, id string) ([]rbac.Permission, error)
}

type ImportExportService interface {
	ExportGrants(ctx context.Context, filters repositories.GrantFilters, userID string) ([]byte, error)
	ExportLedger(ctx context.Context, ledgerID string, userID string) ([]byte, error)
	ImportTransactions(ctx context.Context, ledgerID string, file io.Reader, userID string) (*ImportResult, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Grant() GrantService
	Carbon() CarbonService
	Section() SectionService
	Organization() OrganizationService
	Finance() FinanceService
	Compliance() ComplianceService
	Dashboard() DashboardService
	User() UserService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
