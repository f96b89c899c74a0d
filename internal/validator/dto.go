package validator

import (
	"time"

	"github.com/lestari-hub/forestry-service/internal/models"
)

// GrantCreateRequest represents the request structure for creating grants
type GrantCreateRequest struct {
	Code     string             `json:"code" validate:"required,project_code"`
	Name     string             `json:"name" validate:"required,project_name"`
	Scheme   models.GrantScheme `json:"scheme" validate:"required,grant_scheme"`
	Regency  string             `json:"regency" validate:"required,min=2,max=100"`
	Province string             `json:"province" validate:"omitempty,max=100"`
	AreaHa   float64            `json:"area_ha" validate:"required,gt=0"`

	PermitNumber *string    `json:"permit_number" validate:"omitempty,max=100"`
	PermitDate   *time.Time `json:"permit_date"`
	ValidUntil   *time.Time `json:"valid_until"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
}

// GrantUpdateRequest represents the request structure for updating grants
type GrantUpdateRequest struct {
	Name     *string             `json:"name" validate:"omitempty,project_name"`
	Scheme   *models.GrantScheme `json:"scheme" validate:"omitempty,grant_scheme"`
	Regency  *string             `json:"regency" validate:"omitempty,min=2,max=100"`
	Province *string             `json:"province" validate:"omitempty,max=100"`
	AreaHa   *float64            `json:"area_ha" validate:"omitempty,gt=0"`

	PermitNumber *string    `json:"permit_number" validate:"omitempty,max=100"`
	PermitDate   *time.Time `json:"permit_date"`
	ValidUntil   *time.Time `json:"valid_until"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
}

// GrantStatusRequest changes a grant's lifecycle status
type GrantStatusRequest struct {
	Status models.GrantStatus `json:"status" validate:"required,grant_status"`
}

// CarbonCreateRequest represents the request structure for creating carbon projects
type CarbonCreateRequest struct {
	Code     string  `json:"code" validate:"required,project_code"`
	Name     string  `json:"name" validate:"required,project_name"`
	Regency  string  `json:"regency" validate:"required,min=2,max=100"`
	Province string  `json:"province" validate:"omitempty,max=100"`
	AreaHa   float64 `json:"area_ha" validate:"required,gt=0"`

	Standard    string  `json:"standard" validate:"omitempty,max=50"`
	Methodology *string `json:"methodology" validate:"omitempty,max=100"`
	GrantID     *string `json:"grant_id" validate:"omitempty,uuid"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// CarbonUpdateRequest represents the request structure for updating carbon projects
type CarbonUpdateRequest struct {
	Name     *string  `json:"name" validate:"omitempty,project_name"`
	Regency  *string  `json:"regency" validate:"omitempty,min=2,max=100"`
	Province *string  `json:"province" validate:"omitempty,max=100"`
	AreaHa   *float64 `json:"area_ha" validate:"omitempty,gt=0"`

	Standard    *string `json:"standard" validate:"omitempty,max=50"`
	Methodology *string `json:"methodology" validate:"omitempty,max=100"`
	VerraID     *string `json:"verra_id" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// CarbonStatusRequest changes a carbon project's lifecycle status
type CarbonStatusRequest struct {
	Status models.CarbonProjectStatus `json:"status" validate:"required,carbon_status"`
}

// CarbonEstimateRequest sets the emission-reduction estimate for a project
type CarbonEstimateRequest struct {
	BaselineTCO2e   float64 `json:"baseline_tco2e" validate:"required,gt=0"`
	ProjectedTCO2e  float64 `json:"projected_tco2e" validate:"required,gt=0"`
	AnnualTCO2e     float64 `json:"annual_tco2e" validate:"omitempty,gte=0"`
	CreditingYears  int     `json:"crediting_years" validate:"omitempty,min=1,max=100"`
	UncertaintyPct  float64 `json:"uncertainty_pct" validate:"omitempty,gte=0,lte=100"`
	MethodologyNote *string `json:"methodology_note" validate:"omitempty,max=2000"`
}

// VerificationScheduleRequest sets the verification cadence for a project
type VerificationScheduleRequest struct {
	FrequencyMonths   int        `json:"frequency_months" validate:"required,min=1,max=120"`
	FirstVerification *time.Time `json:"first_verification"`
	VerifierBody      *string    `json:"verifier_body" validate:"omitempty,max=200"`
}

// OrganizationCreateRequest represents the request structure for creating organizations
type OrganizationCreateRequest struct {
	Code string                  `json:"code" validate:"required,project_code"`
	Name string                  `json:"name" validate:"required,project_name"`
	Type models.OrganizationType `json:"type" validate:"required,organization_type"`

	Regency       string  `json:"regency" validate:"omitempty,max=100"`
	Province      string  `json:"province" validate:"omitempty,max=100"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=100"`
	ContactPhone  *string `json:"contact_phone" validate:"omitempty,max=30"`
	MemberCount   int     `json:"member_count" validate:"omitempty,gte=0"`
}

// OrganizationUpdateRequest represents the request structure for updating organizations
type OrganizationUpdateRequest struct {
	Name *string                  `json:"name" validate:"omitempty,project_name"`
	Type *models.OrganizationType `json:"type" validate:"omitempty,organization_type"`

	Regency       *string `json:"regency" validate:"omitempty,max=100"`
	Province      *string `json:"province" validate:"omitempty,max=100"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=100"`
	ContactPhone  *string `json:"contact_phone" validate:"omitempty,max=30"`
	MemberCount   *int    `json:"member_count" validate:"omitempty,gte=0"`
}

// LinkOrganizationRequest attaches an organization to a project
type LinkOrganizationRequest struct {
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
	Relationship   string `json:"relationship" validate:"omitempty,oneof=holder implementer partner funder"`
}

// ===== SECTION REQUESTS =====

// OrganizationalProfileRequest upserts the governance section of a project
type OrganizationalProfileRequest struct {
	LegalStatus     *string `json:"legal_status" validate:"omitempty,max=100"`
	GovernanceBody  *string `json:"governance_body" validate:"omitempty,max=200"`
	MemberCount     int     `json:"member_count" validate:"omitempty,gte=0"`
	WomenMembers    int     `json:"women_members" validate:"omitempty,gte=0"`
	DecisionProcess *string `json:"decision_process" validate:"omitempty,max=5000"`
}

// LandTenureRequest upserts the land-tenure section of a project
type LandTenureRequest struct {
	TenureType    *string    `json:"tenure_type" validate:"omitempty,max=100"`
	LegalBasis    *string    `json:"legal_basis" validate:"omitempty,max=200"`
	ConflictNotes *string    `json:"conflict_notes" validate:"omitempty,max=5000"`
	ResolvedAt    *time.Time `json:"resolved_at"`
}

// ForestStatusRecordRequest adds one year of forest-cover history
type ForestStatusRecordRequest struct {
	Year          int     `json:"year" validate:"required,fiscal_year"`
	ForestCoverHa float64 `json:"forest_cover_ha" validate:"omitempty,gte=0"`
	DegradedHa    float64 `json:"degraded_ha" validate:"omitempty,gte=0"`
	Source        *string `json:"source" validate:"omitempty,max=200"`
}

// DeforestationDriverRequest records one identified driver of forest loss
type DeforestationDriverRequest struct {
	Driver      string  `json:"driver" validate:"required,min=2,max=100"`
	Severity    string  `json:"severity" validate:"omitempty,oneof=low medium high"`
	Mitigation  *string `json:"mitigation" validate:"omitempty,max=5000"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// ProjectModelRequest upserts a social, carbon or financial model document
type ProjectModelRequest struct {
	Kind    string      `json:"kind" validate:"required,oneof=social carbon financial"`
	Payload interface{} `json:"payload" validate:"required"`
	Summary *string     `json:"summary" validate:"omitempty,max=5000"`
}

// MilestoneRequest adds one implementation-timeline entry
type MilestoneRequest struct {
	Title     string     `json:"title" validate:"required,min=2,max=200"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
	Status    string     `json:"status" validate:"omitempty,oneof=planned ongoing done"`
}

// KMLFileRequest registers an uploaded boundary file
type KMLFileRequest struct {
	FileName   string `json:"file_name" validate:"required,max=255,endswith=.kml"`
	StorageKey string `json:"storage_key" validate:"required,max=500"`
	SizeBytes  int64  `json:"size_bytes" validate:"omitempty,gte=0"`
	IsVerra    bool   `json:"is_verra"`
}

// ===== FINANCE REQUESTS =====

// LedgerCreateRequest opens a financial ledger for a project and fiscal year
type LedgerCreateRequest struct {
	Code       string `json:"code" validate:"required,project_code"`
	ProjectID  string `json:"project_id" validate:"required,uuid"`
	FiscalYear int    `json:"fiscal_year" validate:"required,fiscal_year"`
	Currency   string `json:"currency" validate:"omitempty,len=3"`
}

// BudgetLineRequest creates or updates a planned allocation
type BudgetLineRequest struct {
	Category    models.BudgetCategory `json:"category" validate:"required,budget_category"`
	Description string                `json:"description" validate:"omitempty,max=500"`
	Amount      float64               `json:"amount" validate:"required,gt=0"`
}

// TransactionCreateRequest records one financial movement
type TransactionCreateRequest struct {
	Direction   models.TransactionDirection `json:"direction" validate:"required,tx_direction"`
	Category    models.BudgetCategory       `json:"category" validate:"required,budget_category"`
	Amount      float64                     `json:"amount" validate:"required,gt=0"`
	Description string                      `json:"description" validate:"omitempty,max=500"`
	Reference   *string                     `json:"reference" validate:"omitempty,max=100"`
	TxDate      time.Time                   `json:"tx_date" validate:"required"`
}

// ===== USER REQUESTS =====

// UpdateUserRoleRequest assigns a new role to a user
type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,user_role"`
}
