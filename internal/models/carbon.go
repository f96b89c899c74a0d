package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CarbonProjectStatus string

const (
	CarbonStatusDesign       CarbonProjectStatus = "design"
	CarbonStatusValidation   CarbonProjectStatus = "validation"
	CarbonStatusRegistered   CarbonProjectStatus = "registered"
	CarbonStatusVerification CarbonProjectStatus = "verification"
	CarbonStatusIssuance     CarbonProjectStatus = "issuance"
	CarbonStatusRetired      CarbonProjectStatus = "retired"
)

// CarbonProject is a carbon-credit project, usually layered on top of one or
// more social-forestry grants in the same landscape.
type CarbonProject struct {
	ID     string              `json:"id" gorm:"primaryKey;size:36"`
	Code   string              `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name   string              `json:"name" gorm:"not null;size:200"`
	Status CarbonProjectStatus `json:"status" gorm:"not null;size:20;default:design;index"`

	Regency  string  `json:"regency" gorm:"not null;size:100;index"`
	Province string  `json:"province" gorm:"size:100"`
	AreaHa   float64 `json:"area_ha" gorm:"not null"`

	Standard    string  `json:"standard" gorm:"size:50;default:verra_vcs"`
	Methodology *string `json:"methodology" gorm:"size:100"`
	VerraID     *string `json:"verra_id" gorm:"size:50"`

	GrantID     *string `json:"grant_id" gorm:"size:36;index"`
	Description *string `json:"description" gorm:"type:text"`
	CreatedBy   string  `json:"created_by" gorm:"not null;size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Organizations []ProjectOrganization `json:"organizations,omitempty" gorm:"foreignKey:ProjectID"`
}

func (CarbonProject) TableName() string {
	return "carbon_projects"
}

// CarbonEstimate captures the projected emission reductions for a project.
type CarbonEstimate struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"uniqueIndex;not null;size:36"`

	BaselineTCO2e   float64 `json:"baseline_tco2e" gorm:"not null"`
	ProjectedTCO2e  float64 `json:"projected_tco2e" gorm:"not null"`
	AnnualTCO2e     float64 `json:"annual_tco2e"`
	CreditingYears  int     `json:"crediting_years" gorm:"default:30"`
	UncertaintyPct  float64 `json:"uncertainty_pct"`
	MethodologyNote *string `json:"methodology_note" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CarbonEstimate) TableName() string {
	return "carbon_estimates"
}

// VerificationSchedule defines how often a carbon project is verified.
type VerificationSchedule struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"uniqueIndex;not null;size:36"`

	FrequencyMonths   int        `json:"frequency_months" gorm:"not null"`
	FirstVerification *time.Time `json:"first_verification"`
	NextVerification  *time.Time `json:"next_verification"`
	VerifierBody      *string    `json:"verifier_body" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VerificationSchedule) TableName() string {
	return "verification_schedules"
}

// KMLFile is an uploaded project boundary file. Verra KMLs carry the
// registry-submission variant of the boundary.
type KMLFile struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"not null;size:36;index"`

	FileName   string         `json:"file_name" gorm:"not null;size:255"`
	StorageKey string         `json:"storage_key" gorm:"not null;size:500"`
	SizeBytes  int64          `json:"size_bytes"`
	IsVerra    bool           `json:"is_verra" gorm:"default:false;index"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`

	UploadedBy string    `json:"uploaded_by" gorm:"size:255"`
	CreatedAt  time.Time `json:"created_at"`
}

func (KMLFile) TableName() string {
	return "kml_files"
}
