package models

import (
	"time"

	"gorm.io/datatypes"
)

// Project sections are the per-project documents the compliance scorer reads.
// Each section is keyed by project_id and shared between grants and carbon
// projects; a project has at most one row per section except for the history
// and driver tables.

// OrganizationalProfile holds governance and membership information.
type OrganizationalProfile struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"uniqueIndex;not null;size:36"`

	LegalStatus     *string `json:"legal_status" gorm:"size:100"`
	GovernanceBody  *string `json:"governance_body" gorm:"size:200"`
	MemberCount     int     `json:"member_count"`
	WomenMembers    int     `json:"women_members"`
	DecisionProcess *string `json:"decision_process" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrganizationalProfile) TableName() string {
	return "organizational_profiles"
}

// LandTenure records the legal basis for land use.
type LandTenure struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"uniqueIndex;not null;size:36"`

	TenureType    *string    `json:"tenure_type" gorm:"size:100"`
	LegalBasis    *string    `json:"legal_basis" gorm:"size:200"`
	ConflictNotes *string    `json:"conflict_notes" gorm:"type:text"`
	ResolvedAt    *time.Time `json:"resolved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LandTenure) TableName() string {
	return "land_tenures"
}

// ForestStatusRecord is one year of forest-cover history for a project.
type ForestStatusRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"not null;size:36;index"`

	Year          int     `json:"year" gorm:"not null"`
	ForestCoverHa float64 `json:"forest_cover_ha"`
	DegradedHa    float64 `json:"degraded_ha"`
	Source        *string `json:"source" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`
}

func (ForestStatusRecord) TableName() string {
	return "forest_status_records"
}

// DeforestationDriver is one identified driver of forest loss.
type DeforestationDriver struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"not null;size:36;index"`

	Driver      string  `json:"driver" gorm:"not null;size:100"`
	Severity    string  `json:"severity" gorm:"size:20;default:medium"`
	Mitigation  *string `json:"mitigation" gorm:"type:text"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

func (DeforestationDriver) TableName() string {
	return "deforestation_drivers"
}

// ProjectModel is a flexible social / carbon / financial model document.
// Kind discriminates the three model sections.
type ProjectModel struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"not null;size:36;index:idx_project_model,unique"`
	Kind      string `json:"kind" gorm:"not null;size:20;index:idx_project_model,unique"`

	Payload datatypes.JSON `json:"payload" gorm:"not null"`
	Summary *string        `json:"summary" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	ModelKindSocial    = "social"
	ModelKindCarbon    = "carbon"
	ModelKindFinancial = "financial"
)

func (ProjectModel) TableName() string {
	return "project_models"
}

// TimelineMilestone is one implementation-timeline entry.
type TimelineMilestone struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"not null;size:36;index"`

	Title     string     `json:"title" gorm:"not null;size:200"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    string     `json:"status" gorm:"size:20;default:planned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TimelineMilestone) TableName() string {
	return "timeline_milestones"
}
