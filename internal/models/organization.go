package models

import (
	"time"

	"gorm.io/gorm"
)

type OrganizationType string

const (
	OrgTypeCommunity   OrganizationType = "community_group"
	OrgTypeCooperative OrganizationType = "cooperative"
	OrgTypeNGO         OrganizationType = "ngo"
	OrgTypeVillage     OrganizationType = "village_enterprise"
)

// Organization is a community group, cooperative or NGO that holds or
// implements a land grant or carbon project.
type Organization struct {
	ID   string           `json:"id" gorm:"primaryKey;size:36"`
	Code string           `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name string           `json:"name" gorm:"not null;size:200"`
	Type OrganizationType `json:"type" gorm:"not null;size:50"`

	Regency       string  `json:"regency" gorm:"size:100;index"`
	Province      string  `json:"province" gorm:"size:100"`
	ContactPerson *string `json:"contact_person" gorm:"size:100"`
	ContactPhone  *string `json:"contact_phone" gorm:"size:30"`
	MemberCount   int     `json:"member_count" gorm:"default:0"`

	CreatedBy string `json:"created_by" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Organization) TableName() string {
	return "organizations"
}

// ProjectOrganization links an organization to a project (grant or carbon).
type ProjectOrganization struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ProjectID      string    `json:"project_id" gorm:"not null;size:36;index:idx_project_org,unique"`
	OrganizationID string    `json:"organization_id" gorm:"not null;size:36;index:idx_project_org,unique"`
	Relationship   string    `json:"relationship" gorm:"size:50;default:holder"`
	CreatedAt      time.Time `json:"created_at"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (ProjectOrganization) TableName() string {
	return "project_organizations"
}
