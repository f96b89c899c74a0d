package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectType string

const (
	ProjectTypePerhutananSosial ProjectType = "perhutanan_sosial"
	ProjectTypeCarbon           ProjectType = "carbon_project"
)

type GrantStatus string

const (
	GrantStatusDraft     GrantStatus = "draft"
	GrantStatusProposed  GrantStatus = "proposed"
	GrantStatusActive    GrantStatus = "active"
	GrantStatusSuspended GrantStatus = "suspended"
	GrantStatusClosed    GrantStatus = "closed"
)

type GrantScheme string

// Social forestry schemes recognised by the ministry.
const (
	SchemeHutanDesa           GrantScheme = "hutan_desa"
	SchemeHutanKemasyarakatan GrantScheme = "hutan_kemasyarakatan"
	SchemeHutanTanamanRakyat  GrantScheme = "hutan_tanaman_rakyat"
	SchemeHutanAdat           GrantScheme = "hutan_adat"
	SchemeKemitraanKehutanan  GrantScheme = "kemitraan_kehutanan"
)

// Grant is a social-forestry land grant (perhutanan sosial project).
type Grant struct {
	ID     string      `json:"id" gorm:"primaryKey;size:36"`
	Code   string      `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name   string      `json:"name" gorm:"not null;size:200"`
	Status GrantStatus `json:"status" gorm:"not null;size:20;default:draft;index"`
	Scheme GrantScheme `json:"scheme" gorm:"not null;size:50"`

	Regency  string  `json:"regency" gorm:"not null;size:100;index"`
	Province string  `json:"province" gorm:"size:100"`
	AreaHa   float64 `json:"area_ha" gorm:"not null"`

	PermitNumber *string    `json:"permit_number" gorm:"size:100"`
	PermitDate   *time.Time `json:"permit_date"`
	ValidUntil   *time.Time `json:"valid_until"`

	Description *string `json:"description" gorm:"type:text"`
	CreatedBy   string  `json:"created_by" gorm:"not null;size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Organizations []ProjectOrganization `json:"organizations,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Grant) TableName() string {
	return "grants"
}
