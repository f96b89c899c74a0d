package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

// The full role set exercised by route handlers and the user-management
// endpoints. Finance roles are scoped per funding stream.
const (
	RoleAdmin                UserRole = "admin"
	RoleMonev                UserRole = "monev"
	RoleViewer               UserRole = "viewer"
	RoleProgramPlanner       UserRole = "program_planner"
	RoleProgramImplementer   UserRole = "program_implementer"
	RoleCarbonSpecialist     UserRole = "carbon_specialist"
	RoleMonevOfficer         UserRole = "monev_officer"
	RoleFinanceManager       UserRole = "finance_manager"
	RoleFinanceOperational   UserRole = "finance_operational"
	RoleFinanceProjectCarbon UserRole = "finance_project_carbon"
	RoleFinanceProjectImpl   UserRole = "finance_project_implementation"
	RoleFinanceProjectSocial UserRole = "finance_project_social"
	RoleInvestor             UserRole = "investor"
)

// AllRoles lists every assignable role. Order is stable for API responses.
var AllRoles = []UserRole{
	RoleAdmin,
	RoleMonev,
	RoleViewer,
	RoleProgramPlanner,
	RoleProgramImplementer,
	RoleCarbonSpecialist,
	RoleMonevOfficer,
	RoleFinanceManager,
	RoleFinanceOperational,
	RoleFinanceProjectCarbon,
	RoleFinanceProjectImpl,
	RoleFinanceProjectSocial,
	RoleInvestor,
}

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r UserRole) bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// UserProfile is the persisted record associating a Casdoor identity with a
// role and display metadata. Exactly one role per user at any time.
type UserProfile struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;size:50;default:viewer"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
