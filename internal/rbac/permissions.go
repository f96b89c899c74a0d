package rbac

import (
	"fmt"

	"github.com/lestari-hub/forestry-service/internal/models"
)

// Permission is a named capability. Every route guard references one of
// these names; role lists are never written at call sites.
type Permission string

const (
	PermissionRead        Permission = "READ"
	PermissionEdit        Permission = "EDIT"
	PermissionDelete      Permission = "DELETE"
	PermissionManageUsers Permission = "MANAGE_USERS"

	PermissionGrantManage        Permission = "GRANT_MANAGE"
	PermissionCarbonProjects     Permission = "CARBON_PROJECTS"
	PermissionProgramManagement  Permission = "PROGRAM_MANAGEMENT"
	PermissionOrganizationManage Permission = "ORGANIZATION_MANAGE"

	PermissionFinancialView              Permission = "FINANCIAL_VIEW"
	PermissionFinancialBudgetManage      Permission = "FINANCIAL_BUDGET_MANAGE"
	PermissionFinancialTransactionManage Permission = "FINANCIAL_TRANSACTION_MANAGE"
	PermissionFinancialReports           Permission = "FINANCIAL_REPORTS"

	PermissionComplianceCheck      Permission = "COMPLIANCE_CHECK"
	PermissionMonitoringEvaluation Permission = "MONITORING_EVALUATION"
	PermissionImportData           Permission = "IMPORT_DATA"
	PermissionExportReports        Permission = "EXPORT_REPORTS"
)

// permissionTable is the single source of truth mapping each permission to
// the roles allowed to exercise it. It is built once at package init and
// never mutated; Roles() hands out copies.
var permissionTable = map[Permission][]models.UserRole{
	PermissionRead: {
		models.RoleAdmin, models.RoleMonev, models.RoleViewer,
		models.RoleProgramPlanner, models.RoleProgramImplementer,
		models.RoleCarbonSpecialist, models.RoleMonevOfficer,
	},
	PermissionEdit: {
		models.RoleAdmin, models.RoleMonev, models.RoleProgramPlanner,
		models.RoleProgramImplementer, models.RoleCarbonSpecialist,
	},
	PermissionDelete:      {models.RoleAdmin},
	PermissionManageUsers: {models.RoleAdmin},

	PermissionGrantManage: {
		models.RoleAdmin, models.RoleProgramPlanner, models.RoleProgramImplementer,
	},
	PermissionCarbonProjects: {
		models.RoleAdmin, models.RoleCarbonSpecialist,
	},
	PermissionProgramManagement: {
		models.RoleAdmin, models.RoleProgramPlanner, models.RoleCarbonSpecialist,
	},
	PermissionOrganizationManage: {
		models.RoleAdmin, models.RoleProgramPlanner, models.RoleProgramImplementer,
	},

	PermissionFinancialView: {
		models.RoleAdmin, models.RoleFinanceManager, models.RoleFinanceOperational,
		models.RoleFinanceProjectCarbon, models.RoleFinanceProjectImpl,
		models.RoleFinanceProjectSocial, models.RoleMonev, models.RoleInvestor,
	},
	PermissionFinancialBudgetManage: {
		models.RoleAdmin, models.RoleFinanceManager,
	},
	PermissionFinancialTransactionManage: {
		models.RoleAdmin, models.RoleFinanceManager, models.RoleFinanceOperational,
		models.RoleFinanceProjectCarbon, models.RoleFinanceProjectImpl,
		models.RoleFinanceProjectSocial,
	},
	PermissionFinancialReports: {
		models.RoleAdmin, models.RoleFinanceManager, models.RoleMonev, models.RoleInvestor,
	},

	PermissionComplianceCheck: {
		models.RoleAdmin, models.RoleMonev, models.RoleMonevOfficer,
		models.RoleCarbonSpecialist, models.RoleProgramPlanner,
	},
	PermissionMonitoringEvaluation: {
		models.RoleAdmin, models.RoleMonev, models.RoleMonevOfficer,
	},
	PermissionImportData: {
		models.RoleAdmin, models.RoleFinanceManager, models.RoleFinanceOperational,
	},
	PermissionExportReports: {
		models.RoleAdmin, models.RoleFinanceManager, models.RoleMonev,
		models.RoleMonevOfficer, models.RoleInvestor,
	},
}

func init() {
	if err := validateTable(permissionTable); err != nil {
		panic(err)
	}
}

// validateTable enforces the structural invariants of the permission table:
// every role list is non-empty, contains only known roles, carries no
// duplicates, and includes admin.
func validateTable(table map[Permission][]models.UserRole) error {
	for perm, roles := range table {
		if len(roles) == 0 {
			return fmt.Errorf("rbac: permission %s has an empty role list", perm)
		}
		seen := make(map[models.UserRole]bool, len(roles))
		hasAdmin := false
		for _, role := range roles {
			if !models.IsValidRole(role) {
				return fmt.Errorf("rbac: permission %s references unknown role %q", perm, role)
			}
			if seen[role] {
				return fmt.Errorf("rbac: permission %s lists role %q twice", perm, role)
			}
			seen[role] = true
			if role == models.RoleAdmin {
				hasAdmin = true
			}
		}
		if !hasAdmin {
			return fmt.Errorf("rbac: permission %s does not include admin", perm)
		}
	}
	return nil
}

// Roles returns the roles allowed to exercise perm, or false when the
// permission is unknown. The returned slice is a copy.
func Roles(perm Permission) ([]models.UserRole, bool) {
	roles, ok := permissionTable[perm]
	if !ok {
		return nil, false
	}
	out := make([]models.UserRole, len(roles))
	copy(out, roles)
	return out, true
}

// AllPermissions returns every permission name in the table.
func AllPermissions() []Permission {
	perms := make([]Permission, 0, len(permissionTable))
	for perm := range permissionTable {
		perms = append(perms, perm)
	}
	return perms
}
