package rbac

import (
	"testing"

	"github.com/lestari-hub/forestry-service/internal/models"
)

func TestPermissionTable_AdminSuperset(t *testing.T) {
	for perm, roles := range permissionTable {
		hasAdmin := false
		for _, role := range roles {
			if role == models.RoleAdmin {
				hasAdmin = true
				break
			}
		}
		if !hasAdmin {
			t.Errorf("permission %s does not include admin", perm)
		}
	}
}

func TestPermissionTable_NonEmptyKnownRoles(t *testing.T) {
	for perm, roles := range permissionTable {
		if len(roles) == 0 {
			t.Errorf("permission %s has an empty role list", perm)
		}
		for _, role := range roles {
			if !models.IsValidRole(role) {
				t.Errorf("permission %s references unknown role %q", perm, role)
			}
		}
	}
}

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name    string
		table   map[Permission][]models.UserRole
		wantErr bool
	}{
		{
			name:    "current table",
			table:   permissionTable,
			wantErr: false,
		},
		{
			name: "empty role list",
			table: map[Permission][]models.UserRole{
				PermissionRead: {},
			},
			wantErr: true,
		},
		{
			name: "missing admin",
			table: map[Permission][]models.UserRole{
				PermissionRead: {models.RoleViewer},
			},
			wantErr: true,
		},
		{
			name: "unknown role",
			table: map[Permission][]models.UserRole{
				PermissionRead: {models.RoleAdmin, models.UserRole("superuser")},
			},
			wantErr: true,
		},
		{
			name: "duplicate role",
			table: map[Permission][]models.UserRole{
				PermissionRead: {models.RoleAdmin, models.RoleViewer, models.RoleViewer},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTable(tt.table)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoles_ReturnsCopy(t *testing.T) {
	roles, ok := Roles(PermissionDelete)
	if !ok {
		t.Fatal("DELETE should be in the table")
	}
	if len(roles) != 1 || roles[0] != models.RoleAdmin {
		t.Fatalf("DELETE roles = %v, want [admin]", roles)
	}

	roles[0] = models.RoleViewer
	again, _ := Roles(PermissionDelete)
	if again[0] != models.RoleAdmin {
		t.Error("mutating the returned slice must not affect the table")
	}
}

func TestRoles_UnknownPermission(t *testing.T) {
	if _, ok := Roles(Permission("NOT_A_PERMISSION")); ok {
		t.Error("unknown permission should not resolve")
	}
}

func TestAllPermissions(t *testing.T) {
	perms := AllPermissions()
	if len(perms) != len(permissionTable) {
		t.Errorf("AllPermissions() returned %d entries, want %d", len(perms), len(permissionTable))
	}
}
