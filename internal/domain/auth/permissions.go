package auth

import "context"

const (
	PermTimeOffRead    = "timeoff.read"
	PermTimeOffWrite   = "timeoff.write"
	PermTimeOffApprove = "timeoff.approve"
	PermTimeOffManage  = "timeoff.manage"
	PermTimeOffAdmin   = "timeoff.admin"
	PermSettingsRead   = "settings.read"
	PermSettingsWrite  = "settings.write"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermTimeOffRead,
		PermTimeOffWrite,
		PermSettingsRead,
	},
	RoleManager: {
		PermTimeOffRead,
		PermTimeOffWrite,
		PermTimeOffApprove,
		PermTimeOffManage,
		PermSettingsRead,
	},
	RoleAdmin: {
		PermTimeOffRead,
		PermTimeOffWrite,
		PermTimeOffApprove,
		PermTimeOffManage,
		PermTimeOffAdmin,
		PermSettingsRead,
		PermSettingsWrite,
	},
}

func RoleHasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// Permissions satisfies the transport PermissionStore contract from the
// static role map; roles are few and fixed, so no table backs them.
type Permissions struct{}

func (Permissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return RoleHasPermission(role, permission), nil
}
