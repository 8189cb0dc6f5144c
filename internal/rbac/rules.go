package rbac

const (
	PermPracticeUse     = "practice:use"
	PermDashboardView   = "dashboard:view"
	PermDashboardDelete = "dashboard:delete"
	PermDashboardExport = "dashboard:export"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermPracticeUse,
	},
	"teacher": {
		"dashboard:*",
	},
	"admin": {
		"*",
	},
}
