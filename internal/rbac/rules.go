package rbac

// Default policy. Clinicians run the full clinical workflow; staff handle
// front-desk record keeping; admin manages accounts and the audit trail.
var RolePermissions = map[string][]string{
	"clinician": {
		"scale:view",
		"patient:view",
		"patient:edit",
		"assessment:create",
		"assessment:save",
		"assessment:submit",
		"assessment:view",
		"assessment:delete",
		"record:view",
		"record:edit",
		"export:run",
		"user:change_password",
	},
	"staff": {
		"scale:view",
		"patient:view",
		"patient:edit",
		"assessment:view",
		"record:view",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
