package model

// Permission codes that can be granted per user on top of the role.
const (
	PermUserView        = "user:view"
	PermUserCreate      = "user:create"
	PermProductCreate   = "product:create"
	PermProductUpdate   = "product:update"
	PermProductExport   = "product:export"
	PermMovementView    = "movement:view"
	PermMovementCreate  = "movement:create"
	PermReferenceManage = "reference:manage"
	PermChecklistManage = "checklist:manage"
	PermChecklistRun    = "checklist:run"
)

// DefaultPermissions are granted to a user when none are given explicitly.
var DefaultPermissions = map[Role][]string{
	RoleAdmin: {
		PermUserView, PermUserCreate,
		PermProductCreate, PermProductUpdate, PermProductExport,
		PermMovementView, PermMovementCreate,
		PermReferenceManage,
		PermChecklistManage, PermChecklistRun,
	},
	RoleManager: {
		PermUserView,
		PermProductCreate, PermProductUpdate, PermProductExport,
		PermMovementView, PermMovementCreate,
		PermReferenceManage,
		PermChecklistManage, PermChecklistRun,
	},
	RoleOperator: {
		PermMovementView, PermMovementCreate,
		PermChecklistRun,
	},
}
