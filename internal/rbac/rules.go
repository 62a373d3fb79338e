package rbac

const (
	PermQuestionCreate = "question:create"
	PermQuestionUpdate = "question:update"
	PermQuestionDelete = "question:delete"
	PermResultViewAll  = "result:view-all"
	PermResultDelete   = "result:delete"
	PermEventsRead     = "events:read"
)

// RolePermissions is the default policy. Students are anonymous and never
// hold a token.
var RolePermissions = map[string][]string{
	"editor": {
		"question:*",
	},
	"analyst": {
		PermResultViewAll,
		PermEventsRead,
	},
	"admin": {
		"*",
	},
}
