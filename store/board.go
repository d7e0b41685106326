package store

// Board persists a user's Kanban board snapshot so the workspace survives
// page reloads. Tasks are stored as the raw column-keyed JSON the frontend
// works with; the server never interprets it beyond handing it to the
// assistant.
type Board struct {
	UserKey   string // opaque user identifier, e.g. "demo-user"
	TasksJSON string
	UpdatedTs int64
}
