package service

// Broadcaster fans an entity-change event out to every connected client
// except the one that initiated the mutation. Event names follow the
// "{entity}:{action}" convention, e.g. "folder:created".
type Broadcaster interface {
	BroadcastExcept(initiatorID, event string, payload interface{})
}

// Folder and task event names.
const (
	EventFolderCreated = "folder:created"
	EventFolderRenamed = "folder:renamed"
	EventFolderDeleted = "folder:deleted"

	EventTaskCreated      = "task:created"
	EventTaskUpdated      = "task:updated"
	EventTaskDeleted      = "task:deleted"
	EventTaskToggleStatus = "task:toggleStatus"
)
