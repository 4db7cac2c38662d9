package models

import "time"

// Task is a unit of work inside a folder. ParentTaskID, when set, must
// reference an existing task, enabling subtasks.
type Task struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	FolderID     string     `db:"folder_id" json:"folder_id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Completed    bool       `db:"completed" json:"completed"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	ExpiresDate  time.Time  `db:"expires_date" json:"expires_date"`
	ParentTaskID *string    `db:"parent_task_id" json:"parent_task_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Subtasks is populated on demand by list queries, not a column.
	Subtasks []Task `db:"-" json:"subtasks,omitempty"`
}

// TaskFilter captures list criteria. TopLevelOnly restricts to tasks without
// a parent; ID pins the listing to a single task.
type TaskFilter struct {
	UserID       string
	ID           string
	FolderID     string
	Completed    *bool
	TopLevelOnly bool
	WithSubtasks bool
	Page         int
	Limit        int
}
