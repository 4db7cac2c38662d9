package models

import "time"

// Folder groups tasks per user. Folder creation is quota-bounded by the
// owner's verification tier.
type Folder struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FolderFilter captures list criteria. Name matches case-insensitively as a
// substring; results are ordered by name ascending.
type FolderFilter struct {
	UserID string
	Name   string
	Page   int
	Limit  int
}
