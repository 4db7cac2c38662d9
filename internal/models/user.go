package models

import "time"

// User represents an account stored in the users table. TokenVersion is
// bumped on every credential-invalidating event, which rejects all tokens
// minted under the previous version.
type User struct {
	ID                string    `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	Username          string    `db:"username" json:"username"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	TokenVersion      int       `db:"token_version" json:"-"`
	IsVerified        bool      `db:"is_verified" json:"is_verified"`
	VerificationToken *string   `db:"verification_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// UserQuery selects exactly one lookup strategy for FindUserBy. A non-nil
// TokenVersion pins the ID lookup to a specific version.
type UserQuery struct {
	ID                string
	TokenVersion      *int
	Email             string
	VerificationToken string
}
