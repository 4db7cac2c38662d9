package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshToken is a persisted refresh-token row. Only the bcrypt hash of the
// opaque secret is stored; superseded rows are marked revoked and swept later
// by the cleanup job, never deleted inline.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	SessionID string     `db:"session_id" json:"session_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// Active reports whether the row can still authenticate a refresh.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// AccessClaims is the JWT payload of access tokens.
type AccessClaims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"token_version"`
	SessionID    string `json:"session_id"`
	jwt.RegisteredClaims
}

// ResetClaims is the JWT payload of password-reset tokens. TokenVersion must
// match the user's current version at redemption time.
type ResetClaims struct {
	UserID       string `json:"user_id"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly minted access token with the raw refresh
// secret handed to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
