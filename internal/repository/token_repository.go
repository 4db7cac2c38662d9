package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/taskhive-api/internal/models"
)

const tokenColumns = `id, user_id, token_hash, session_id, created_at, expires_at, revoked, revoked_at`

// TokenRepository persists refresh-token rows.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a refresh-token row.
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token_hash, session_id, created_at, expires_at, revoked, revoked_at)
		VALUES (:id, :user_id, :token_hash, :session_id, :created_at, :expires_at, :revoked, :revoked_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindActiveBySession returns the newest non-revoked, non-expired row for the
// (user, session) pair.
func (r *TokenRepository) FindActiveBySession(ctx context.Context, userID, sessionID string) (*models.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens
		WHERE user_id = $1 AND session_id = $2 AND revoked = FALSE AND expires_at > $3
		ORDER BY created_at DESC LIMIT 1`
	var token models.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, userID, sessionID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active refresh token: %w", err)
	}
	return &token, nil
}

// RevokeSession marks every non-revoked row for the session revoked. Rows
// are retained for audit until the cleanup sweep deletes them.
func (r *TokenRepository) RevokeSession(ctx context.Context, userID, sessionID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $3
		WHERE user_id = $1 AND session_id = $2 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke session refresh tokens: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every active token across all of the user's
// sessions, forcing re-login everywhere.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredOrRevoked sweeps dead rows and returns the count.
func (r *TokenRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE revoked = TRUE OR expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete dead refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted refresh tokens: %w", err)
	}
	return n, nil
}
