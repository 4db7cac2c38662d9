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

const userColumns = `id, email, username, password_hash, token_version, is_verified, verification_token, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Duplicate emails surface as a pq unique
// violation which the service maps to a conflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, username, password_hash, token_version, is_verified, verification_token, created_at, updated_at)
		VALUES (:id, :email, :username, :password_hash, :token_version, :is_verified, :verification_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByIDAndVersion returns a user only when its token_version still equals
// the pinned version. Used to invalidate tokens after credential changes.
func (r *UserRepository) FindByIDAndVersion(ctx context.Context, id string, version int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND token_version = $2 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id, version); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id and version: %w", err)
	}
	return &user, nil
}

// FindByVerificationToken returns the user holding an outstanding
// verification token.
func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by verification token: %w", err)
	}
	return &user, nil
}

// MarkVerified flips is_verified and nulls the verification token, making it
// single-use. Returns sql.ErrNoRows when the token matched nothing.
func (r *UserRepository) MarkVerified(ctx context.Context, token string) (*models.User, error) {
	query := `UPDATE users SET is_verified = TRUE, verification_token = NULL, updated_at = $2
		WHERE verification_token = $1 RETURNING ` + userColumns
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, token, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("mark user verified: %w", err)
	}
	return &user, nil
}

// SetVerificationToken replaces the outstanding verification token.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id, token string) error {
	const query = `UPDATE users SET verification_token = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash and bumps token_version,
// invalidating every previously issued access and reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, token_version = token_version + 1, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteStaleUnverified removes unverified users created before the cutoff
// and returns how many rows were swept.
func (r *UserRepository) DeleteStaleUnverified(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM users WHERE is_verified = FALSE AND created_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale unverified users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted users: %w", err)
	}
	return n, nil
}
