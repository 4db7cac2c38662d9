package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/taskhive-api/internal/models"
)

const folderColumns = `id, user_id, name, created_at, updated_at`

// FolderRepository provides database access for folders.
type FolderRepository struct {
	db *sqlx.DB
}

// NewFolderRepository creates a new instance of FolderRepository.
func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create inserts a folder.
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	folder.UpdatedAt = now

	const query = `INSERT INTO folders (id, user_id, name, created_at, updated_at)
		VALUES (:id, :user_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, folder); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// FindByID returns a folder by identifier.
func (r *FolderRepository) FindByID(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1 LIMIT 1`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find folder by id: %w", err)
	}
	return &folder, nil
}

// List returns a page of the user's folders with the total count. The read
// and count share one transaction so pagination metadata is consistent.
func (r *FolderRepository) List(ctx context.Context, filter models.FolderFilter) ([]models.Folder, int, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{filter.UserID}

	if filter.Name != "" {
		where += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin folder list tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	listQuery := fmt.Sprintf("SELECT %s FROM folders %s ORDER BY name ASC LIMIT %d OFFSET %d", folderColumns, where, limit, offset)
	folders := []models.Folder{}
	if err := tx.SelectContext(ctx, &folders, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list folders: %w", err)
	}

	var total int
	if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM folders "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count folders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit folder list tx: %w", err)
	}
	return folders, total, nil
}

// Rename updates the folder name. Returns sql.ErrNoRows for a missing id.
func (r *FolderRepository) Rename(ctx context.Context, id, name string) (*models.Folder, error) {
	query := `UPDATE folders SET name = $2, updated_at = $3 WHERE id = $1 RETURNING ` + folderColumns
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id, name, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("rename folder: %w", err)
	}
	return &folder, nil
}

// Delete removes a folder by id. Ownership is checked upstream by the guard.
func (r *FolderRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM folders WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return nil
}

// CountByUser returns the user's folder count for quota checks.
func (r *FolderRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM folders WHERE user_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count user folders: %w", err)
	}
	return count, nil
}

// OwnerID resolves the owning user of a folder for the ownership guard.
func (r *FolderRepository) OwnerID(ctx context.Context, id string) (string, error) {
	const query = `SELECT user_id FROM folders WHERE id = $1 LIMIT 1`
	var owner string
	if err := r.db.GetContext(ctx, &owner, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find folder owner: %w", err)
	}
	return owner, nil
}
