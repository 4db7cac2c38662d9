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

const taskColumns = `id, user_id, folder_id, title, description, completed, start_date, expires_date, parent_task_id, created_at, updated_at`

// TaskRepository provides database access for tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	const query = `INSERT INTO tasks (id, user_id, folder_id, title, description, completed, start_date, expires_date, parent_task_id, created_at, updated_at)
		VALUES (:id, :user_id, :folder_id, :title, :description, :completed, :start_date, :expires_date, :parent_task_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID returns a task by identifier.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 LIMIT 1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find task by id: %w", err)
	}
	return &task, nil
}

// List returns a page of the user's tasks with the total count, applying the
// optional filters. Read and count share one transaction.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{filter.UserID}

	if filter.ID != "" {
		where += fmt.Sprintf(" AND id = $%d", len(args)+1)
		args = append(args, filter.ID)
	}
	if filter.FolderID != "" {
		where += fmt.Sprintf(" AND folder_id = $%d", len(args)+1)
		args = append(args, filter.FolderID)
	}
	if filter.Completed != nil {
		where += fmt.Sprintf(" AND completed = $%d", len(args)+1)
		args = append(args, *filter.Completed)
	}
	if filter.TopLevelOnly {
		where += " AND parent_task_id IS NULL"
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
		return nil, 0, fmt.Errorf("begin task list tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	listQuery := fmt.Sprintf("SELECT %s FROM tasks %s ORDER BY created_at DESC LIMIT %d OFFSET %d", taskColumns, where, limit, offset)
	tasks := []models.Task{}
	if err := tx.SelectContext(ctx, &tasks, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	var total int
	if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM tasks "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit task list tx: %w", err)
	}
	return tasks, total, nil
}

// ListSubtasks returns the direct children of a task.
func (r *TaskRepository) ListSubtasks(ctx context.Context, parentID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE parent_task_id = $1 ORDER BY created_at ASC`
	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, parentID); err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return tasks, nil
}

// Update stores mutable task fields. Returns sql.ErrNoRows for a missing id.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET title = :title, description = :description, folder_id = :folder_id,
		start_date = :start_date, expires_date = :expires_date, parent_task_id = :parent_task_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ToggleStatus flips the completed flag and returns the updated row.
func (r *TaskRepository) ToggleStatus(ctx context.Context, id string) (*models.Task, error) {
	query := `UPDATE tasks SET completed = NOT completed, updated_at = $2 WHERE id = $1 RETURNING ` + taskColumns
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("toggle task status: %w", err)
	}
	return &task, nil
}

// Delete removes a task by id.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// OwnerID resolves the owning user of a task for the ownership guard.
func (r *TaskRepository) OwnerID(ctx context.Context, id string) (string, error) {
	const query = `SELECT user_id FROM tasks WHERE id = $1 LIMIT 1`
	var owner string
	if err := r.db.GetContext(ctx, &owner, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find task owner: %w", err)
	}
	return owner, nil
}
