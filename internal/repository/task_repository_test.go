package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taskhive-api/internal/models"
)

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "folder_id", "title", "description", "completed", "start_date", "expires_date", "parent_task_id", "created_at", "updated_at"})
}

func TestTaskListTopLevel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	now := time.Now()
	rows := taskRows().AddRow("t1", "u1", "f1", "write report", "", false, now, now.Add(24*time.Hour), nil, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM tasks WHERE user_id = \$1 AND parent_task_id IS NULL ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE user_id = \$1 AND parent_task_id IS NULL`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	tasks, total, err := repo.List(context.Background(), models.TaskFilter{UserID: "u1", TopLevelOnly: true})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 1, total)
	assert.Nil(t, tasks[0].ParentTaskID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskListCompletedFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	completed := true

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM tasks WHERE user_id = \$1 AND completed = \$2`).
		WithArgs("u1", true).
		WillReturnRows(taskRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE user_id = \$1 AND completed = \$2`).
		WithArgs("u1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	tasks, total, err := repo.List(context.Background(), models.TaskFilter{UserID: "u1", Completed: &completed})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskListSubtasks(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	now := time.Now()
	parent := "t1"
	rows := taskRows().AddRow("t2", "u1", "f1", "subtask", "", false, now, now, &parent, now, now)

	mock.ExpectQuery(`SELECT .* FROM tasks WHERE parent_task_id = \$1 ORDER BY created_at ASC`).
		WithArgs("t1").
		WillReturnRows(rows)

	tasks, err := repo.ListSubtasks(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", *tasks[0].ParentTaskID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskToggleStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	now := time.Now()
	rows := taskRows().AddRow("t1", "u1", "f1", "write report", "", true, now, now, nil, now, now)
	mock.ExpectQuery(`UPDATE tasks SET completed = NOT completed`).
		WillReturnRows(rows)

	task, err := repo.ToggleStatus(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
