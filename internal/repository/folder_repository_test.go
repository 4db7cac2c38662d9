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

func TestFolderList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "created_at", "updated_at"}).
		AddRow("f1", "u1", "inbox", now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM folders WHERE user_id = \$1 ORDER BY name ASC LIMIT 20 OFFSET 0`).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM folders WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	folders, total, err := repo.List(context.Background(), models.FolderFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, folders, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderListNameFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM folders WHERE user_id = \$1 AND LOWER\(name\) LIKE \$2`).
		WithArgs("u1", "%work%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "created_at", "updated_at"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM folders WHERE user_id = \$1 AND LOWER\(name\) LIKE \$2`).
		WithArgs("u1", "%work%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	folders, total, err := repo.List(context.Background(), models.FolderFilter{UserID: "u1", Name: "Work"})
	require.NoError(t, err)
	assert.Empty(t, folders)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRenameMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectQuery(`UPDATE folders SET name = \$2`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Rename(context.Background(), "missing", "renamed")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderCountByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM folders WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderOwnerID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectQuery(`SELECT user_id FROM folders WHERE id = \$1 LIMIT 1`).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))

	owner, err := repo.OwnerID(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}
