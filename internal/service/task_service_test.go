package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taskhive-api/internal/models"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
)

type fakeTaskRepo struct {
	tasks map[string]*models.Task
	seq   int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*models.Task{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *models.Task) error {
	if task.ID == "" {
		r.seq++
		task.ID = "t" + string(rune('0'+r.seq))
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*models.Task, error) {
	if task, ok := r.tasks[id]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTaskRepo) List(_ context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	items := []models.Task{}
	for _, task := range r.tasks {
		if task.UserID != filter.UserID {
			continue
		}
		if filter.TopLevelOnly && task.ParentTaskID != nil {
			continue
		}
		items = append(items, *task)
	}
	return items, len(items), nil
}

func (r *fakeTaskRepo) ListSubtasks(_ context.Context, parentID string) ([]models.Task, error) {
	items := []models.Task{}
	for _, task := range r.tasks {
		if task.ParentTaskID != nil && *task.ParentTaskID == parentID {
			items = append(items, *task)
		}
	}
	return items, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *models.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) ToggleStatus(_ context.Context, id string) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	task.Completed = !task.Completed
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func taskRequest() CreateTaskRequest {
	now := time.Now()
	return CreateTaskRequest{
		Title:       "write report",
		FolderID:    "f1",
		StartDate:   now,
		ExpiresDate: now.Add(24 * time.Hour),
	}
}

func newTaskFixture() (*TaskService, *fakeTaskRepo, *recordingBroadcaster) {
	repo := newFakeTaskRepo()
	users := newFakeUserRepo()
	users.add(&models.User{ID: "u1", Email: "user@example.com"})
	broadcast := &recordingBroadcaster{}
	return NewTaskService(repo, users, broadcast, nil, nil), repo, broadcast
}

func TestTaskCreate(t *testing.T) {
	svc, repo, broadcast := newTaskFixture()

	task, err := svc.Create(context.Background(), "u1", taskRequest(), "socket-1")
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Nil(t, task.ParentTaskID)
	assert.Len(t, repo.tasks, 1)
	assert.Equal(t, []string{EventTaskCreated}, broadcast.events)
}

func TestTaskCreateParentMustExist(t *testing.T) {
	svc, _, _ := newTaskFixture()

	req := taskRequest()
	parent := "no-such-task"
	req.ParentTaskID = &parent

	_, err := svc.Create(context.Background(), "u1", req, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTaskCreateEmptyParentTreatedAsNil(t *testing.T) {
	svc, _, _ := newTaskFixture()

	req := taskRequest()
	empty := ""
	req.ParentTaskID = &empty

	task, err := svc.Create(context.Background(), "u1", req, "")
	require.NoError(t, err)
	assert.Nil(t, task.ParentTaskID)
}

func TestTaskListWithSubtasks(t *testing.T) {
	svc, _, _ := newTaskFixture()

	parent, err := svc.Create(context.Background(), "u1", taskRequest(), "")
	require.NoError(t, err)

	childReq := taskRequest()
	childReq.Title = "subtask"
	childReq.ParentTaskID = &parent.ID
	_, err = svc.Create(context.Background(), "u1", childReq, "")
	require.NoError(t, err)

	list, err := svc.List(context.Background(), models.TaskFilter{UserID: "u1", TopLevelOnly: true, WithSubtasks: true, Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Len(t, list.Items[0].Subtasks, 1)
	assert.Equal(t, "subtask", list.Items[0].Subtasks[0].Title)
}

func TestTaskToggleStatusBroadcasts(t *testing.T) {
	svc, _, broadcast := newTaskFixture()

	task, err := svc.Create(context.Background(), "u1", taskRequest(), "")
	require.NoError(t, err)

	toggled, err := svc.ToggleStatus(context.Background(), task.ID, "socket-9")
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Equal(t, []string{EventTaskCreated, EventTaskToggleStatus}, broadcast.events)

	back, err := svc.ToggleStatus(context.Background(), task.ID, "socket-9")
	require.NoError(t, err)
	assert.False(t, back.Completed)
}

func TestTaskEditMissing(t *testing.T) {
	svc, _, _ := newTaskFixture()

	req := EditTaskRequest(taskRequest())
	_, err := svc.Edit(context.Background(), "missing", req, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTaskDelete(t *testing.T) {
	svc, repo, broadcast := newTaskFixture()

	task, err := svc.Create(context.Background(), "u1", taskRequest(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), task.ID, ""))
	assert.Empty(t, repo.tasks)
	assert.Equal(t, []string{EventTaskCreated, EventTaskDeleted}, broadcast.events)
}
