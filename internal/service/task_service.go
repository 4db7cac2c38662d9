package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/models"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
)

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	ListSubtasks(ctx context.Context, parentID string) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	ToggleStatus(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskUserLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateTaskRequest captures fields for creating tasks.
type CreateTaskRequest struct {
	Title        string    `json:"title" validate:"required,min=1,max=200"`
	Description  string    `json:"description" validate:"max=2000"`
	FolderID     string    `json:"folderId" validate:"required"`
	StartDate    time.Time `json:"startDate" validate:"required"`
	ExpiresDate  time.Time `json:"expiresDate" validate:"required"`
	ParentTaskID *string   `json:"parentTaskId"`
}

// EditTaskRequest modifies task fields.
type EditTaskRequest struct {
	Title        string    `json:"title" validate:"required,min=1,max=200"`
	Description  string    `json:"description" validate:"max=2000"`
	FolderID     string    `json:"folderId" validate:"required"`
	StartDate    time.Time `json:"startDate" validate:"required"`
	ExpiresDate  time.Time `json:"expiresDate" validate:"required"`
	ParentTaskID *string   `json:"parentTaskId"`
}

// TaskList is the shape of a task page.
type TaskList struct {
	Items      []models.Task      `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// TaskService handles task workflows, broadcasting every mutation.
type TaskService struct {
	repo      taskRepository
	users     taskUserLoader
	broadcast Broadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(repo taskRepository, users taskUserLoader, broadcast Broadcaster, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, users: users, broadcast: broadcast, validator: validate, logger: logger}
}

// Create inserts a task after checking that the owner exists and, when a
// parent id is supplied, that the parent task exists too.
func (s *TaskService) Create(ctx context.Context, userID string, req CreateTaskRequest, initiatorID string) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.ParentTaskID != nil && *req.ParentTaskID != "" {
		if _, err := s.repo.FindByID(ctx, *req.ParentTaskID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "parent task not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent task")
		}
	}

	task := &models.Task{
		UserID:       userID,
		FolderID:     req.FolderID,
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		ExpiresDate:  req.ExpiresDate,
		ParentTaskID: normalizeParent(req.ParentTaskID),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	s.emit(initiatorID, EventTaskCreated, task)
	return task, nil
}

// List returns a page of tasks matching the filter, optionally attaching
// each task's direct subtasks.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) (*TaskList, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}

	if filter.WithSubtasks {
		for i := range tasks {
			subtasks, err := s.repo.ListSubtasks(ctx, tasks[i].ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subtasks")
			}
			tasks[i].Subtasks = subtasks
		}
	}

	return &TaskList{
		Items:      tasks,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Edit updates the task. NotFound when the id matches nothing.
func (s *TaskService) Edit(ctx context.Context, id string, req EditTaskRequest, initiatorID string) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	task.Title = req.Title
	task.Description = req.Description
	task.FolderID = req.FolderID
	task.StartDate = req.StartDate
	task.ExpiresDate = req.ExpiresDate
	task.ParentTaskID = normalizeParent(req.ParentTaskID)

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	s.emit(initiatorID, EventTaskUpdated, task)
	return task, nil
}

// ToggleStatus flips the completed flag.
func (s *TaskService) ToggleStatus(ctx context.Context, id string, initiatorID string) (*models.Task, error) {
	task, err := s.repo.ToggleStatus(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle task")
	}

	s.emit(initiatorID, EventTaskToggleStatus, task)
	return task, nil
}

// Delete removes the task. NotFound when the id matches nothing.
func (s *TaskService) Delete(ctx context.Context, id string, initiatorID string) error {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}

	s.emit(initiatorID, EventTaskDeleted, task)
	return nil
}

func (s *TaskService) emit(initiatorID, event string, payload interface{}) {
	if s.broadcast != nil {
		s.broadcast.BroadcastExcept(initiatorID, event, payload)
	}
}

func normalizeParent(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}
