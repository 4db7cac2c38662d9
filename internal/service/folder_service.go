package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/pkg/config"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
)

type folderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	FindByID(ctx context.Context, id string) (*models.Folder, error)
	List(ctx context.Context, filter models.FolderFilter) ([]models.Folder, int, error)
	Rename(ctx context.Context, id, name string) (*models.Folder, error)
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type folderUserLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateFolderRequest captures fields for creating folders.
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// RenameFolderRequest renames a folder.
type RenameFolderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// FolderList is the cacheable shape of a folder page.
type FolderList struct {
	Items      []models.Folder    `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// FolderService handles folder workflows: quota-bounded creation, paginated
// listing, rename and delete, each mutation broadcast to other clients.
type FolderService struct {
	repo      folderRepository
	users     folderUserLoader
	cache     *CacheService
	broadcast Broadcaster
	quota     config.QuotaConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFolderService creates a new folder service.
func NewFolderService(repo folderRepository, users folderUserLoader, cache *CacheService, broadcast Broadcaster, quota config.QuotaConfig, validate *validator.Validate, logger *zap.Logger) *FolderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{repo: repo, users: users, cache: cache, broadcast: broadcast, quota: quota, validator: validate, logger: logger}
}

// Create adds a folder after checking the owner's quota tier: unverified
// accounts get the smaller allowance.
func (s *FolderService) Create(ctx context.Context, userID string, req CreateFolderRequest, initiatorID string) (*models.Folder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid folder payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count folders")
	}

	limit := s.quota.FoldersUnverified
	if user.IsVerified {
		limit = s.quota.FoldersVerified
	}
	if limit > 0 && count >= limit {
		return nil, appErrors.Clone(appErrors.ErrQuotaExceeded, fmt.Sprintf("folder quota of %d reached", limit))
	}

	folder := &models.Folder{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
	}
	if err := s.repo.Create(ctx, folder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create folder")
	}

	s.afterMutation(ctx, userID, initiatorID, EventFolderCreated, folder)
	return folder, nil
}

// List returns a page of the user's folders, consulting the cache first.
func (s *FolderService) List(ctx context.Context, filter models.FolderFilter) (*FolderList, error) {
	key := folderListKey(filter)

	var cached FolderList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	folders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list folders")
	}

	list := &FolderList{
		Items:      folders,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	}
	s.cache.Set(ctx, key, list)
	return list, nil
}

// Rename updates the folder name. NotFound when the id matches nothing.
func (s *FolderService) Rename(ctx context.Context, id string, req RenameFolderRequest, initiatorID string) (*models.Folder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid folder payload")
	}

	folder, err := s.repo.Rename(ctx, id, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename folder")
	}

	s.afterMutation(ctx, folder.UserID, initiatorID, EventFolderRenamed, folder)
	return folder, nil
}

// Delete removes the folder. Ownership has already been checked by the
// guard; a missing id still yields NotFound so clients see a stable
// contract.
func (s *FolderService) Delete(ctx context.Context, id string, initiatorID string) error {
	folder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete folder")
	}

	s.afterMutation(ctx, folder.UserID, initiatorID, EventFolderDeleted, folder)
	return nil
}

func (s *FolderService) afterMutation(ctx context.Context, userID, initiatorID, event string, payload interface{}) {
	if s.broadcast != nil {
		s.broadcast.BroadcastExcept(initiatorID, event, payload)
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("folders:%s:*", userID))
}

func folderListKey(filter models.FolderFilter) string {
	return fmt.Sprintf("folders:%s:p%d:l%d:n%s", filter.UserID, filter.Page, filter.Limit, strings.ToLower(filter.Name))
}
