package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/internal/service"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// TaskHandler serves task CRUD for the authenticated user.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new handler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// Create adds a task, optionally nested under a parent task.
func (h *TaskHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Create(c.Request.Context(), claims.UserID, req, initiatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List returns the user's tasks, filtered and paginated. topLayerTasks=true
// restricts results to tasks without a parent; withSubtasks=true loads each
// task's children alongside it.
func (h *TaskHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	topLevel := queryBool(c, "topLayerTasks")
	withSubs := queryBool(c, "withSubtasks")

	filter := models.TaskFilter{
		UserID:       claims.UserID,
		ID:           c.Query("taskId"),
		FolderID:     c.Query("folderId"),
		Completed:    queryBool(c, "status"),
		TopLevelOnly: topLevel != nil && *topLevel,
		WithSubtasks: withSubs != nil && *withSubs,
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 20),
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, list.Pagination)
}

// Edit updates a task's fields. Ownership is checked upstream.
func (h *TaskHandler) Edit(c *gin.Context) {
	var req service.EditTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Edit(c.Request.Context(), c.Param("id"), req, initiatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// ToggleStatus flips a task's completed flag.
func (h *TaskHandler) ToggleStatus(c *gin.Context) {
	task, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"), initiatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete removes a task and its subtasks.
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), initiatorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
