package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/internal/service"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// FolderHandler serves folder CRUD for the authenticated user.
type FolderHandler struct {
	service *service.FolderService
}

// NewFolderHandler creates a new handler.
func NewFolderHandler(svc *service.FolderService) *FolderHandler {
	return &FolderHandler{service: svc}
}

// Create adds a folder, subject to the per-tier quota.
func (h *FolderHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid folder payload"))
		return
	}

	folder, err := h.service.Create(c.Request.Context(), claims.UserID, req, initiatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, folder)
}

// List returns the user's folders, filtered by name and paginated.
func (h *FolderHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.FolderFilter{
		UserID: claims.UserID,
		Name:   c.Query("name"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, list.Pagination)
}

// Rename changes a folder's name. Ownership is checked upstream.
func (h *FolderHandler) Rename(c *gin.Context) {
	var req service.RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid folder payload"))
		return
	}

	folder, err := h.service.Rename(c.Request.Context(), c.Param("id"), req, initiatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folder, nil)
}

// Delete removes a folder and, through the schema cascade, its tasks.
func (h *FolderHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), initiatorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
