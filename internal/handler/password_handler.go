package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/internal/service"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// PasswordHandler serves the forgot/reset password endpoints.
type PasswordHandler struct {
	service *service.PasswordResetService
}

// NewPasswordHandler creates a new handler.
func NewPasswordHandler(svc *service.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{service: svc}
}

// Forgot emails a reset link to the given address.
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.SendResetPasswordEmail(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"success": true, "message": "password reset email sent"}, nil)
}

// Reset sets a new password using the emailed reset token.
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), c.Query("resetToken"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true, "message": "password updated"}, nil)
}
