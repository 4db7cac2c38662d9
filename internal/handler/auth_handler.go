package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/internal/service"
	"github.com/noah-isme/taskhive-api/pkg/cookies"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// AuthHandler wires the signup/login/verification endpoints to the auth
// service and manages the cookie side effects.
type AuthHandler struct {
	service *service.AuthService
	tokens  *service.TokenService
	cookies *cookies.Manager
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, tokens *service.TokenService, cookieManager *cookies.Manager) *AuthHandler {
	return &AuthHandler{service: svc, tokens: tokens, cookies: cookieManager}
}

// Signup registers an account, sets auth cookies and returns public info.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, res.Tokens.AccessToken, res.Tokens.RefreshToken, req.RememberMe)
	response.JSON(c, http.StatusCreated, gin.H{
		"success":  true,
		"message":  "account created, verification email sent",
		"userInfo": res.User,
	}, nil)
}

// Login authenticates and sets auth cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, res.Tokens.AccessToken, res.Tokens.RefreshToken, req.RememberMe)
	response.JSON(c, http.StatusOK, gin.H{
		"success":  true,
		"message":  "logged in",
		"userInfo": res.User,
	}, nil)
}

// RefreshTokens rotates the session's token pair. Session identity comes
// from a structural decode of the access cookie, which is expected to be
// expired at this point; the refresh cookie authenticates the rotation.
func (h *AuthHandler) RefreshTokens(c *gin.Context) {
	accessCookie, err := c.Cookie(cookies.AccessCookie)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing access cookie"))
		return
	}
	refreshCookie, err := c.Cookie(cookies.RefreshCookie)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing refresh cookie"))
		return
	}

	userID, sessionID, err := h.tokens.DecodeAccessToken(accessCookie)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, err := h.tokens.Rotate(c.Request.Context(), userID, refreshCookie, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	rememberMe := c.Query("rememberMe") == "true"
	h.cookies.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken, rememberMe)
	response.JSON(c, http.StatusOK, gin.H{"success": true, "message": "tokens refreshed"}, nil)
}

// VerifyEmail redeems the emailed verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	info, err := h.service.VerifyEmail(c.Request.Context(), c.Query("verificationToken"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true, "message": "email verified", "userInfo": info}, nil)
}

// ResendVerificationEmail re-sends the outstanding verification link.
func (h *AuthHandler) ResendVerificationEmail(c *gin.Context) {
	var req models.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ResendVerificationEmail(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true, "message": "verification email sent"}, nil)
}

// Logout revokes the current session's refresh tokens and clears cookies.
// Other sessions stay logged in.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(c.Request.Context(), claims.UserID, claims.SessionID); err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.ClearAuthCookies(c)
	response.NoContent(c)
}

// Me returns the authenticated account's public info.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info, err := h.service.GetAccountInfo(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Delete removes the authenticated account and clears cookies.
func (h *AuthHandler) Delete(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.ClearAuthCookies(c)
	response.NoContent(c)
}

// ClearAuthCookies drops the auth cookie triple without touching state,
// useful when a client is stuck with stale cookies.
func (h *AuthHandler) ClearAuthCookies(c *gin.Context) {
	h.cookies.ClearAuthCookies(c)
	response.JSON(c, http.StatusOK, gin.H{"success": true, "message": "cookies cleared"}, nil)
}
