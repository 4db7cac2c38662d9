package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/pkg/cookies"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// ContextUserKey is the gin context key storing the access claims.
const ContextUserKey = "currentUser"

type accessTokenValidator interface {
	ValidateAccessToken(token string) (*models.AccessClaims, error)
}

type versionedUserFinder interface {
	FindUserBy(ctx context.Context, query models.UserQuery) (*models.User, error)
}

// JWT protects routes by requiring a valid access token, taken from the
// Authorization header or the auth cookie. The claims' token version is
// re-checked against the stored user, so a password reset or global logout
// rejects tokens that are otherwise still unexpired.
func JWT(tokens accessTokenValidator, users versionedUserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractAccessToken(c)
		if raw == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		version := claims.TokenVersion
		if _, err := users.FindUserBy(c.Request.Context(), models.UserQuery{ID: claims.UserID, TokenVersion: &version}); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token version no longer valid"))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the access claims stored by the JWT middleware.
func CurrentClaims(c *gin.Context) (*models.AccessClaims, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.AccessClaims)
	return claims, ok
}

func extractAccessToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	if token, err := c.Cookie(cookies.AccessCookie); err == nil {
		return token
	}
	return ""
}
