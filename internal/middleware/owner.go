package middleware

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// IDExtractor pulls the referenced entity id out of the request. Each route
// declares its extractor explicitly instead of inferring where the id lives.
type IDExtractor func(c *gin.Context) string

// FromParam extracts the id from a route parameter.
func FromParam(name string) IDExtractor {
	return func(c *gin.Context) string {
		return c.Param(name)
	}
}

// FromQuery extracts the id from a query parameter.
func FromQuery(name string) IDExtractor {
	return func(c *gin.Context) string {
		return c.Query(name)
	}
}

// OwnerLookup resolves the owning user id of an entity.
type OwnerLookup interface {
	OwnerID(ctx context.Context, id string) (string, error)
}

// Owner builds an ownership guard for one entity kind: BadRequest when the
// id is missing, NotFound when the entity does not exist, Forbidden when it
// belongs to someone else. Requires the JWT middleware upstream.
func Owner(entity string, extract IDExtractor, lookup OwnerLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		id := extract(c)
		if id == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s id required", entity)))
			c.Abort()
			return
		}

		ownerID, err := lookup.OwnerID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", entity)))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve owner"))
			}
			c.Abort()
			return
		}

		if ownerID != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("%s belongs to another user", entity)))
			c.Abort()
			return
		}

		c.Next()
	}
}
