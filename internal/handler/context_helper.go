package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taskhive-api/internal/middleware"
	"github.com/noah-isme/taskhive-api/internal/models"
)

// socketIDHeader carries the initiator's websocket id on mutating requests
// so the broadcaster can skip echoing the event back to it.
const socketIDHeader = "X-Socket-ID"

func currentClaims(c *gin.Context) (*models.AccessClaims, bool) {
	return middleware.CurrentClaims(c)
}

func initiatorID(c *gin.Context) string {
	return c.GetHeader(socketIDHeader)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
