package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/ws"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/response"
)

// WSHandler upgrades authenticated requests to websocket connections and
// attaches them to the hub.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler creates a new handler. Origin checks are delegated to the
// CORS layer, the upgrader accepts any origin that made it this far.
func NewWSHandler(hub *ws.Hub, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect upgrades the request. The JWT middleware runs before this, so the
// connection is tied to a verified user id.
func (h *WSHandler) Connect(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ws.NewClient(h.hub, conn, claims.UserID, h.logger).Start()
}
