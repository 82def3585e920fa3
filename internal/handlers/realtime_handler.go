package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/playmaker/backend/internal/middleware"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ConnectionServer serves an upgraded realtime connection; *realtime.Hub implements it
type ConnectionServer interface {
	Serve(ctx context.Context, conn *websocket.Conn, userID uint)
}

// RealtimeHandler upgrades authenticated requests to WebSocket connections
type RealtimeHandler struct {
	hub      ConnectionServer
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewRealtimeHandler creates a new RealtimeHandler. Origins are not checked; the token is the credential.
func NewRealtimeHandler(hub ConnectionServer, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect upgrades the request and blocks until the connection ends
func (h *RealtimeHandler) Connect(c echo.Context) error {
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}

	h.hub.Serve(c.Request().Context(), conn, userID)
	return nil
}
