package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Serve pumps events for userID into conn until the peer goes away or ctx is done.
// It closes conn before returning.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID uint) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, cleanup := h.Subscribe(ctx, userID)
	defer cleanup()

	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()
	h.logger.Debug("realtime connection opened", zap.Uint("user_id", userID))

	go readPump(conn, cancel)
	writePump(ctx, conn, stream, h.logger)

	_ = conn.Close()
	h.logger.Debug("realtime connection closed", zap.Uint("user_id", userID))
}

// readPump discards inbound frames; it only exists to process control frames and detect closure
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, stream <-chan []byte, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("realtime write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
