package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"televault/internal/httputil"
	"televault/internal/realtime"
)

// WSHandler upgrades subscription requests and parks them in the hub.
type WSHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger

	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler. checkOrigin may be nil to
// accept any origin; cross-origin policy for the REST surface lives in the
// CORS middleware.
func NewWSHandler(hub *realtime.Hub, logger *slog.Logger, checkOrigin func(*http.Request) bool) *WSHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Subscribe upgrades the connection and blocks until the peer goes away. The
// read loop discards client frames; the stream is server-to-client only.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Warn("websocket upgrade failed", "account_id", accountID, "error", err)
		return
	}

	conn := h.hub.Register(accountID, ws)
	defer func() {
		h.hub.Unregister(conn)
		ws.Close()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket closed", "account_id", accountID, "error", err)
			}
			return
		}
	}
}
