package handlers

import (
	"github.com/gofiber/contrib/websocket"

	"complians/internal/services"
)

// AlertWSHandler streams alerts to dashboard subscribers over websocket
type AlertWSHandler struct {
	connMgr *services.ConnectionManager
}

// NewAlertWSHandler creates a new alert websocket handler
func NewAlertWSHandler(connMgr *services.ConnectionManager) *AlertWSHandler {
	return &AlertWSHandler{connMgr: connMgr}
}

// Handle registers the connection for its tenant and blocks until the client
// disconnects. Subscribers are write-only; inbound frames are drained and
// discarded so pings and close frames are processed.
// GET /ws/alerts
func (h *AlertWSHandler) Handle(conn *websocket.Conn) {
	tenantID, ok := conn.Locals("tenant_id").(string)
	if !ok || tenantID == "" {
		conn.Close()
		return
	}

	h.connMgr.Register(tenantID, conn)
	defer func() {
		h.connMgr.Unregister(tenantID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
