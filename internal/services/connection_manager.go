package services

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"complians/internal/models"
)

// ConnectionManager tracks live websocket subscribers per tenant so alerts
// raised by the pipeline reach dashboards without polling. Slow or dead
// connections are dropped rather than allowed to block the pipeline.
type ConnectionManager struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]bool // tenantID -> connections
}

// NewConnectionManager creates a connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		conns: make(map[string]map[*websocket.Conn]bool),
	}
}

// Register adds a subscriber for a tenant
func (m *ConnectionManager) Register(tenantID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conns[tenantID] == nil {
		m.conns[tenantID] = make(map[*websocket.Conn]bool)
	}
	m.conns[tenantID][conn] = true
	log.Printf("🔌 [WS] Subscriber connected (tenant: %s, total: %d)", tenantID, len(m.conns[tenantID]))
}

// Unregister removes a subscriber. Safe to call for connections that were
// never registered.
func (m *ConnectionManager) Unregister(tenantID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.conns[tenantID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(m.conns, tenantID)
		}
	}
}

// BroadcastAlert pushes an alert to every subscriber of its tenant
func (m *ConnectionManager) BroadcastAlert(tenantID string, alert *models.Alert) {
	m.mu.RLock()
	set := m.conns[tenantID]
	conns := make([]*websocket.Conn, 0, len(set))
	for conn := range set {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(alert); err != nil {
			log.Printf("⚠️ [WS] Dropping subscriber (tenant: %s): %v", tenantID, err)
			m.Unregister(tenantID, conn)
			conn.Close()
		}
	}
}

// Count returns the number of live subscribers for a tenant
func (m *ConnectionManager) Count(tenantID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns[tenantID])
}
