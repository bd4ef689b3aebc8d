// Package realtime carries committed-mutation events from the metadata
// store to every live connection of an account, and contains the client
// that applies them to a cached view.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"televault/internal/domain/events"
	"televault/internal/metrics"
)

const writeTimeout = 10 * time.Second

// Hub is the per-account connection registry. It implements events.Sink, so
// the store publishes straight into it. Construct one per process at the
// composition root; there is no package-level instance.
type Hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	conns  map[string]map[*Conn]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		conns:  make(map[string]map[*Conn]struct{}),
	}
}

// Conn is one registered WebSocket connection. Writes are serialized by a
// per-connection mutex, as the underlying socket allows one writer at a
// time.
type Conn struct {
	accountID string

	mu sync.Mutex
	ws *websocket.Conn
}

// Register adds a socket to the account's connection set and returns its
// registry handle.
func (h *Hub) Register(accountID string, ws *websocket.Conn) *Conn {
	conn := &Conn{accountID: accountID, ws: ws}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		// Late joiner during shutdown; close immediately.
		ws.Close()
		return conn
	}

	set, ok := h.conns[accountID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[accountID] = set
	}
	set[conn] = struct{}{}
	metrics.ConnectionsActive.Inc()

	h.logger.Debug("connection registered",
		"account_id", accountID,
		"connections", len(set),
	)
	return conn
}

// Unregister removes a connection from the registry. Safe to call more than
// once.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	removed := h.removeLocked(conn)
	h.mu.Unlock()

	if removed {
		h.logger.Debug("connection unregistered", "account_id", conn.accountID)
	}
}

// removeLocked deletes conn from its account set; caller holds h.mu.
func (h *Hub) removeLocked(conn *Conn) bool {
	set, ok := h.conns[conn.accountID]
	if !ok {
		return false
	}
	if _, ok := set[conn]; !ok {
		return false
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.conns, conn.accountID)
	}
	metrics.ConnectionsActive.Dec()
	return true
}

// Publish implements events.Sink.
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	return h.BroadcastToAccount(ev.AccountID, ev)
}

// BroadcastToAccount serializes the event once and pushes it to every
// connection registered for the account. Sockets that fail the write are
// collected during iteration and evicted afterwards, so the registry heals
// itself without a separate heartbeat. Delivery is at-most-once; an offline
// client reconciles by full refetch on reconnect.
func (h *Hub) BroadcastToAccount(accountID string, ev events.Event) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	h.mu.Lock()
	set := h.conns[accountID]
	targets := make([]*Conn, 0, len(set))
	for conn := range set {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return nil
	}

	var dead []*Conn
	for _, conn := range targets {
		if err := conn.send(message); err != nil {
			h.logger.Warn("push failed, evicting connection",
				"account_id", accountID,
				"error", err,
			)
			dead = append(dead, conn)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, conn := range dead {
			if h.removeLocked(conn) {
				metrics.ConnectionsEvictedTotal.Inc()
			}
			conn.ws.Close()
		}
		h.mu.Unlock()
	}

	metrics.EventsBroadcastTotal.WithLabelValues(string(ev.Type)).Inc()
	h.logger.Debug("event broadcast",
		"type", ev.Type,
		"account_id", accountID,
		"connections", len(targets)-len(dead),
	)
	return nil
}

// BroadcastToAll pushes the event to every account's connections.
func (h *Hub) BroadcastToAll(ev events.Event) {
	h.mu.Lock()
	accountIDs := make([]string, 0, len(h.conns))
	for accountID := range h.conns {
		accountIDs = append(accountIDs, accountID)
	}
	h.mu.Unlock()

	for _, accountID := range accountIDs {
		if err := h.BroadcastToAccount(accountID, ev); err != nil {
			h.logger.Warn("broadcast failed", "account_id", accountID, "error", err)
		}
	}
}

// ClientCount returns the number of live connections for an account.
func (h *Hub) ClientCount(accountID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[accountID])
}

// Close sends a close frame to every connection and empties the registry.
// Further registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true

	var all []*Conn
	for _, set := range h.conns {
		for conn := range set {
			all = append(all, conn)
		}
	}
	h.conns = make(map[string]map[*Conn]struct{})
	h.mu.Unlock()

	closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, conn := range all {
		conn.mu.Lock()
		conn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.ws.WriteMessage(websocket.CloseMessage, closeMsg)
		conn.ws.Close()
		conn.mu.Unlock()
		metrics.ConnectionsActive.Dec()
	}

	h.logger.Info("hub closed", "connections", len(all))
}

func (c *Conn) send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, message)
}
