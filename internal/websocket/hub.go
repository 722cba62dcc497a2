// Package websocket provides the realtime layer: connection lifecycle,
// room membership and room-scoped event delivery.
// Uses github.com/coder/websocket - the modern, context-aware WebSocket library for Go.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/HoVietThang190704/social-app-sub001/internal/metrics"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and their room memberships.
// Connections may be unauthenticated; only authenticated clients appear in
// the per-user map and the inbox rooms.
type Hub struct {
	// Authenticated clients by user ID
	clients map[string]map[*Client]struct{}

	// All clients, authenticated or not
	allClients map[*Client]struct{}

	// Room membership, both directions
	rooms       map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for map access
	mu sync.RWMutex

	// Connection counters for the stats endpoint
	stats *Stats

	// Optional Prometheus instrumentation
	prom *metrics.Metrics

	// Shutdown handling
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Message handlers
	handlers map[string]MessageHandler

	// Rate limiter config
	rateLimitConfig RateLimitConfig
}

// Stats tracks WebSocket counters
type Stats struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesReceived   atomic.Int64
	MessagesSent       atomic.Int64
	Errors             atomic.Int64
	ConnectionsDropped atomic.Int64
}

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	// MaxMessagesPerSecond per client
	MaxMessagesPerSecond int
	// BurstSize allows short bursts above the rate
	BurstSize int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxMessagesPerSecond: 10,
		BurstSize:            20,
	}
}

// MessageHandler processes incoming messages of a specific type
type MessageHandler func(client *Client, message *Message) error

// NewHub creates a new Hub instance. prom may be nil.
func NewHub(prom *metrics.Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:         make(map[string]map[*Client]struct{}),
		allClients:      make(map[*Client]struct{}),
		rooms:           make(map[string]map[*Client]struct{}),
		memberships:     make(map[*Client]map[string]struct{}),
		register:        make(chan *Client, 256),
		unregister:      make(chan *Client, 256),
		stats:           &Stats{},
		prom:            prom,
		ctx:             ctx,
		cancel:          cancel,
		handlers:        make(map[string]MessageHandler),
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// RegisterHandler registers a handler for a specific message type
func (h *Hub) RegisterHandler(msgType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = handler
}

// GetHandler returns the handler for a message type
func (h *Hub) GetHandler(msgType string) (MessageHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.handlers[msgType]
	return handler, ok
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	logger.Log.Info("WebSocket hub starting")

	for {
		select {
		case <-h.ctx.Done():
			logger.Log.Info("WebSocket hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient adds a client to the hub. The client is not placed in any
// room or user map until it authenticates.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.allClients[client] = struct{}{}
	h.memberships[client] = make(map[string]struct{})

	h.stats.TotalConnections.Add(1)
	h.stats.ActiveConnections.Add(1)
	if h.prom != nil {
		h.prom.WSConnections.Inc()
	}

	logger.Log.Debug("client connected",
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

// unregisterClient removes a client from the hub and every room it joined
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)

	for room := range h.memberships[client] {
		h.removeFromRoomLocked(client, room)
	}
	delete(h.memberships, client)

	if userID := client.UserID(); userID != "" {
		if clients, ok := h.clients[userID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.clients, userID)
			}
		}
	}

	close(client.send)

	h.stats.ActiveConnections.Add(-1)
	if h.prom != nil {
		h.prom.WSConnections.Dec()
	}

	logger.Log.Debug("client disconnected",
		logger.WithUserID(client.UserID()),
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

// Authenticate binds a verified user identity to a connection and joins the
// user's inbox room. Safe to call more than once; a re-auth with a new
// identity moves the connection between user maps and inbox rooms.
func (h *Hub) Authenticate(client *Client, userID string) {
	previous := client.UserID()
	if previous == userID {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if previous != "" {
		if clients, ok := h.clients[previous]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.clients, previous)
			}
		}
		h.removeFromRoomLocked(client, InboxRoom(previous))
	}

	client.setUserID(userID)

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}

	h.addToRoomLocked(client, InboxRoom(userID))

	logger.Log.Info("client authenticated", logger.WithUserID(userID))
}

// JoinRoom subscribes a client to a room
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addToRoomLocked(client, room)
}

// LeaveRoom unsubscribes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(client, room)
}

// InRoom reports whether a client is currently subscribed to a room
func (h *Hub) InRoom(client *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][client]
	return ok
}

// RoomSize returns the number of connections in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addToRoomLocked(client *Client, room string) {
	if _, ok := h.allClients[client]; !ok {
		return
	}
	if _, ok := h.rooms[room][client]; ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	h.memberships[client][room] = struct{}{}

	if h.prom != nil {
		h.prom.WSRoomJoinsTotal.WithLabelValues(RoomKind(room)).Inc()
	}
}

func (h *Hub) removeFromRoomLocked(client *Client, room string) {
	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
	if members, ok := h.memberships[client]; ok {
		delete(members, room)
	}

	if h.prom != nil {
		h.prom.WSRoomLeavesTotal.WithLabelValues(RoomKind(room)).Inc()
	}
}

// EmitToRoom sends an event to every connection in a room. A missing or
// empty room is a no-op; the event is simply dropped.
func (h *Hub) EmitToRoom(room, event string, payload interface{}) {
	h.emitToRoom(room, event, payload, nil)
}

// EmitToRoomExcept sends an event to every connection in a room other than
// the sender's own.
func (h *Hub) EmitToRoomExcept(room string, except *Client, event string, payload interface{}) {
	h.emitToRoom(room, event, payload, except)
}

func (h *Hub) emitToRoom(room, event string, payload interface{}, except *Client) {
	data, err := json.Marshal(NewMessage(event, payload))
	if err != nil {
		logger.Log.Error("failed to marshal room event",
			logger.WithRoom(room),
			zap.String("event", event),
			zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		if client == except {
			continue
		}
		select {
		case client.send <- data:
			h.stats.MessagesSent.Add(1)
			if h.prom != nil {
				h.prom.WSMessagesTotal.WithLabelValues("out").Inc()
			}
		default:
			// Client's buffer is full, mark for removal
			h.stats.ConnectionsDropped.Add(1)
			go func(c *Client) {
				h.Unregister(c)
			}(client)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// IsUserOnline checks if a user has any authenticated connections
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}

// GetOnlineUsers returns a list of all online user IDs
func (h *Hub) GetOnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// GetStats returns current WebSocket counters
func (h *Hub) GetStats() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:   h.stats.TotalConnections.Load(),
		ActiveConnections:  h.stats.ActiveConnections.Load(),
		MessagesReceived:   h.stats.MessagesReceived.Load(),
		MessagesSent:       h.stats.MessagesSent.Load(),
		Errors:             h.stats.Errors.Load(),
		ConnectionsDropped: h.stats.ConnectionsDropped.Load(),
	}
}

// StatsSnapshot is a point-in-time snapshot of the hub counters
type StatsSnapshot struct {
	TotalConnections   int64 `json:"total_connections"`
	ActiveConnections  int64 `json:"active_connections"`
	MessagesReceived   int64 `json:"messages_received"`
	MessagesSent       int64 `json:"messages_sent"`
	Errors             int64 `json:"errors"`
	ConnectionsDropped int64 `json:"connections_dropped"`
}

// String implements Stringer for StatsSnapshot
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"connections=%d/%d messages=rx:%d/tx:%d errors=%d dropped=%d",
		s.ActiveConnections, s.TotalConnections,
		s.MessagesReceived, s.MessagesSent,
		s.Errors, s.ConnectionsDropped,
	)
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("WebSocket hub shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	shutdownMsg := NewMessage(MessageTypeSystem, SystemPayload{Event: "server_shutdown"})
	data, _ := json.Marshal(shutdownMsg)

	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
		}
		close(client.send)
	}

	h.clients = make(map[string]map[*Client]struct{})
	h.allClients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.memberships = make(map[*Client]map[string]struct{})

	logger.Log.Info("closed all connections during shutdown",
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

// SetRateLimitConfig updates the rate limiting configuration
func (h *Hub) SetRateLimitConfig(config RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = config
}

// GetRateLimitConfig returns the current rate limit configuration
func (h *Hub) GetRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}
