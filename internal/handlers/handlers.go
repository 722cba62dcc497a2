package handlers

import (
	"github.com/HoVietThang190704/social-app-sub001/internal/auth"
	"github.com/HoVietThang190704/social-app-sub001/internal/notifications"
	"github.com/HoVietThang190704/social-app-sub001/internal/websocket"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth          *auth.Service
	notifications *notifications.Service
	wsHandler     *websocket.Handler
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, notificationService *notifications.Service) *Handlers {
	return &Handlers{
		auth:          authService,
		notifications: notificationService,
	}
}

// SetWebSocketHandler sets the WebSocket handler for the stats endpoint
func (h *Handlers) SetWebSocketHandler(ws *websocket.Handler) {
	h.wsHandler = ws
}
