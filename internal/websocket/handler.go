package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/HoVietThang190704/social-app-sub001/internal/auth"
	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles WebSocket HTTP upgrade requests and registers the room
// routing message handlers.
type Handler struct {
	hub       *Hub
	jwtSecret []byte
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, jwtSecret []byte) *Handler {
	return &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

// HandleWebSocket upgrades the HTTP connection. A token may arrive as a
// ?token= query param, an Authorization header, or later in an auth message.
// The upgrade always succeeds; a bad or missing token produces an auth-error
// event and leaves the connection open for support chat.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	h.handshake(client, extractToken(c))

	go client.WritePump()
	client.ReadPump() // Blocks until client disconnects
}

// extractToken pulls a token from the query string, falling back to the
// Authorization header. An auth message sent later overrides either.
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

// handshake runs the initial authentication. A connection that arrives with
// no token at all is told so with an auth-error event and stays anonymous.
func (h *Handler) handshake(client *Client, token string) {
	if token == "" {
		_ = client.Send(NewMessage(MessageTypeAuthError, AuthErrorPayload{
			Message: "no token provided",
		}))
		return
	}
	h.authenticate(client, token)
}

// authenticate verifies a token and binds the identity to the connection.
// Failure keeps the connection open and anonymous.
func (h *Handler) authenticate(client *Client, token string) {
	userID, err := auth.VerifyToken(h.jwtSecret, token)
	if err != nil {
		logger.Log.Debug("websocket auth failed", zap.Error(err))
		_ = client.Send(NewMessage(MessageTypeAuthError, AuthErrorPayload{
			Message: "invalid or expired token",
		}))
		return
	}

	h.hub.Authenticate(client, userID)
	_ = client.Send(NewMessage(MessageTypeFriendReady, ReadyPayload{UserID: userID}))
}

// RegisterDefaultHandlers wires the room routing message handlers
func (h *Handler) RegisterDefaultHandlers() {
	// Late authentication over the socket itself
	h.hub.RegisterHandler(MessageTypeAuth, func(client *Client, msg *Message) error {
		var payload AuthPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.Token == "" {
			_ = client.Send(NewMessage(MessageTypeAuthError, AuthErrorPayload{
				Message: "auth payload must carry a token",
			}))
			return nil
		}
		h.authenticate(client, payload.Token)
		return nil
	})

	// Support chat join: the room key comes straight from the payload. Only
	// the shape is validated; support conversations are reachable before
	// login on purpose.
	h.hub.RegisterHandler(MessageTypeSupportJoin, func(client *Client, msg *Message) error {
		var payload SupportJoinPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.UserID == "" {
			sendValidationError(client, MessageTypeSupportJoin, "userId is required")
			return nil
		}
		h.hub.JoinRoom(client, SupportUserRoom(payload.UserID))
		return nil
	})

	h.hub.RegisterHandler(MessageTypeSupportLeave, func(client *Client, msg *Message) error {
		var payload SupportJoinPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.UserID == "" {
			sendValidationError(client, MessageTypeSupportLeave, "userId is required")
			return nil
		}
		h.hub.LeaveRoom(client, SupportUserRoom(payload.UserID))
		return nil
	})

	// Support admins always join the shared admin room. The private per-admin
	// room is joined only when the payload names an admin id.
	h.hub.RegisterHandler(MessageTypeSupportJoinAdmin, func(client *Client, msg *Message) error {
		var payload AdminJoinPayload
		if err := msg.ParsePayload(&payload); err != nil {
			sendValidationError(client, MessageTypeSupportJoinAdmin, "malformed payload")
			return nil
		}
		h.hub.JoinRoom(client, SupportAdminsRoom)
		if payload.AdminID != "" {
			h.hub.JoinRoom(client, SupportAdminRoom(payload.AdminID))
		}
		return nil
	})

	// Friend chat requires a verified identity. Operations from anonymous
	// connections are dropped without a reply.
	h.hub.RegisterHandler(MessageTypeFriendJoinThread, func(client *Client, msg *Message) error {
		if !client.IsAuthenticated() {
			return nil
		}
		var payload ThreadPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.ThreadID == "" {
			sendValidationError(client, MessageTypeFriendJoinThread, "threadId is required")
			return nil
		}
		h.hub.JoinRoom(client, ThreadRoom(payload.ThreadID))
		return nil
	})

	h.hub.RegisterHandler(MessageTypeFriendLeaveThread, func(client *Client, msg *Message) error {
		if !client.IsAuthenticated() {
			return nil
		}
		var payload ThreadPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.ThreadID == "" {
			sendValidationError(client, MessageTypeFriendLeaveThread, "threadId is required")
			return nil
		}
		h.hub.LeaveRoom(client, ThreadRoom(payload.ThreadID))
		return nil
	})

	// Typing indicators go to everyone else in the thread room
	h.hub.RegisterHandler(MessageTypeFriendTyping, func(client *Client, msg *Message) error {
		if !client.IsAuthenticated() {
			return nil
		}
		var payload TypingPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.ThreadID == "" {
			sendValidationError(client, MessageTypeFriendTyping, "threadId is required")
			return nil
		}
		payload.UserID = client.UserID()
		h.hub.EmitToRoomExcept(ThreadRoom(payload.ThreadID), client, MessageTypeFriendTyping, payload)
		return nil
	})
}

func sendValidationError(client *Client, event, message string) {
	_ = client.Send(NewMessage(MessageTypeValidationError, ValidationErrorPayload{
		Event:   event,
		Message: message,
	}))
}

// HandleStats returns hub counters (for monitoring)
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket":    h.hub.GetStats(),
		"online_users": h.hub.GetOnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// Shutdown gracefully shuts down the WebSocket handler
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

// GetHub returns the hub for external access
func (h *Handler) GetHub() *Hub {
	return h.hub
}
