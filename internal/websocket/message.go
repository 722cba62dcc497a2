package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	// Try to unmarshal as Unix milliseconds (integer)
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	// Fall back to RFC3339 string format
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements custom marshaling (always output as RFC3339)
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Message types for WebSocket communication
const (
	// System messages
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"
	MessageTypeAuth   = "auth"

	// Server events
	MessageTypeNotification    = "notification"
	MessageTypeAuthError       = "auth-error"
	MessageTypeValidationError = "validation-error"

	// Support chat (client -> server)
	MessageTypeSupportJoin      = "support-chat:join"
	MessageTypeSupportLeave     = "support-chat:leave"
	MessageTypeSupportJoinAdmin = "support-chat:join-admin"

	// Friend chat
	MessageTypeFriendJoinThread  = "friend-chat:join-thread"
	MessageTypeFriendLeaveThread = "friend-chat:leave-thread"
	MessageTypeFriendTyping      = "friend-chat:typing"
	MessageTypeFriendReady       = "friend-chat:ready"
)

// Room name helpers. Room membership is the only routing mechanism: events
// are emitted to rooms, never to connections directly.
func InboxRoom(userID string) string { return "inbox:" + userID }

func ThreadRoom(threadID string) string { return "thread:" + threadID }

func SupportUserRoom(userID string) string { return "support:user:" + userID }

func SupportAdminRoom(adminID string) string { return "support:admin:" + adminID }

// SupportAdminsRoom is shared by every connected support admin.
const SupportAdminsRoom = "support:admins"

// RoomKind classifies a room name for metrics labels.
func RoomKind(room string) string {
	switch {
	case len(room) > 6 && room[:6] == "inbox:":
		return "inbox"
	case len(room) > 7 && room[:7] == "thread:":
		return "thread"
	default:
		return "support"
	}
}

// Message represents a WebSocket message
type Message struct {
	// Type identifies the message type for routing
	Type string `json:"type"`

	// Payload contains the message-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique message identifier for acknowledgment
	ID string `json:"id,omitempty"`

	// ReplyTo references the original message ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the message was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewReply creates a reply message to an original message
func NewReply(original *Message, msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		ReplyTo:   original.ID,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code string, message string) *Message {
	return &Message{
		Type: MessageTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// ErrorPayload represents an error message payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload represents a ping message payload
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload represents a pong message payload
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// AuthPayload carries a token from the client or an auth result to it
type AuthPayload struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"userId,omitempty"`
	Status string `json:"status,omitempty"`
}

// AuthErrorPayload tells the client its credentials were rejected. The
// connection stays open; unauthenticated clients may still use support chat.
type AuthErrorPayload struct {
	Message string `json:"message"`
}

// ValidationErrorPayload reports a malformed operation payload
type ValidationErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// SupportJoinPayload identifies whose support room to join
type SupportJoinPayload struct {
	UserID string `json:"userId"`
}

// AdminJoinPayload optionally names the admin's private support room
type AdminJoinPayload struct {
	AdminID string `json:"adminId,omitempty"`
}

// ThreadPayload identifies a friend-chat thread
type ThreadPayload struct {
	ThreadID string `json:"threadId"`
}

// TypingPayload is relayed to the other members of a thread
type TypingPayload struct {
	ThreadID string `json:"threadId"`
	UserID   string `json:"userId,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

// ReadyPayload confirms a successful authentication
type ReadyPayload struct {
	UserID string `json:"userId"`
}

// SystemPayload represents system event payloads
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ParsePayload unmarshals the payload into a specific type
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}

	// Re-marshal and unmarshal to properly type the payload
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
