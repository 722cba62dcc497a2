// Package notifications implements persisted notification delivery: writes
// one inbox row per recipient, then pushes the new record to each recipient's
// realtime inbox room on a best-effort basis.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HoVietThang190704/social-app-sub001/internal/cache"
	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/HoVietThang190704/social-app-sub001/internal/metrics"
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Audience selects who receives a send.
const (
	AudienceSingleUser = "single-user"
	AudienceAllUsers   = "all-users"
)

// EventNotification is the realtime event name pushed to inbox rooms.
const EventNotification = "notification"

var (
	ErrInvalidAudience = errors.New("audience must be single-user or all-users")
	ErrTitleRequired   = errors.New("title is required")
	ErrMessageRequired = errors.New("message is required")
	ErrTargetRequired  = errors.New("target user id is required for single-user audience")
	ErrTargetNotFound  = errors.New("target user not found")
	ErrNotFound        = errors.New("notification not found")
)

// Pusher delivers an event to every connection in a room. The realtime hub
// satisfies this; a nil Pusher disables pushes without disabling persistence.
type Pusher interface {
	EmitToRoom(room, event string, payload interface{})
}

// InboxRoom is the per-user room every authenticated realtime connection is
// subscribed to automatically.
func InboxRoom(userID string) string {
	return "inbox:" + userID
}

// Service persists notifications and pushes them to recipients.
type Service struct {
	db      *gorm.DB
	pusher  Pusher
	cache   *cache.RedisClient
	metrics *metrics.Metrics
}

// NewService creates a notification service. pusher, redisClient and m may be
// nil; persistence works without them.
func NewService(db *gorm.DB, pusher Pusher, redisClient *cache.RedisClient, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		pusher:  pusher,
		cache:   redisClient,
		metrics: m,
	}
}

// SendInput describes one delivery request.
type SendInput struct {
	Audience     string         `json:"audience"`
	TargetUserID string         `json:"targetUserId,omitempty"`
	Type         string         `json:"type,omitempty"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Payload      models.JSONMap `json:"payload,omitempty"`
}

// SendResult reports what a send created. Notification is set for the
// single-user audience only. SentTo counts successful pushes and can trail
// Persisted when recipients are offline or the pusher is absent.
type SendResult struct {
	Notification *models.Notification `json:"notification,omitempty"`
	Persisted    int64                `json:"persisted"`
	SentTo       int64                `json:"sentTo"`
}

// PushPayload is the wire shape of a notification pushed over websocket.
type PushPayload struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Payload   models.JSONMap `json:"payload,omitempty"`
	IsRead    bool           `json:"isRead"`
	ReadAt    *time.Time     `json:"readAt"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToPushPayload maps a stored notification to its wire shape. Pure by
// construction so the mapping stays testable without a connection.
func ToPushPayload(n *models.Notification) PushPayload {
	return PushPayload{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Payload:   n.Payload,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// Send validates the input, persists one row per recipient and pushes each
// row to its recipient's inbox room. Push failures never fail the send; the
// row is already durable and will surface on the next list.
func (s *Service) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	if input.Audience != AudienceSingleUser && input.Audience != AudienceAllUsers {
		return nil, ErrInvalidAudience
	}
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Message == "" {
		return nil, ErrMessageRequired
	}

	if input.Audience == AudienceSingleUser {
		return s.sendToUser(ctx, input)
	}
	return s.broadcast(ctx, input)
}

func (s *Service) sendToUser(ctx context.Context, input SendInput) (*SendResult, error) {
	if input.TargetUserID == "" {
		return nil, ErrTargetRequired
	}
	// A malformed id can never resolve; checking here keeps the uuid column
	// comparison from erroring at the database.
	if _, err := uuid.Parse(input.TargetUserID); err != nil {
		return nil, ErrTargetNotFound
	}

	var target models.User
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", input.TargetUserID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTargetNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up target user: %w", err)
	}

	notification := models.Notification{
		UserID:  input.TargetUserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		Payload: input.Payload,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.NotificationsPersisted.WithLabelValues(AudienceSingleUser).Inc()
	}

	s.invalidateUnreadCount(ctx, notification.UserID)
	var sentTo int64
	if s.push(&notification) {
		sentTo = 1
	}

	logger.Log.Info("notification sent",
		logger.WithNotificationID(notification.ID),
		logger.WithUserID(notification.UserID),
		zap.String("type", notification.Type),
	)

	return &SendResult{Notification: &notification, Persisted: 1, SentTo: sentTo}, nil
}

const broadcastBatchSize = 500

func (s *Service) broadcast(ctx context.Context, input SendInput) (*SendResult, error) {
	// Point-in-time snapshot of everyone holding the base member role.
	var userIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleMember).
		Pluck("id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	if len(userIDs) == 0 {
		return &SendResult{}, nil
	}

	rows := make([]models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, models.Notification{
			UserID:  userID,
			Type:    input.Type,
			Title:   input.Title,
			Message: input.Message,
			Payload: input.Payload,
		})
	}

	if err := s.db.WithContext(ctx).CreateInBatches(&rows, broadcastBatchSize).Error; err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	if s.metrics != nil {
		s.metrics.NotificationsPersisted.WithLabelValues(AudienceAllUsers).Add(float64(len(rows)))
	}

	var sentTo int64
	for i := range rows {
		s.invalidateUnreadCount(ctx, rows[i].UserID)
		if s.push(&rows[i]) {
			sentTo++
		}
	}

	logger.Log.Info("notification broadcast",
		zap.String("type", rows[0].Type),
		zap.Int("recipients", len(rows)),
	)

	return &SendResult{Persisted: int64(len(rows)), SentTo: sentTo}, nil
}

func (s *Service) push(n *models.Notification) bool {
	if s.pusher == nil {
		if s.metrics != nil {
			s.metrics.PushFailures.Inc()
		}
		return false
	}

	s.pusher.EmitToRoom(InboxRoom(n.UserID), EventNotification, ToPushPayload(n))
	if s.metrics != nil {
		s.metrics.NotificationsPushed.Inc()
	}
	return true
}

func unreadCountKey(userID string) string {
	return "notifications:unread:" + userID
}

func (s *Service) invalidateUnreadCount(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCountKey(userID)); err != nil {
		logger.Log.Warn("failed to invalidate unread count cache",
			logger.WithUserID(userID),
			zap.Error(err),
		)
	}
}
