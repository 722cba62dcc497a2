package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Status filter values for List.
const (
	StatusAll    = "all"
	StatusRead   = "read"
	StatusUnread = "unread"
)

// Listing limits. Requests outside the range are clamped, never rejected.
const (
	DefaultLimit = 10
	MinLimit     = 5
	MaxLimit     = 100
)

// ListOptions controls pagination and filtering for List. Out-of-range values
// are clamped, so a zero Limit reads as MinLimit; callers that want the
// default page size pass DefaultLimit explicitly (the HTTP layer does).
type ListOptions struct {
	Page   int
	Limit  int
	Status string
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < MinLimit {
		o.Limit = MinLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Status != StatusRead && o.Status != StatusUnread {
		o.Status = StatusAll
	}
	return o
}

// ListResult is one page of a user's inbox, newest first. UnreadCount ignores
// the status filter so clients can render a badge from any page.
type ListResult struct {
	Items       []models.Notification `json:"items"`
	Total       int64                 `json:"total"`
	UnreadCount int64                 `json:"unreadCount"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int64                 `json:"totalPages"`
}

// Summary is the inbox overview returned by GetSummary. LatestNotification is
// the newest row regardless of read state; LatestUnreadAt is the creation time
// of the newest unread row, nil when everything is read.
type Summary struct {
	Total              int64                `json:"total"`
	Unread             int64                `json:"unread"`
	Read               int64                `json:"read"`
	HasUnread          bool                 `json:"hasUnread"`
	LatestNotification *models.Notification `json:"latestNotification,omitempty"`
	LatestUnreadAt     *time.Time           `json:"latestUnreadAt"`
}

// MarkAllResult reports how many rows a MarkAllAsRead touched.
type MarkAllResult struct {
	Updated int64      `json:"updated"`
	ReadAt  *time.Time `json:"readAt,omitempty"`
}

func (s *Service) scopedQuery(ctx context.Context, userID, status string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	switch status {
	case StatusRead:
		q = q.Where("is_read = ?", true)
	case StatusUnread:
		q = q.Where("is_read = ?", false)
	}
	return q
}

// List returns one page of the user's notifications sorted by creation time
// descending. The filtered total, the unfiltered unread count and the page
// items are read concurrently.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	opts = opts.normalized()

	var (
		items       []models.Notification
		total       int64
		unreadCount int64
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		offset := (opts.Page - 1) * opts.Limit
		return s.scopedQuery(gctx, userID, opts.Status).
			Order("created_at DESC").
			Limit(opts.Limit).
			Offset(offset).
			Find(&items).Error
	})

	g.Go(func() error {
		return s.scopedQuery(gctx, userID, opts.Status).Count(&total).Error
	})

	g.Go(func() error {
		var err error
		unreadCount, err = s.UnreadCount(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	totalPages := total / int64(opts.Limit)
	if total%int64(opts.Limit) != 0 {
		totalPages++
	}

	return &ListResult{
		Items:       items,
		Total:       total,
		UnreadCount: unreadCount,
		Page:        opts.Page,
		Limit:       opts.Limit,
		TotalPages:  totalPages,
	}, nil
}

// UnreadCount returns the user's unread total, serving from the cache when
// one is configured.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		if count, err := s.cache.GetInt(ctx, unreadCountKey(userID)); err == nil {
			return count, nil
		}
	}

	var count int64
	err := s.scopedQuery(ctx, userID, StatusUnread).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetEx(ctx, unreadCountKey(userID), count, 5*time.Minute); err != nil {
			logger.Log.Warn("failed to cache unread count",
				logger.WithUserID(userID),
				zap.Error(err),
			)
		}
	}

	return count, nil
}

// MarkAsRead flips one notification to read. Marking an already-read
// notification is a no-op that returns the row unchanged, ReadAt included.
// A notification owned by someone else is indistinguishable from a missing
// one: both return ErrNotFound.
func (s *Service) MarkAsRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	if _, err := uuid.Parse(notificationID); err != nil {
		return nil, ErrNotFound
	}

	var notification models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}

	if notification.IsRead {
		return &notification, nil
	}

	now := time.Now()
	notification.IsRead = true
	notification.ReadAt = &now
	err = s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	if s.metrics != nil {
		s.metrics.MarkReadTotal.WithLabelValues("single").Inc()
	}
	s.invalidateUnreadCount(ctx, userID)

	return &notification, nil
}

// MarkAllAsRead marks every unread notification of the user read with a
// single shared timestamp and returns how many rows changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (*MarkAllResult, error) {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return &MarkAllResult{Updated: 0}, nil
	}

	if s.metrics != nil {
		s.metrics.MarkReadTotal.WithLabelValues("all").Add(float64(result.RowsAffected))
	}
	s.invalidateUnreadCount(ctx, userID)

	logger.Log.Info("marked all notifications read",
		logger.WithUserID(userID),
		zap.Int64("updated", result.RowsAffected),
	)

	return &MarkAllResult{Updated: result.RowsAffected, ReadAt: &now}, nil
}

// GetSummary returns the inbox counters plus the newest notification and the
// creation time of the newest unread one.
func (s *Service) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	var total int64
	if err := s.scopedQuery(ctx, userID, StatusAll).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Total:     total,
		Unread:    unread,
		Read:      total - unread,
		HasUnread: unread > 0,
	}

	if total > 0 {
		var latest models.Notification
		err := s.scopedQuery(ctx, userID, StatusAll).
			Order("created_at DESC").
			First(&latest).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load latest notification: %w", err)
		}
		summary.LatestNotification = &latest
	}

	if unread > 0 {
		var latestUnread models.Notification
		err := s.scopedQuery(ctx, userID, StatusUnread).
			Order("created_at DESC").
			First(&latestUnread).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Stale cached unread count; the counters stay as reported.
		case err != nil:
			return nil, fmt.Errorf("failed to load latest unread notification: %w", err)
		default:
			summary.LatestUnreadAt = &latestUnread.CreatedAt
		}
	}

	return summary, nil
}
