package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationTypeSystem is the default category when a sender does not set one.
const NotificationTypeSystem = "system"

// JSONMap holds opaque structured data attached by the sender.
type JSONMap map[string]interface{}

// Notification is one per-recipient inbox record. A broadcast creates an
// independent row per recipient; rows are never reassigned and never deleted.
// IsRead and ReadAt are the only mutable fields, and the read transition is
// one-way: once read, a notification never returns to unread.
type Notification struct {
	ID      string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string  `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type    string  `gorm:"not null;default:system" json:"type"`
	Title   string  `gorm:"not null" json:"title"`
	Message string  `gorm:"not null;type:text" json:"message"`
	Payload JSONMap `gorm:"type:jsonb;serializer:json" json:"payload,omitempty"`

	IsRead bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	// CreatedAt is the sole sort key for listings (descending).
	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
}

// BeforeCreate assigns an ID when the caller did not.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Type == "" {
		n.Type = NotificationTypeSystem
	}
	return nil
}
