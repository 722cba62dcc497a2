package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Every registered account starts as a member; admins are
// promoted out-of-band (CLI or another admin).
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User represents a platform account.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	Role      string `gorm:"not null;default:member;index" json:"role"`
	AvatarURL string `json:"avatar_url"`

	LastActiveAt *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns an ID when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
