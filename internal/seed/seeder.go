// Package seed fills a development database with realistic users and
// notifications.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/HoVietThang190704/social-app-sub001/internal/notifications"
	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder creates fake accounts and delivers fake notifications through the
// real delivery path so seeded data obeys the same rules as production data.
type Seeder struct {
	db            *gorm.DB
	notifications *notifications.Service
}

// NewSeeder creates a seeder
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:            db,
		notifications: notifications.NewService(db, nil, nil, nil),
	}
}

var notificationTypes = []string{
	models.NotificationTypeSystem,
	"order",
	"promotion",
	"friend-request",
	"recipe",
}

// SeedDev populates the database with userCount users and a few
// notifications each. The first created user is promoted to admin.
func (s *Seeder) SeedDev(ctx context.Context, userCount int) error {
	gofakeit.Seed(time.Now().UnixNano())

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	hashStr := string(passwordHash)

	users := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}

		user := models.User{
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName:  gofakeit.Name(),
			PasswordHash: &hashStr,
			Role:         role,
			AvatarURL:    gofakeit.ImageURL(200, 200),
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create seed user: %w", err)
		}
		users = append(users, user)
	}

	for _, user := range users {
		count := gofakeit.Number(1, 6)
		for i := 0; i < count; i++ {
			_, err := s.notifications.Send(ctx, notifications.SendInput{
				Audience:     notifications.AudienceSingleUser,
				TargetUserID: user.ID,
				Type:         notificationTypes[gofakeit.Number(0, len(notificationTypes)-1)],
				Title:        gofakeit.Sentence(4),
				Message:      gofakeit.Sentence(12),
				Payload: models.JSONMap{
					"source": "seed",
					"ref":    gofakeit.UUID(),
				},
			})
			if err != nil {
				return fmt.Errorf("failed to create seed notification: %w", err)
			}
		}
	}

	// One broadcast so every inbox shares at least one announcement
	_, err = s.notifications.Send(ctx, notifications.SendInput{
		Audience: notifications.AudienceAllUsers,
		Title:    "Welcome to the market",
		Message:  gofakeit.Sentence(10),
	})
	if err != nil {
		return fmt.Errorf("failed to broadcast seed notification: %w", err)
	}

	return nil
}

// Clean removes all seeded rows
func (s *Seeder) Clean(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Unscoped().Where("1 = 1").Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	if err := s.db.WithContext(ctx).Unscoped().Where("1 = 1").Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}
