package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HoVietThang190704/social-app-sub001/internal/database"
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/HoVietThang190704/social-app-sub001/internal/notifications"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	notifyTarget  string
	notifyType    string
	notifyTitle   string
	notifyMessage string
	notifyPayload string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send notifications",
}

var notifySendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a notification to one user",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		userID, err := resolveUser(db, notifyTarget)
		if err != nil {
			return err
		}

		input, err := buildInput(notifications.AudienceSingleUser)
		if err != nil {
			return err
		}
		input.TargetUserID = userID

		service := notifications.NewService(db, nil, nil, nil)
		result, err := service.Send(context.Background(), input)
		if err != nil {
			return err
		}

		fmt.Printf("Sent notification %s to user %s\n", result.Notification.ID, userID)
		return nil
	},
}

var notifyBroadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send a notification to every member",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		input, err := buildInput(notifications.AudienceAllUsers)
		if err != nil {
			return err
		}

		service := notifications.NewService(db, nil, nil, nil)
		result, err := service.Send(context.Background(), input)
		if err != nil {
			return err
		}

		fmt.Printf("Broadcast persisted for %d users\n", result.Persisted)
		return nil
	},
}

func buildInput(audience string) (notifications.SendInput, error) {
	input := notifications.SendInput{
		Audience: audience,
		Type:     notifyType,
		Title:    notifyTitle,
		Message:  notifyMessage,
	}

	if notifyPayload != "" {
		var payload models.JSONMap
		if err := json.Unmarshal([]byte(notifyPayload), &payload); err != nil {
			return input, fmt.Errorf("invalid --payload JSON: %w", err)
		}
		input.Payload = payload
	}

	return input, nil
}

// resolveUser accepts a user ID or an email address
func resolveUser(db *gorm.DB, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("--user is required")
	}

	query := db.Where("LOWER(email) = LOWER(?)", target)
	if _, err := uuid.Parse(target); err == nil {
		query = db.Where("id = ?", target)
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		return "", fmt.Errorf("user not found: %s", target)
	}
	return user.ID, nil
}

func init() {
	for _, cmd := range []*cobra.Command{notifySendCmd, notifyBroadcastCmd} {
		cmd.Flags().StringVar(&notifyType, "type", "", "Notification category (defaults to system)")
		cmd.Flags().StringVar(&notifyTitle, "title", "", "Notification title")
		cmd.Flags().StringVar(&notifyMessage, "message", "", "Notification message")
		cmd.Flags().StringVar(&notifyPayload, "payload", "", "Optional JSON payload")
		_ = cmd.MarkFlagRequired("title")
		_ = cmd.MarkFlagRequired("message")
	}

	notifySendCmd.Flags().StringVar(&notifyTarget, "user", "", "Target user ID or email")
	_ = notifySendCmd.MarkFlagRequired("user")

	notifyCmd.AddCommand(notifySendCmd)
	notifyCmd.AddCommand(notifyBroadcastCmd)
}
