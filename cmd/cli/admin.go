package main

import (
	"fmt"

	"github.com/HoVietThang190704/social-app-sub001/internal/database"
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/spf13/cobra"
)

var (
	promoteEmail  string
	promoteRevoke bool
)

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant or revoke the admin role",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		var user models.User
		if err := db.Where("LOWER(email) = LOWER(?)", promoteEmail).First(&user).Error; err != nil {
			return fmt.Errorf("user not found: %s", promoteEmail)
		}

		role := models.RoleAdmin
		if promoteRevoke {
			role = models.RoleMember
		}

		if user.Role == role {
			fmt.Printf("User %s already has role %s\n", user.Username, role)
			return nil
		}

		if err := db.Model(&user).Update("role", role).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		fmt.Printf("Role of %s (%s) set to %s\n", user.Username, user.Email, role)
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the account to change")
	promoteAdminCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke the admin role instead of granting it")
	_ = promoteAdminCmd.MarkFlagRequired("email")
}
