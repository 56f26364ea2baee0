package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/database"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var adminFlags struct {
	email    string
	password string
	name     string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close(db)

		user, created, err := createAdmin(cmd.Context(), db, adminFlags.email, adminFlags.password, adminFlags.name)
		if err != nil {
			return err
		}
		if created {
			log.Info("admin created", "user_id", user.ID, "email", user.Email)
		} else {
			log.Info("existing user promoted to admin", "user_id", user.ID, "email", user.Email)
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "Administrator", "display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

// createAdmin makes email a verified admin with password, creating the user if
// needed. It reports whether a new row was inserted.
func createAdmin(ctx context.Context, db *gorm.DB, email, password, name string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, false, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < auth.MinPasswordLength {
		return nil, false, fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	now := time.Now()

	var user models.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:           email,
			Name:            strings.TrimSpace(name),
			PasswordHash:    hash,
			Role:            models.RoleAdmin,
			Provider:        models.ProviderCredentials,
			EmailVerifiedAt: &now,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("create admin: %w", err)
		}
		return &user, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("look up user: %w", err)
	}

	err = db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"role":              models.RoleAdmin,
		"password_hash":     hash,
		"email_verified_at": gorm.Expr("COALESCE(email_verified_at, ?)", now),
	}).Error
	if err != nil {
		return nil, false, fmt.Errorf("promote user: %w", err)
	}
	user.Role = models.RoleAdmin
	return &user, false, nil
}
