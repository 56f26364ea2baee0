package userControllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"gorm.io/gorm"
)

type UpdateUserInput struct {
	Name    *string         `json:"name" binding:"omitempty,min=1,max=100"`
	Phone   *string         `json:"phone" binding:"omitempty,max=30"`
	Image   *string         `json:"image" binding:"omitempty,url"`
	Address *models.Address `json:"address"`
}

// GET /api/user/profile
func GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, user)
	}
}

// PUT /api/user/profile
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		user, _ := middleware.CurrentUser(c)

		updates := make(map[string]interface{})
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				c.Error(apperr.Field("name", "is required"))
				return
			}
			updates["name"] = name
		}
		if input.Phone != nil {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}
		if input.Image != nil {
			updates["image"] = *input.Image
		}
		if input.Address != nil {
			updates["street"] = strings.TrimSpace(input.Address.Street)
			updates["city"] = strings.TrimSpace(input.Address.City)
			updates["state"] = strings.TrimSpace(input.Address.State)
			updates["postal_code"] = strings.TrimSpace(input.Address.PostalCode)
			updates["country"] = strings.TrimSpace(input.Address.Country)
		}

		if len(updates) > 0 {
			if err := db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; err != nil {
				c.Error(apperr.Internal("update profile", err))
				return
			}
		}
		if err := db.WithContext(c.Request.Context()).First(user, "id = ?", user.ID).Error; err != nil {
			c.Error(apperr.Internal("reload profile", err))
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// PUT /api/user/password
func ChangePassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		user, _ := middleware.CurrentUser(c)
		if user.Provider != models.ProviderCredentials || user.PasswordHash == "" {
			c.Error(apperr.Validation("this account signs in with Google and has no password"))
			return
		}
		if !auth.CheckPassword(user.PasswordHash, input.CurrentPassword) {
			c.Error(apperr.Field("current_password", "is incorrect"))
			return
		}

		hash, err := auth.HashPassword(input.NewPassword)
		if err != nil {
			c.Error(apperr.Internal("hash password", err))
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(user).Update("password_hash", hash).Error; err != nil {
			c.Error(apperr.Internal("change password", err))
			return
		}
		c.JSON(http.StatusOK, controllers.Message("Password updated"))
	}
}

// POST /api/user/vendor-application
func ApplyVendor(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			StoreName        string `json:"store_name" binding:"required,max=100"`
			StoreDescription string `json:"store_description" binding:"max=1000"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		storeName := strings.TrimSpace(input.StoreName)
		if storeName == "" {
			c.Error(apperr.Field("store_name", "is required"))
			return
		}

		user, _ := middleware.CurrentUser(c)
		switch {
		case user.Role != models.RoleUser:
			c.Error(apperr.Validation("only customer accounts can apply to sell"))
			return
		case user.VendorStatus == models.VendorStatusPending:
			c.Error(apperr.Validation("your application is already under review"))
			return
		}

		err := db.WithContext(c.Request.Context()).Model(user).Updates(map[string]interface{}{
			"store_name":        storeName,
			"store_description": strings.TrimSpace(input.StoreDescription),
			"vendor_status":     models.VendorStatusPending,
		}).Error
		if err != nil {
			c.Error(apperr.Internal("submit vendor application", err))
			return
		}
		user.StoreName = storeName
		user.StoreDescription = strings.TrimSpace(input.StoreDescription)
		user.VendorStatus = models.VendorStatusPending
		c.JSON(http.StatusOK, user)
	}
}
