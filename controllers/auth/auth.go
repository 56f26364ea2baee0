package authControllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/mailer"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/session"
	"gorm.io/gorm"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// POST /api/auth/register
func Register(db *gorm.DB, mail *mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required,max=100"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=8,max=72"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		email := normalizeEmail(req.Email)
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			c.Error(apperr.Internal("check email", err))
			return
		}
		if count > 0 {
			c.Error(apperr.Field("email", "is already registered"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.Error(apperr.Internal("register", err))
			return
		}
		user := models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: hash,
			Provider:     models.ProviderCredentials,
		}

		var raw string
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			raw, err = issueToken(tx, user.ID, models.TokenVerifyEmail, verifyTokenTTL)
			return err
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.Error(apperr.Field("email", "is already registered"))
				return
			}
			c.Error(apperr.Internal("register", err))
			return
		}

		if err := mail.VerifyEmail(ctx, user, raw); err != nil {
			slog.ErrorContext(ctx, "send verification email failed", "user_id", user.ID, "error", err)
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Account created. Check your inbox to verify your email.",
			"user":    user,
		})
	}
}

// POST /api/auth/login
func Login(db *gorm.DB, sessions *session.Manager, requireVerified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperr.Internal("login", err))
			return
		}
		if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			c.Error(apperr.Unauthorized("invalid email or password"))
			return
		}
		if requireVerified && !user.EmailVerified() {
			c.Error(apperr.Forbidden("email address is not verified"))
			return
		}

		startSession(c, sessions, &user)
	}
}

func startSession(c *gin.Context, sessions *session.Manager, user *models.User) {
	token, exp, err := sessions.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		c.Error(apperr.Internal("issue session", err))
		return
	}
	sessions.SetCookie(c.Writer, token, exp)
	c.JSON(http.StatusOK, sessionResponse{Token: token, ExpiresAt: exp, User: user})
}

// POST /api/auth/logout
func Logout(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions.ClearCookie(c.Writer)
		c.JSON(http.StatusOK, controllers.Message("Logged out"))
	}
}

// GET /api/auth/session
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.Error(apperr.Unauthorized("authentication required"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// POST /api/auth/verify-email
func VerifyEmail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			token, err := consumeToken(tx, req.Token, models.TokenVerifyEmail)
			if err != nil {
				return err
			}
			return tx.Model(&models.User{}).
				Where("id = ? AND email_verified_at IS NULL", token.UserID).
				Update("email_verified_at", time.Now()).Error
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, controllers.Message("Email verified"))
	}
}

// POST /api/auth/resend-verification
func ResendVerification(db *gorm.DB, mail *mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var user models.User
		err := db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
		if err == nil && !user.EmailVerified() {
			sendToken(ctx, db, user, models.TokenVerifyEmail, verifyTokenTTL, mail.VerifyEmail)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperr.Internal("resend verification", err))
			return
		}
		c.JSON(http.StatusOK, controllers.Message("If the account exists and is unverified, a new link has been sent."))
	}
}

// POST /api/auth/forgot-password
// Always answers 200 so the endpoint cannot be used to probe for accounts.
func ForgotPassword(db *gorm.DB, mail *mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var user models.User
		err := db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
		switch {
		case err == nil:
			sendToken(ctx, db, user, models.TokenResetPassword, resetTokenTTL, mail.ResetPassword)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			slog.ErrorContext(ctx, "forgot password lookup failed", "error", err)
		}
		c.JSON(http.StatusOK, controllers.Message("If the account exists, a reset link has been sent."))
	}
}

// POST /api/auth/reset-password
func ResetPassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token    string `json:"token" binding:"required"`
			Password string `json:"password" binding:"required,min=8,max=72"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.Error(apperr.Internal("reset password", err))
			return
		}

		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			token, err := consumeToken(tx, req.Token, models.TokenResetPassword)
			if err != nil {
				return err
			}
			// Following the emailed link proves ownership of the address.
			return tx.Model(&models.User{}).Where("id = ?", token.UserID).Updates(map[string]any{
				"password_hash":     hash,
				"email_verified_at": gorm.Expr("COALESCE(email_verified_at, ?)", time.Now()),
			}).Error
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, controllers.Message("Password updated"))
	}
}

// POST /api/auth/google
func GoogleLogin(db *gorm.DB, sessions *session.Manager, verifier auth.GoogleVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDToken string `json:"id_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		identity, err := verifier.Verify(ctx, req.IDToken)
		if err != nil {
			slog.WarnContext(ctx, "google sign-in rejected", "error", err)
			c.Error(apperr.Unauthorized("invalid Google ID token"))
			return
		}

		user, err := findOrCreateGoogleUser(ctx, db, identity)
		if errors.Is(err, errUnverifiedGoogleEmail) {
			slog.WarnContext(ctx, "google sign-in for existing account with unverified email", "uid", identity.UID)
			c.Error(apperr.Forbidden("verify this email with Google before signing in to an existing account"))
			return
		}
		if err != nil {
			c.Error(apperr.Internal("google sign-in", err))
			return
		}
		startSession(c, sessions, user)
	}
}

var errUnverifiedGoogleEmail = errors.New("google email not verified")

// findOrCreateGoogleUser links only through an email Google has verified; an
// unverified claim may create a fresh account but never take over one.
func findOrCreateGoogleUser(ctx context.Context, db *gorm.DB, id *auth.GoogleIdentity) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", normalizeEmail(id.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:    normalizeEmail(id.Email),
			Name:     id.Name,
			Image:    id.Picture,
			Provider: models.ProviderGoogle,
		}
		if id.EmailVerified {
			now := time.Now()
			user.EmailVerifiedAt = &now
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	if !id.EmailVerified {
		return nil, errUnverifiedGoogleEmail
	}

	// Existing accounts keep their own profile; only fill the gaps.
	updates := map[string]any{}
	if user.Name == "" && id.Name != "" {
		updates["name"] = id.Name
	}
	if user.Image == "" && id.Picture != "" {
		updates["image"] = id.Picture
	}
	if !user.EmailVerified() && id.EmailVerified {
		updates["email_verified_at"] = time.Now()
	}
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}
