package middleware

import (
	"errors"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/session"
	"gorm.io/gorm"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxUser   = "user"
)

// RequireAuth validates the session token and loads the user, so a role change
// or a deleted account takes effect on the next request.
func RequireAuth(db *gorm.DB, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, db, sessions)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid session is present and otherwise
// lets the request through anonymously.
func OptionalAuth(db *gorm.DB, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.FromRequest(c.Request) != "" {
			if user, err := authenticate(c, db, sessions); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, db *gorm.DB, sessions *session.Manager) (*models.User, error) {
	token := session.FromRequest(c.Request)
	if token == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	claims, err := sessions.Parse(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired session")
	}

	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.Subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, apperr.Internal("load session user", err)
	}
	return &user, nil
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ctxUserID, user.ID)
	c.Set(ctxRole, user.Role)
	c.Set(ctxUser, user)
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Error(apperr.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		if !slices.Contains(roles, user.Role) {
			c.Error(apperr.Forbidden("you do not have access to this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentUserID returns "" for anonymous requests.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func IsAdmin(c *gin.Context) bool {
	user, ok := CurrentUser(c)
	return ok && user.Role == models.RoleAdmin
}
