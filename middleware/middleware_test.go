package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/session"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRouter(db *gorm.DB, sessions *session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), ErrorHandler())

	r.GET("/me", RequireAuth(db, sessions), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})
	r.GET("/admin", RequireAuth(db, sessions), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/maybe", OptionalAuth(db, sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c)})
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth(t *testing.T) {
	db := testutil.NewDB(t)
	sessions := session.NewManager("test-secret", time.Hour, false)
	r := newRouter(db, sessions)
	user := testutil.CreateUser(t, db, models.RoleUser)

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w)["code"])

	w = do(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := sessions.Issue(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)
	w = do(r, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, decode(t, w)["id"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireAuth_CookieAndDeletedUser(t *testing.T) {
	db := testutil.NewDB(t)
	sessions := session.NewManager("test-secret", time.Hour, false)
	r := newRouter(db, sessions)
	user := testutil.CreateUser(t, db, models.RoleUser)
	token, _, err := sessions.Issue(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Delete(&models.User{}, "id = ?", user.ID).Error)
	w = do(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_UsesCurrentRole(t *testing.T) {
	db := testutil.NewDB(t)
	sessions := session.NewManager("test-secret", time.Hour, false)
	r := newRouter(db, sessions)
	user := testutil.CreateUser(t, db, models.RoleUser)
	token, _, err := sessions.Issue(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)

	w := do(r, "/admin", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode(t, w)["code"])

	// Promotion applies without a new token.
	require.NoError(t, db.Model(user).Update("role", models.RoleAdmin).Error)
	w = do(r, "/admin", token)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	db := testutil.NewDB(t)
	sessions := session.NewManager("test-secret", time.Hour, false)
	r := newRouter(db, sessions)
	user := testutil.CreateUser(t, db, models.RoleUser)
	token, _, err := sessions.Issue(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)

	assert.Equal(t, "", decode(t, do(r, "/maybe", ""))["id"])
	assert.Equal(t, "", decode(t, do(r, "/maybe", "bad-token"))["id"])
	assert.Equal(t, user.ID, decode(t, do(r, "/maybe", token))["id"])
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/signup", func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusCreated)
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("pq: connection refused"))
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Error(apperr.NotFoundOr(gorm.ErrRecordNotFound, "product not found"))
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"email":"nope","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation", body["code"])
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8", fields["password"])

	w = post(`{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])

	w = do(r, "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product not found", decode(t, w)["error"])
}
