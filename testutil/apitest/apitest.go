// Package apitest drives gin handlers in tests through the same error
// translation the server uses.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/session"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const Secret = "test-secret"

func Sessions() *session.Manager {
	return session.NewManager(Secret, time.Hour, false)
}

// NewRouter returns an engine with the error translator installed.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

// Authed returns a group requiring a session and, when given, one of roles.
func Authed(r *gin.Engine, db *gorm.DB, sessions *session.Manager, roles ...models.Role) *gin.RouterGroup {
	g := r.Group("/")
	g.Use(middleware.RequireAuth(db, sessions))
	if len(roles) > 0 {
		g.Use(middleware.RequireRole(roles...))
	}
	return g
}

func Token(t *testing.T, sessions *session.Manager, user *models.User) string {
	t.Helper()
	token, _, err := sessions.Issue(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)
	return token
}

// Do sends body as JSON (unless it is already an io.Reader) with an optional
// bearer token.
func Do(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the response body into T.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// Map is the loosely typed decoded body.
func Map(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	return Decode[map[string]any](t, w)
}
