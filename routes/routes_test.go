package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/config"
	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/imagehost"
	"github.com/junaidrashid-git/market-hub/mailer"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/realtime"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/junaidrashid-git/market-hub/testutil/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	mail, err := mailer.New(mailer.LogSender{}, "http://localhost:3000")
	require.NoError(t, err)
	hub := realtime.NewHub(nil)
	t.Cleanup(hub.Close)
	return Deps{
		DB:        testutil.NewDB(t),
		Config:    config.Config{CORSOrigins: []string{"https://shop.example.com"}, RequireEmailVerification: true},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sessions:  apitest.Sessions(),
		Mailer:    mail,
		Loader:    cache.NewLoader(cache.Noop{}, 0),
		Publisher: events.Fanout{hub},
		Hub:       hub,
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	r := NewRouter(newDeps(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouteGuards(t *testing.T) {
	d := newDeps(t)
	r := NewRouter(d)
	customer := apitest.Token(t, d.Sessions, testutil.CreateUser(t, d.DB, models.RoleUser))
	vendor := apitest.Token(t, d.Sessions, testutil.CreateUser(t, d.DB, models.RoleVendor))

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/products", "", http.StatusOK},
		{http.MethodGet, "/api/categories", "", http.StatusOK},
		{http.MethodGet, "/api/user/cart", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/user/cart", customer, http.StatusOK},
		{http.MethodGet, "/api/vendor/products", customer, http.StatusForbidden},
		{http.MethodGet, "/api/vendor/products", vendor, http.StatusOK},
		{http.MethodGet, "/api/admin/stats", vendor, http.StatusForbidden},
		{http.MethodGet, "/api/admin/orders/feed", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := apitest.Do(r, tc.method, tc.path, nil, tc.token)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestOptionalIntegrations(t *testing.T) {
	d := newDeps(t)
	r := NewRouter(d)
	tok := apitest.Token(t, d.Sessions, testutil.CreateUser(t, d.DB, models.RoleUser))

	assert.Equal(t, http.StatusNotFound, apitest.Do(r, http.MethodPost, "/api/auth/google", map[string]string{"id_token": "x"}, "").Code)
	assert.Equal(t, http.StatusNotFound, apitest.Do(r, http.MethodPost, "/api/uploads/sign", map[string]string{"folder": "avatars"}, tok).Code)

	d.Signer = imagehost.NewSigner("demo", "key", "secret")
	r = NewRouter(d)
	assert.Equal(t, http.StatusOK, apitest.Do(r, http.MethodPost, "/api/uploads/sign", map[string]string{"folder": "avatars"}, tok).Code)
}

func TestCORS(t *testing.T) {
	r := NewRouter(newDeps(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
