package authControllers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/mailer"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/session"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/junaidrashid-git/market-hub/testutil/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type inbox struct {
	msgs []mailer.Message
}

func (i *inbox) Send(_ context.Context, msg mailer.Message) error {
	i.msgs = append(i.msgs, msg)
	return nil
}

var tokenRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

func (i *inbox) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, i.msgs)
	m := tokenRe.FindStringSubmatch(i.msgs[len(i.msgs)-1].HTML)
	require.Len(t, m, 2)
	return m[1]
}

type fakeGoogle struct {
	id  *auth.GoogleIdentity
	err error
}

func (f fakeGoogle) Verify(context.Context, string) (*auth.GoogleIdentity, error) {
	return f.id, f.err
}

func setup(t *testing.T, google auth.GoogleVerifier) (*gin.Engine, *gorm.DB, *inbox, *session.Manager) {
	t.Helper()
	db := testutil.NewDB(t)
	box := &inbox{}
	mail, err := mailer.New(box, "https://shop.test")
	require.NoError(t, err)
	sessions := apitest.Sessions()

	r := apitest.NewRouter()
	g := r.Group("/api/auth")
	g.POST("/register", Register(db, mail))
	g.POST("/login", Login(db, sessions, true))
	g.POST("/logout", Logout(sessions))
	g.GET("/session", middleware.RequireAuth(db, sessions), Session())
	g.POST("/verify-email", VerifyEmail(db))
	g.POST("/resend-verification", ResendVerification(db, mail))
	g.POST("/forgot-password", ForgotPassword(db, mail))
	g.POST("/reset-password", ResetPassword(db))
	if google != nil {
		g.POST("/google", GoogleLogin(db, sessions, google))
	}
	return r, db, box, sessions
}

func TestRegisterVerifyLogin(t *testing.T) {
	r, db, box, _ := setup(t, nil)

	w := apitest.Do(r, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Ana", "email": "Ana@Example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "ana@example.com").Error)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.False(t, user.EmailVerified())
	assert.NotContains(t, w.Body.String(), "password_hash")

	// Unverified login is refused.
	login := gin.H{"email": "ana@example.com", "password": "password123"}
	w = apitest.Do(r, http.MethodPost, "/api/auth/login", login, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = apitest.Do(r, http.MethodPost, "/api/auth/verify-email", gin.H{"token": box.lastToken(t)}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = apitest.Do(r, http.MethodPost, "/api/auth/login", login, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := apitest.Map(t, w)
	token := body["token"].(string)
	assert.NotEmpty(t, token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), session.CookieName+"=")

	w = apitest.Do(r, http.MethodGet, "/api/auth/session", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@example.com", apitest.Map(t, w)["user"].(map[string]any)["email"])
}

func TestRegister_Validation(t *testing.T) {
	r, db, _, _ := setup(t, nil)
	existing := testutil.CreateUser(t, db, models.RoleUser)

	w := apitest.Do(r, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Dup", "email": existing.Email, "password": "password123",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is already registered", apitest.Map(t, w)["fields"].(map[string]any)["email"])

	w = apitest.Do(r, http.MethodPost, "/api/auth/register", gin.H{"email": "x@example.com", "password": "short"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := apitest.Map(t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "password")
}

func TestLogin_BadCredentials(t *testing.T) {
	r, db, _, _ := setup(t, nil)
	user := testutil.CreateUser(t, db, models.RoleUser)

	w := apitest.Do(r, http.MethodPost, "/api/auth/login", gin.H{"email": user.Email, "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = apitest.Do(r, http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "whatever1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", apitest.Map(t, w)["error"])
}

func TestLogout_ClearsCookie(t *testing.T) {
	r, _, _, _ := setup(t, nil)
	w := apitest.Do(r, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestForgotAndResetPassword(t *testing.T) {
	r, db, box, _ := setup(t, nil)
	user := testutil.CreateUser(t, db, models.RoleUser)

	w := apitest.Do(r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "ghost@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, box.msgs)

	w = apitest.Do(r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": user.Email}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := box.lastToken(t)

	w = apitest.Do(r, http.MethodPost, "/api/auth/reset-password", gin.H{"token": token, "password": "brand-new-pass"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Tokens are single use.
	w = apitest.Do(r, http.MethodPost, "/api/auth/reset-password", gin.H{"token": token, "password": "another-pass"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPost, "/api/auth/login", gin.H{"email": user.Email, "password": "brand-new-pass"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	r, db, _, _ := setup(t, nil)
	user := testutil.CreateUser(t, db, models.RoleUser)

	raw, hash, err := auth.NewToken()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Token{
		UserID: user.ID, Kind: models.TokenVerifyEmail, Hash: hash, ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	w := apitest.Do(r, http.MethodPost, "/api/auth/verify-email", gin.H{"token": raw}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is invalid or has expired", apitest.Map(t, w)["fields"].(map[string]any)["token"])
}

func TestResendVerification(t *testing.T) {
	r, db, box, _ := setup(t, nil)
	w := apitest.Do(r, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Bo", "email": "bo@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	first := box.lastToken(t)

	w = apitest.Do(r, http.MethodPost, "/api/auth/resend-verification", gin.H{"email": "bo@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	second := box.lastToken(t)
	assert.NotEqual(t, first, second)

	var count int64
	db.Model(&models.Token{}).Count(&count)
	assert.EqualValues(t, 1, count)

	w = apitest.Do(r, http.MethodPost, "/api/auth/verify-email", gin.H{"token": first}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleLogin(t *testing.T) {
	google := fakeGoogle{id: &auth.GoogleIdentity{UID: "g1", Email: "gee@example.com", EmailVerified: true, Name: "Gee", Picture: "https://img/g.png"}}
	r, db, _, _ := setup(t, google)

	w := apitest.Do(r, http.MethodPost, "/api/auth/google", gin.H{"id_token": "tok"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "gee@example.com").Error)
	assert.Equal(t, models.ProviderGoogle, user.Provider)
	assert.True(t, user.EmailVerified())

	// Second sign-in reuses the account.
	w = apitest.Do(r, http.MethodPost, "/api/auth/google", gin.H{"id_token": "tok"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGoogleLogin_UnverifiedEmailCannotClaimExistingAccount(t *testing.T) {
	identity := &auth.GoogleIdentity{UID: "g2", EmailVerified: false, Name: "Mallory"}
	r, db, _, _ := setup(t, fakeGoogle{id: identity})
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	identity.Email = admin.Email

	w := apitest.Do(r, http.MethodPost, "/api/auth/google", gin.H{"id_token": "tok"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), `"token"`)
	assert.Empty(t, w.Result().Cookies())

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, admin.ID).Error)
	assert.Equal(t, admin.Name, reloaded.Name)
}

func TestGoogleLogin_UnverifiedEmailCreatesUnverifiedAccount(t *testing.T) {
	google := fakeGoogle{id: &auth.GoogleIdentity{UID: "g3", Email: "new@example.com", EmailVerified: false}}
	r, db, _, _ := setup(t, google)

	w := apitest.Do(r, http.MethodPost, "/api/auth/google", gin.H{"id_token": "tok"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "new@example.com").Error)
	assert.False(t, user.EmailVerified())
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	r, _, _, _ := setup(t, fakeGoogle{err: errors.New("bad")})
	w := apitest.Do(r, http.MethodPost, "/api/auth/google", gin.H{"id_token": "tok"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
