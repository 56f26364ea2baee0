package cli

import (
	"context"
	"testing"

	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/config"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdmin_CreatesVerifiedAdmin(t *testing.T) {
	db := testutil.NewDB(t)

	user, created, err := createAdmin(context.Background(), db, " Root@Example.com ", "s3cret-pass", "Root")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "root@example.com", user.Email)

	var saved models.User
	require.NoError(t, db.First(&saved, "id = ?", user.ID).Error)
	assert.Equal(t, models.RoleAdmin, saved.Role)
	assert.NotNil(t, saved.EmailVerifiedAt)
	assert.True(t, auth.CheckPassword(saved.PasswordHash, "s3cret-pass"))
}

func TestCreateAdmin_PromotesExisting(t *testing.T) {
	db := testutil.NewDB(t)
	existing := testutil.CreateUser(t, db, models.RoleUser)

	user, created, err := createAdmin(context.Background(), db, existing.Email, "another-pass", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, user.ID)

	var saved models.User
	require.NoError(t, db.First(&saved, "id = ?", existing.ID).Error)
	assert.Equal(t, models.RoleAdmin, saved.Role)
	assert.Equal(t, existing.Name, saved.Name)
	assert.True(t, auth.CheckPassword(saved.PasswordHash, "another-pass"))

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateAdmin_Rejects(t *testing.T) {
	db := testutil.NewDB(t)
	_, _, err := createAdmin(context.Background(), db, "not-an-email", "long-enough", "x")
	assert.Error(t, err)
	_, _, err = createAdmin(context.Background(), db, "a@example.com", "short", "x")
	assert.ErrorContains(t, err, "at least 8")
}

func TestNewLoader_WithoutRedis(t *testing.T) {
	loader, closeFn := newLoader(context.Background(), config.Config{})
	defer closeFn()
	assert.NotNil(t, loader)
}

func TestNewMailer_FallsBackToLog(t *testing.T) {
	m, err := newMailer(config.Config{AppURL: "http://localhost"})
	require.NoError(t, err)
	assert.NoError(t, m.VerifyEmail(context.Background(), models.User{Email: "a@example.com"}, "tok"))
}
