package userControllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"github.com/junaidrashid-git/market-hub/session"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/junaidrashid-git/market-hub/testutil/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gin.Engine, *gorm.DB, *session.Manager) {
	t.Helper()
	db := testutil.NewDB(t)
	sessions := apitest.Sessions()
	loader := cache.NewLoader(cache.Noop{}, 0)

	r := apitest.NewRouter()
	user := apitest.Authed(r, db, sessions)
	user.GET("/api/user/profile", GetProfile())
	user.PUT("/api/user/profile", UpdateProfile(db))
	user.PUT("/api/user/password", ChangePassword(db))
	user.POST("/api/user/vendor-application", ApplyVendor(db))

	admin := apitest.Authed(r, db, sessions, models.RoleAdmin)
	admin.GET("/api/admin/users", ListUsers(db))
	admin.PATCH("/api/admin/users/:id/role", ChangeRole(db, loader))
	admin.DELETE("/api/admin/users/:id", DeleteUser(db, loader))
	return r, db, sessions
}

func TestProfile_GetAndUpdate(t *testing.T) {
	r, db, sessions := setup(t)
	u := testutil.CreateUser(t, db, models.RoleUser)
	tok := apitest.Token(t, sessions, u)

	w := apitest.Do(r, http.MethodGet, "/api/user/profile", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	body := apitest.Map(t, w)
	assert.Equal(t, u.Email, body["email"])
	assert.NotContains(t, body, "password_hash")

	w = apitest.Do(r, http.MethodPut, "/api/user/profile", gin.H{
		"name":    " Ana Silva ",
		"phone":   "+351 900",
		"address": gin.H{"street": "Rua 1", "city": "Porto", "country": "PT"},
	}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved models.User
	require.NoError(t, db.First(&saved, "id = ?", u.ID).Error)
	assert.Equal(t, "Ana Silva", saved.Name)
	assert.Equal(t, "+351 900", saved.Phone)
	assert.Equal(t, "Porto", saved.Address.City)
	assert.Equal(t, u.Email, saved.Email)

	w = apitest.Do(r, http.MethodPut, "/api/user/profile", gin.H{"name": "  "}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPut, "/api/user/profile", gin.H{"image": "not a url"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangePassword(t *testing.T) {
	r, db, sessions := setup(t)
	u := testutil.CreateUser(t, db, models.RoleUser)
	tok := apitest.Token(t, sessions, u)

	w := apitest.Do(r, http.MethodPut, "/api/user/password", gin.H{"current_password": "wrong-one", "new_password": "brand-new-pass"}, tok)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, apitest.Map(t, w)["fields"], "current_password")

	w = apitest.Do(r, http.MethodPut, "/api/user/password", gin.H{"current_password": testutil.Password, "new_password": "short"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPut, "/api/user/password", gin.H{"current_password": testutil.Password, "new_password": "brand-new-pass"}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved models.User
	require.NoError(t, db.First(&saved, "id = ?", u.ID).Error)
	assert.True(t, auth.CheckPassword(saved.PasswordHash, "brand-new-pass"))
}

func TestChangePassword_GoogleAccount(t *testing.T) {
	r, db, sessions := setup(t)
	u := testutil.CreateUser(t, db, models.RoleUser)
	require.NoError(t, db.Model(u).Updates(map[string]interface{}{"provider": models.ProviderGoogle, "password_hash": ""}).Error)

	w := apitest.Do(r, http.MethodPut, "/api/user/password", gin.H{"current_password": "whatever1", "new_password": "brand-new-pass"}, apitest.Token(t, sessions, u))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyVendor(t *testing.T) {
	r, db, sessions := setup(t)
	u := testutil.CreateUser(t, db, models.RoleUser)
	tok := apitest.Token(t, sessions, u)

	w := apitest.Do(r, http.MethodPost, "/api/user/vendor-application", gin.H{}, tok)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, apitest.Map(t, w)["fields"], "store_name")

	w = apitest.Do(r, http.MethodPost, "/api/user/vendor-application", gin.H{"store_name": "Ana's Mugs", "store_description": "Handmade"}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved models.User
	require.NoError(t, db.First(&saved, "id = ?", u.ID).Error)
	assert.Equal(t, models.VendorStatusPending, saved.VendorStatus)
	assert.Equal(t, "Ana's Mugs", saved.StoreName)
	assert.Equal(t, models.RoleUser, saved.Role)

	w = apitest.Do(r, http.MethodPost, "/api/user/vendor-application", gin.H{"store_name": "Again"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	vendor := testutil.CreateUser(t, db, models.RoleVendor)
	w = apitest.Do(r, http.MethodPost, "/api/user/vendor-application", gin.H{"store_name": "Second"}, apitest.Token(t, sessions, vendor))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsers_SearchAndRole(t *testing.T) {
	r, db, sessions := setup(t)
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	tok := apitest.Token(t, sessions, admin)
	target := testutil.CreateUser(t, db, models.RoleUser)
	testutil.CreateUser(t, db, models.RoleVendor)

	w := apitest.Do(r, http.MethodGet, "/api/admin/users", nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, apitest.Decode[pagination.Result[models.User]](t, w).Total)

	w = apitest.Do(r, http.MethodGet, "/api/admin/users?role=vendor", nil, tok)
	assert.EqualValues(t, 1, apitest.Decode[pagination.Result[models.User]](t, w).Total)

	w = apitest.Do(r, http.MethodGet, "/api/admin/users?search="+target.Email, nil, tok)
	page := apitest.Decode[pagination.Result[models.User]](t, w)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, target.ID, page.Items[0].ID)

	w = apitest.Do(r, http.MethodGet, "/api/admin/users?role=root", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodGet, "/api/admin/users", nil, apitest.Token(t, sessions, target))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChangeRole(t *testing.T) {
	r, db, sessions := setup(t)
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	tok := apitest.Token(t, sessions, admin)
	u := testutil.CreateUser(t, db, models.RoleUser)

	w := apitest.Do(r, http.MethodPatch, "/api/admin/users/"+u.ID+"/role", gin.H{"role": "vendor"}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved models.User
	require.NoError(t, db.First(&saved, "id = ?", u.ID).Error)
	assert.Equal(t, models.RoleVendor, saved.Role)
	assert.Equal(t, models.VendorStatusApproved, saved.VendorStatus)

	w = apitest.Do(r, http.MethodPatch, "/api/admin/users/"+u.ID+"/role", gin.H{"role": "root"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPatch, "/api/admin/users/"+admin.ID+"/role", gin.H{"role": "user"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPatch, "/api/admin/users/missing/role", gin.H{"role": "user"}, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	r, db, sessions := setup(t)
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	tok := apitest.Token(t, sessions, admin)
	vendor := testutil.CreateUser(t, db, models.RoleVendor)
	testutil.CreateProduct(t, db, vendor, "Mug", "5.00", 1)

	w := apitest.Do(r, http.MethodDelete, "/api/admin/users/"+admin.ID, nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodDelete, "/api/admin/users/"+vendor.ID, nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var users, products int64
	db.Model(&models.User{}).Where("id = ?", vendor.ID).Count(&users)
	db.Unscoped().Model(&models.Product{}).Where("vendor_id = ?", vendor.ID).Count(&products)
	assert.Zero(t, users)
	assert.Zero(t, products)

	w = apitest.Do(r, http.MethodDelete, "/api/admin/users/"+vendor.ID, nil, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
