package cartControllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/junaidrashid-git/market-hub/testutil/apitest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gin.Engine, *gorm.DB, string, *models.User) {
	t.Helper()
	db := testutil.NewDB(t)
	sessions := apitest.Sessions()
	r := apitest.NewRouter()
	g := apitest.Authed(r, db, sessions)
	g.GET("/api/user/cart", GetCart(db))
	g.POST("/api/user/cart/items", AddItem(db))
	g.PUT("/api/user/cart/items/:product_id", UpdateItem(db))
	g.DELETE("/api/user/cart/items/:product_id", RemoveItem(db))
	g.DELETE("/api/user/cart", ClearCart(db))

	user := testutil.CreateUser(t, db, models.RoleUser)
	return r, db, apitest.Token(t, sessions, user), user
}

func TestGetCart_CreatesLazily(t *testing.T) {
	r, db, tok, user := setup(t)

	w := apitest.Do(r, http.MethodGet, "/api/user/cart", nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := apitest.Decode[CartResponse](t, w)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())

	// A second read reuses the same cart.
	w = apitest.Do(r, http.MethodGet, "/api/user/cart", nil, tok)
	assert.Equal(t, cart.ID, apitest.Decode[CartResponse](t, w).ID)

	var count int64
	db.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAddItem_AccumulatesAndChecksStock(t *testing.T) {
	r, db, tok, _ := setup(t)
	vendor := testutil.CreateUser(t, db, models.RoleVendor)
	mug := testutil.CreateProduct(t, db, vendor, "Mug", "7.25", 5)
	pen := testutil.CreateProduct(t, db, vendor, "Pen", "1.50", 0)

	w := apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": mug.ID, "quantity": 2}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": mug.ID, "quantity": 2}, tok)
	require.Equal(t, http.StatusOK, w.Code)

	cart := apitest.Decode[CartResponse](t, w)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 4, cart.ItemCount)
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("29")), cart.Subtotal.String())

	w = apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": mug.ID, "quantity": 2}, tok)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "only 5 of Mug in stock", apitest.Map(t, w)["fields"].(map[string]any)["quantity"])

	w = apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": pen.ID, "quantity": 1}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": 9999, "quantity": 1}, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": mug.ID, "quantity": 0}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddItem_LineCapIsNotReportedAsStock(t *testing.T) {
	r, db, tok, _ := setup(t)
	vendor := testutil.CreateUser(t, db, models.RoleVendor)
	paper := testutil.CreateProduct(t, db, vendor, "Paper", "0.10", 500)

	w := apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": paper.ID, "quantity": 60}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = apitest.Do(r, http.MethodPost, "/api/user/cart/items", gin.H{"product_id": paper.ID, "quantity": 60}, tok)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be at most 100", apitest.Map(t, w)["fields"].(map[string]any)["quantity"])
}

func TestUpdateRemoveClear(t *testing.T) {
	r, db, tok, user := setup(t)
	vendor := testutil.CreateUser(t, db, models.RoleVendor)
	mug := testutil.CreateProduct(t, db, vendor, "Mug", "5", 10)
	pen := testutil.CreateProduct(t, db, vendor, "Pen", "2", 10)
	testutil.AddToCart(t, db, user, mug, 1)
	testutil.AddToCart(t, db, user, pen, 1)

	w := apitest.Do(r, http.MethodPut, fmt.Sprintf("/api/user/cart/items/%d", mug.ID), gin.H{"quantity": 3}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := apitest.Decode[CartResponse](t, w)
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("17")))

	w = apitest.Do(r, http.MethodPut, fmt.Sprintf("/api/user/cart/items/%d", mug.ID), gin.H{"quantity": 11}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodDelete, fmt.Sprintf("/api/user/cart/items/%d", pen.ID), nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, apitest.Decode[CartResponse](t, w).Items, 1)

	w = apitest.Do(r, http.MethodDelete, fmt.Sprintf("/api/user/cart/items/%d", pen.ID), nil, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = apitest.Do(r, http.MethodDelete, "/api/user/cart", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, apitest.Decode[CartResponse](t, w).Items)
}

func TestCart_HidesWithdrawnProducts(t *testing.T) {
	r, db, tok, user := setup(t)
	vendor := testutil.CreateUser(t, db, models.RoleVendor)
	mug := testutil.CreateProduct(t, db, vendor, "Mug", "5", 10)
	testutil.AddToCart(t, db, user, mug, 2)
	require.NoError(t, db.Delete(mug).Error)

	w := apitest.Do(r, http.MethodGet, "/api/user/cart", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	cart := apitest.Decode[CartResponse](t, w)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
}
