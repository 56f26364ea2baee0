package cartControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxLineQuantity = 100

type CartResponse struct {
	ID        uint              `json:"id"`
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func newCartResponse(cart *models.Cart) CartResponse {
	resp := CartResponse{ID: cart.ID, Items: make([]models.CartItem, 0, len(cart.Items))}
	for _, item := range cart.Items {
		// Items whose product has been withdrawn are not shown.
		if item.Product == nil {
			continue
		}
		resp.Items = append(resp.Items, item)
		resp.ItemCount += item.Quantity
	}
	resp.Subtotal = models.Cart{Items: resp.Items}.Subtotal()
	return resp
}

// cartFor returns the user's cart, creating it on first use.
func cartFor(ctx context.Context, db *gorm.DB, userID string) (*models.Cart, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&models.Cart{UserID: userID}).Error
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	var cart models.Cart
	if err := db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("added_at asc") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error; err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func respond(c *gin.Context, db *gorm.DB, status int) {
	cart, err := cartFor(c.Request.Context(), db, middleware.CurrentUserID(c))
	if err != nil {
		c.Error(apperr.Internal("load cart", err))
		return
	}
	c.JSON(status, newCartResponse(cart))
}

func stockError(product models.Product) error {
	if product.Stock <= 0 {
		return apperr.Field("quantity", product.Name+" is out of stock")
	}
	return apperr.Field("quantity", fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name))
}

// GET /api/user/cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, db, http.StatusOK)
	}
}

// POST /api/user/cart/items
// Adding a product already in the cart increases its quantity.
func AddItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID uint `json:"product_id" binding:"required"`
			Quantity  int  `json:"quantity" binding:"required,min=1,max=100"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var product models.Product
		if err := db.WithContext(ctx).First(&product, req.ProductID).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "product not found"))
			return
		}
		cart, err := cartFor(ctx, db, middleware.CurrentUserID(c))
		if err != nil {
			c.Error(apperr.Internal("load cart", err))
			return
		}

		var item models.CartItem
		err = db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&item).Error
		switch {
		case err == nil:
			qty := item.Quantity + req.Quantity
			if qty > maxLineQuantity {
				c.Error(apperr.Field("quantity", fmt.Sprintf("must be at most %d", maxLineQuantity)))
				return
			}
			if qty > product.Stock {
				c.Error(stockError(product))
				return
			}
			if err := db.WithContext(ctx).Model(&item).Update("quantity", qty).Error; err != nil {
				c.Error(apperr.Internal("update cart item", err))
				return
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if req.Quantity > product.Stock {
				c.Error(stockError(product))
				return
			}
			item = models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: req.Quantity, AddedAt: time.Now()}
			if err := db.WithContext(ctx).Create(&item).Error; err != nil {
				c.Error(apperr.Internal("add cart item", err))
				return
			}
		default:
			c.Error(apperr.Internal("load cart item", err))
			return
		}
		respond(c, db, http.StatusOK)
	}
}

// PUT /api/user/cart/items/:product_id sets the quantity.
func UpdateItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := controllers.UintParam(c, "product_id")
		if err != nil {
			c.Error(err)
			return
		}
		var req struct {
			Quantity int `json:"quantity" binding:"required,min=1,max=100"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		cart, err := cartFor(ctx, db, middleware.CurrentUserID(c))
		if err != nil {
			c.Error(apperr.Internal("load cart", err))
			return
		}
		var item models.CartItem
		if err := db.WithContext(ctx).Preload("Product").Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "item is not in your cart"))
			return
		}
		if item.Product == nil {
			c.Error(apperr.NotFound("product not found"))
			return
		}
		if req.Quantity > item.Product.Stock {
			c.Error(stockError(*item.Product))
			return
		}
		if err := db.WithContext(ctx).Model(&item).Update("quantity", req.Quantity).Error; err != nil {
			c.Error(apperr.Internal("update cart item", err))
			return
		}
		respond(c, db, http.StatusOK)
	}
}

// DELETE /api/user/cart/items/:product_id
func RemoveItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := controllers.UintParam(c, "product_id")
		if err != nil {
			c.Error(err)
			return
		}
		ctx := c.Request.Context()

		cart, err := cartFor(ctx, db, middleware.CurrentUserID(c))
		if err != nil {
			c.Error(apperr.Internal("load cart", err))
			return
		}
		res := db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		if res.Error != nil {
			c.Error(apperr.Internal("remove cart item", res.Error))
			return
		}
		if res.RowsAffected == 0 {
			c.Error(apperr.NotFound("item is not in your cart"))
			return
		}
		respond(c, db, http.StatusOK)
	}
}

// DELETE /api/user/cart
func ClearCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cart, err := cartFor(ctx, db, middleware.CurrentUserID(c))
		if err != nil {
			c.Error(apperr.Internal("load cart", err))
			return
		}
		if err := db.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			c.Error(apperr.Internal("clear cart", err))
			return
		}
		respond(c, db, http.StatusOK)
	}
}
