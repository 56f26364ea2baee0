package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/market-hub/controllers/cart"
	couponControllers "github.com/junaidrashid-git/market-hub/controllers/coupon"
	orderControllers "github.com/junaidrashid-git/market-hub/controllers/order"
	productcontroller "github.com/junaidrashid-git/market-hub/controllers/product"
	uploadController "github.com/junaidrashid-git/market-hub/controllers/upload"
	userControllers "github.com/junaidrashid-git/market-hub/controllers/user"
	"github.com/junaidrashid-git/market-hub/middleware"
)

// SetupUserRoutes registers the endpoints for any signed-in account.
func SetupUserRoutes(api *gin.RouterGroup, d Deps) {
	authed := api.Group("")
	authed.Use(middleware.RequireAuth(d.DB, d.Sessions))

	authed.PUT("/products/:slug/rating", productcontroller.RateProduct(d.DB, d.Loader))
	authed.DELETE("/products/:slug/rating", productcontroller.DeleteRating(d.DB, d.Loader))
	authed.POST("/coupons/validate", couponControllers.ValidateCoupon(d.DB))
	if d.Signer != nil {
		authed.POST("/uploads/sign", uploadController.SignUpload(d.Signer))
	}

	userGroup := authed.Group("/user")
	{
		// ──────────────── Profile ────────────────
		userGroup.GET("/profile", userControllers.GetProfile())
		userGroup.PUT("/profile", userControllers.UpdateProfile(d.DB))
		userGroup.PUT("/password", userControllers.ChangePassword(d.DB))
		userGroup.POST("/vendor-application", userControllers.ApplyVendor(d.DB))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetCart(d.DB))
			cartGroup.DELETE("", cartControllers.ClearCart(d.DB))
			cartGroup.POST("/items", cartControllers.AddItem(d.DB))
			cartGroup.PUT("/items/:product_id", cartControllers.UpdateItem(d.DB))
			cartGroup.DELETE("/items/:product_id", cartControllers.RemoveItem(d.DB))
		}

		// ──────────────── Orders ────────────────
		orderGroup := userGroup.Group("/orders")
		{
			orderGroup.POST("", orderControllers.PlaceOrderHandler(d.DB, d.Shipping, d.Mailer, d.Publisher))
			orderGroup.GET("", orderControllers.ListMyOrders(d.DB))
			orderGroup.GET("/:ref", orderControllers.GetMyOrder(d.DB))
			orderGroup.POST("/:ref/cancel", orderControllers.CancelMyOrder(d.DB, d.Publisher))
		}
	}
}
