package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/junaidrashid-git/market-hub/controllers/admin"
	couponControllers "github.com/junaidrashid-git/market-hub/controllers/coupon"
	orderControllers "github.com/junaidrashid-git/market-hub/controllers/order"
	productcontroller "github.com/junaidrashid-git/market-hub/controllers/product"
	userControllers "github.com/junaidrashid-git/market-hub/controllers/user"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
)

// SetupAdminRoutes registers all "/api/admin/*" endpoints.
func SetupAdminRoutes(api *gin.RouterGroup, d Deps) {
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.RequireAuth(d.DB, d.Sessions), middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.GET("/stats", adminController.AdminStats(d.DB))

		// ─────────── User & Vendor Management ───────────
		adminGroup.GET("/users", userControllers.ListUsers(d.DB))
		adminGroup.PATCH("/users/:id/role", userControllers.ChangeRole(d.DB, d.Loader))
		adminGroup.DELETE("/users/:id", userControllers.DeleteUser(d.DB, d.Loader))

		vendorMgmt := adminGroup.Group("/vendors")
		{
			vendorMgmt.GET("/applications", adminController.ListVendorApplications(d.DB))
			vendorMgmt.POST("/:id/approve", adminController.ApproveVendor(d.DB))
			vendorMgmt.POST("/:id/reject", adminController.RejectVendor(d.DB))
		}

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("", productcontroller.ListProducts(d.DB))
			productAdmin.POST("", productcontroller.CreateProduct(d.DB, d.Loader))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(d.DB, d.Loader))
			productAdmin.DELETE("/:id", productcontroller.DeleteProduct(d.DB, d.Loader))
			productAdmin.POST("/import", productcontroller.ImportProducts(d.DB, d.Loader))
			productAdmin.GET("/export", productcontroller.ExportProducts(d.DB))
		}

		// ─────────── Category & Brand Management ───────────
		categoryAdmin := adminGroup.Group("/categories")
		{
			categoryAdmin.POST("", productcontroller.CreateCategory(d.DB, d.Loader))
			categoryAdmin.PUT("/:id", productcontroller.UpdateCategory(d.DB, d.Loader))
			categoryAdmin.DELETE("/:id", productcontroller.DeleteCategory(d.DB, d.Loader))
		}
		brandAdmin := adminGroup.Group("/brands")
		{
			brandAdmin.POST("", productcontroller.CreateBrand(d.DB, d.Loader))
			brandAdmin.PUT("/:id", productcontroller.UpdateBrand(d.DB, d.Loader))
			brandAdmin.DELETE("/:id", productcontroller.DeleteBrand(d.DB, d.Loader))
		}

		// ─────────── Coupons ───────────
		couponAdmin := adminGroup.Group("/coupons")
		{
			couponAdmin.GET("", couponControllers.ListCoupons(d.DB))
			couponAdmin.GET("/:id", couponControllers.GetCoupon(d.DB))
			couponAdmin.POST("", couponControllers.CreateCoupon(d.DB))
			couponAdmin.PUT("/:id", couponControllers.UpdateCoupon(d.DB))
			couponAdmin.DELETE("/:id", couponControllers.DeleteCoupon(d.DB))
		}

		// ─────────── Orders ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.ListOrders(d.DB))
			orderAdmin.GET("/feed", orderControllers.OrderFeed(d.Hub))
			orderAdmin.GET("/:ref", orderControllers.GetOrder(d.DB))
			orderAdmin.PATCH("/:ref/status", orderControllers.UpdateOrderStatus(d.DB, d.Publisher))
			orderAdmin.PATCH("/:ref/payment-status", orderControllers.UpdatePaymentStatus(d.DB, d.Publisher))
			orderAdmin.DELETE("/:ref", orderControllers.DeleteOrder(d.DB, d.Publisher))
		}
	}
}
