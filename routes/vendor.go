package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/junaidrashid-git/market-hub/controllers/admin"
	orderControllers "github.com/junaidrashid-git/market-hub/controllers/order"
	productcontroller "github.com/junaidrashid-git/market-hub/controllers/product"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
)

// SetupVendorRoutes registers "/api/vendor/*". Admins may use them too.
func SetupVendorRoutes(api *gin.RouterGroup, d Deps) {
	vendorGroup := api.Group("/vendor")
	vendorGroup.Use(middleware.RequireAuth(d.DB, d.Sessions), middleware.RequireRole(models.RoleVendor, models.RoleAdmin))
	{
		vendorGroup.GET("/products", productcontroller.ListOwnProducts(d.DB))
		vendorGroup.POST("/products", productcontroller.CreateProduct(d.DB, d.Loader))
		vendorGroup.PUT("/products/:id", productcontroller.UpdateProduct(d.DB, d.Loader))
		vendorGroup.DELETE("/products/:id", productcontroller.DeleteProduct(d.DB, d.Loader))

		vendorGroup.GET("/orders", orderControllers.ListVendorOrderItems(d.DB))
		vendorGroup.GET("/stats", adminController.VendorStatsHandler(d.DB))
	}
}
