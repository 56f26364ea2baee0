package routes

import (
	"github.com/gin-gonic/gin"
	productcontroller "github.com/junaidrashid-git/market-hub/controllers/product"
	"github.com/junaidrashid-git/market-hub/middleware"
)

// SetupCatalogRoutes registers the public browsing endpoints.
func SetupCatalogRoutes(api *gin.RouterGroup, d Deps) {
	public := api.Group("")
	public.Use(middleware.OptionalAuth(d.DB, d.Sessions))
	{
		public.GET("/products", productcontroller.ListProducts(d.DB))
		public.GET("/products/:slug", productcontroller.GetProduct(d.DB, d.Loader))
		public.GET("/products/:slug/ratings", productcontroller.ListRatings(d.DB))

		public.GET("/categories", productcontroller.ListCategories(d.DB, d.Loader))
		public.GET("/categories/:slug", productcontroller.GetCategory(d.DB))

		public.GET("/brands", productcontroller.ListBrands(d.DB, d.Loader))
		public.GET("/brands/:slug", productcontroller.GetBrand(d.DB))
	}
}
