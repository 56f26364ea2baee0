package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/config"
	orderControllers "github.com/junaidrashid-git/market-hub/controllers/order"
	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/imagehost"
	"github.com/junaidrashid-git/market-hub/mailer"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/realtime"
	"github.com/junaidrashid-git/market-hub/session"
	"gorm.io/gorm"
)

// Deps is everything the handlers need. Google and Signer are nil when the
// matching integration is not configured, and their routes are skipped.
type Deps struct {
	DB        *gorm.DB
	Config    config.Config
	Logger    *slog.Logger
	Sessions  *session.Manager
	Mailer    *mailer.Mailer
	Loader    *cache.Loader
	Publisher events.Publisher
	Hub       *realtime.Hub
	Google    auth.GoogleVerifier
	Signer    *imagehost.Signer
	Shipping  orderControllers.ShippingRates
}

// NewRouter builds the engine with the global middleware and every route group.
func NewRouter(d Deps) *gin.Engine {
	middleware.UseJSONFieldNames()

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))
	r.Use(middleware.ErrorHandler())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(r.Group("/api"), d)
	return r
}

// SetupRoutes is the single entry-point that wires up Auth, Catalog, User,
// Vendor and Admin route groups.
func SetupRoutes(api *gin.RouterGroup, d Deps) {
	SetupAuthRoutes(api, d)
	SetupCatalogRoutes(api, d)
	SetupUserRoutes(api, d)
	SetupVendorRoutes(api, d)
	SetupAdminRoutes(api, d)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// Credentials cannot be combined with a literal "*", so echo the origin back.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
