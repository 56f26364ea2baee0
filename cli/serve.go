package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/config"
	orderControllers "github.com/junaidrashid-git/market-hub/controllers/order"
	productcontroller "github.com/junaidrashid-git/market-hub/controllers/product"
	"github.com/junaidrashid-git/market-hub/database"
	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/imagehost"
	"github.com/junaidrashid-git/market-hub/mailer"
	"github.com/junaidrashid-git/market-hub/realtime"
	"github.com/junaidrashid-git/market-hub/routes"
	"github.com/junaidrashid-git/market-hub/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveFlags struct {
	migrate bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveFlags.migrate, "migrate", true, "auto-migrate the schema before serving")
}

func serve(ctx context.Context) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer database.Close(db)

	if serveFlags.migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := routes.Deps{
		DB:       db,
		Config:   cfg,
		Logger:   log,
		Sessions: session.NewManager(cfg.JWTSecret, cfg.SessionTTL, cfg.CookieSecure),
		Hub:      realtime.NewHub(cfg.CORSOrigins),
		Shipping: orderControllers.ShippingRates{FlatRate: cfg.ShippingFlatRate, FreeThreshold: cfg.FreeShippingThreshold},
	}
	defer deps.Hub.Close()

	loader, closeCache := newLoader(ctx, cfg)
	defer closeCache()
	deps.Loader = loader

	if deps.Mailer, err = newMailer(cfg); err != nil {
		return err
	}

	publishers := events.Fanout{deps.Hub, productcontroller.StockSync{Loader: loader}}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaOrdersTopic, cfg.KafkaBrokers...)
		defer kafka.Close()
		publishers = append(publishers, kafka)
		slog.Info("kafka order events enabled", "topic", cfg.KafkaOrdersTopic, "brokers", cfg.KafkaBrokers)
	}
	deps.Publisher = publishers

	if cfg.FirebaseEnabled() {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
		if err != nil {
			return err
		}
		deps.Google = verifier
	} else {
		slog.Info("google sign-in disabled (firebase not configured)")
	}
	if cfg.CloudinaryEnabled() {
		deps.Signer = imagehost.NewSigner(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	} else {
		slog.Info("upload signing disabled (cloudinary not configured)")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newLoader connects to Redis when configured. Without it, or when Redis is
// unreachable at start, every read goes to the database.
func newLoader(ctx context.Context, cfg config.Config) (*cache.Loader, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewLoader(cache.Noop{}, cfg.CacheTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	closeFn := func() { _ = client.Close() }

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, catalog cache disabled", "addr", cfg.RedisAddr, "error", err)
		closeFn()
		return cache.NewLoader(cache.Noop{}, cfg.CacheTTL), func() {}
	}
	slog.Info("catalog cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return cache.NewLoader(cache.NewRedisCache(client), cfg.CacheTTL), closeFn
}

func newMailer(cfg config.Config) (*mailer.Mailer, error) {
	var sender mailer.Sender = mailer.LogSender{}
	if cfg.ResendAPIKey != "" {
		sender = mailer.WithBreaker(mailer.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom), 5, 30*time.Second)
	}
	return mailer.New(sender, cfg.AppURL)
}
