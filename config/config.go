package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	AppURL   string
	Port     string
	LogLevel string

	DBDriver    string
	DatabaseURL string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
	CORSOrigins  []string

	RequireEmailVerification bool

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ResendAPIKey string
	MailFrom     string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	KafkaBrokers     []string
	KafkaOrdersTopic string

	ShippingFlatRate      decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_URL", "http://localhost:3000")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("REQUIRE_EMAIL_VERIFICATION", true)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("MAIL_FROM", "Market Hub <no-reply@markethub.local>")
	v.SetDefault("KAFKA_ORDERS_TOPIC", "orders")
	v.SetDefault("SHIPPING_FLAT_RATE", "5")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", "50")
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	shipping, err := decimal.NewFromString(v.GetString("SHIPPING_FLAT_RATE"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SHIPPING_FLAT_RATE: %w", err)
	}
	threshold, err := decimal.NewFromString(v.GetString("FREE_SHIPPING_THRESHOLD"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid FREE_SHIPPING_THRESHOLD: %w", err)
	}

	cfg := Config{
		AppEnv:   v.GetString("APP_ENV"),
		AppURL:   strings.TrimRight(v.GetString("APP_URL"), "/"),
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL: databaseURL(v),

		JWTSecret:    v.GetString("JWT_SECRET"),
		SessionTTL:   v.GetDuration("SESSION_TTL"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
		CORSOrigins:  splitList(v.GetString("CORS_ORIGINS")),

		RequireEmailVerification: v.GetBool("REQUIRE_EMAIL_VERIFICATION"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		ResendAPIKey: v.GetString("RESEND_API_KEY"),
		MailFrom:     v.GetString("MAIL_FROM"),

		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: v.GetString("FIREBASE_CREDENTIALS_JSON"),

		CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),

		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaOrdersTopic: v.GetString("KAFKA_ORDERS_TOPIC"),

		ShippingFlatRate:      shipping,
		FreeShippingThreshold: threshold,
	}

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables.
func databaseURL(v *viper.Viper) string {
	if url := v.GetString("DATABASE_URL"); url != "" {
		return url
	}
	if v.GetString("DB_HOST") == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		v.GetString("DB_HOST"), v.GetString("DB_USER"), v.GetString("DB_PASSWORD"),
		v.GetString("DB_NAME"), v.GetString("DB_PORT"),
	)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "test"
}

func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL (or DB_HOST/DB_NAME) is required"))
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.ShippingFlatRate.IsNegative() || c.FreeShippingThreshold.IsNegative() {
		errs = append(errs, errors.New("shipping amounts must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) FirebaseEnabled() bool {
	return c.FirebaseProjectID != "" && c.FirebaseCredentialsJSON != ""
}

func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
