package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "5", cfg.ShippingFlatRate.String())
	assert.Equal(t, "50", cfg.FreeShippingThreshold.String())
	assert.True(t, cfg.RequireEmailVerification)
	assert.NotEmpty(t, cfg.JWTSecret, "dev gets a fallback secret")
	assert.Equal(t, 168.0, cfg.SessionTTL.Hours())
}

func TestLoad_DiscreteDatabaseVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "hub")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "markethub")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db user=hub password=secret dbname=markethub port=6543 sslmode=disable", cfg.DatabaseURL)
}

func TestLoad_ListsAndInvalidMoney(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)

	t.Setenv("SHIPPING_FLAT_RATE", "five")
	_, err = Load()
	assert.ErrorContains(t, err, "SHIPPING_FLAT_RATE")
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_DRIVER", "mysql")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DATABASE_URL")
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "DB_DRIVER")
}
