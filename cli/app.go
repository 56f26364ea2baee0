package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/junaidrashid-git/market-hub/config"
	"github.com/junaidrashid-git/market-hub/database"
	"github.com/junaidrashid-git/market-hub/logger"
	"gorm.io/gorm"
)

// bootstrap loads the configuration, installs the logger and opens the database.
func bootstrap() (config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log := logger.New(logger.Options{Service: "market-hub", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		database.Close(db)
		return config.Config{}, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, log, db, nil
}
