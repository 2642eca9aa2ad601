package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/database"
	"github.com/glowscan/skincare-admin/internal/logging"
)

// Env is the configuration shared by every subcommand. It is loaded lazily
// so --help works without a database.
type Env struct {
	Config config.Config
	Logger *zap.Logger
}

// LoadEnv reads the environment and builds the logger.
func LoadEnv() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Logger: logger}, nil
}

func (e *Env) mysql() (*mysql.Config, error) {
	mc, err := e.Config.MySQL()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	return mc, nil
}

// OpenDB connects to the configured database.
func (e *Env) OpenDB(ctx context.Context) (*sql.DB, error) {
	mc, err := e.mysql()
	if err != nil {
		return nil, err
	}
	return database.Open(ctx, mc, e.Logger.Named("db"))
}
