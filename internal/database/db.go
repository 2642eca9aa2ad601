package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/retry"
)

// Open connects to MySQL with the given driver config and verifies the
// connection, retrying the ping while the server is still coming up.
func Open(ctx context.Context, mc *mysql.Config, logger *zap.Logger) (*sql.DB, error) {
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	_, err = retry.DoWithResult(ctx, retry.DefaultConfig(), func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database ping failed", zap.String("addr", mc.Addr), zap.Error(err))
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
