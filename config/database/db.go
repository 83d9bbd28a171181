package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ieeesou/pkg/logger"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Connect opens driver ("postgres" or "sqlite") and pings it, retrying a few
// times to ride out DNS or network blips at startup.
func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	for i := 0; i < connectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Infof("Successfully connected to the %s database", driver)
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", retryDelay, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to %s after %d attempts: %w", driver, connectAttempts, err)
}
