package db

import (
	"context"
	"database/sql"
	"fmt"
	"oil-collection-service/internal/config"
	"time"
)

// Open connects to the Postgres registry through the pgx stdlib driver.
// Pool limits come from DB_MAX_OPEN_CONNS and DB_CONN_MAX_LIFETIME_MINUTES.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	maxConns := config.GetInt("DB_MAX_OPEN_CONNS", 10)
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Duration(config.GetInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}
