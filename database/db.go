package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// Connect opens the PostgreSQL pool behind search history. A failed ping is
// logged but not fatal, so a suspended serverless database can wake up on the
// first real query.
func Connect(connStr string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if connStr == "" {
		return nil, errors.New("database: DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		logger.Warn("database ping failed, proceeding", "error", err)
	}

	// Idle connections would keep a suspended compute awake.
	db.SetMaxIdleConns(0)
	db.SetMaxOpenConns(10)

	logger.Info("connected to PostgreSQL")
	return db, nil
}
