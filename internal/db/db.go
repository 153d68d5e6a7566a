package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MosinFAM/redditclone/internal/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose"
)

// Connect opens a PostgreSQL pool and verifies it with a ping
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.FromContext(ctx).Info().Msg("Connected to PostgreSQL successfully")
	return db, nil
}

// Migrate runs a goose command ("up", "down", "status", ...) against the migrations in dir
func Migrate(ctx context.Context, db *sql.DB, dir, command string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	logger.FromContext(ctx).Info().Str("dir", dir).Str("command", command).Msg("Running migrations")
	if err := goose.Run(command, db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
