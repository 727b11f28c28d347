package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/saviobatista/flight-recorder/internal/config"
	"github.com/saviobatista/flight-recorder/internal/db/migrations"
	"github.com/saviobatista/flight-recorder/internal/logging"
)

// run applies pending migrations, or rolls back the last one
func run(db *sql.DB, rollback bool, logger *zap.SugaredLogger) error {
	logger = logging.OrNop(logger)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := migrations.New(db, logger)

	if rollback {
		if err := migrator.Rollback(migrations.All()); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return nil
	}

	count, err := migrator.Migrate(migrations.All())
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Infow("Database schema up to date", "applied", count)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	dbURL := flag.String("db", cfg.DBConnStr, "Database connection string")
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		logger.Errorw("Failed to connect to database", "error", err)
		_ = logging.Sync(logger)
		os.Exit(1)
	}

	err = run(db, *rollback, logger)
	if closeErr := db.Close(); closeErr != nil {
		logger.Warnw("Failed to close database", "error", closeErr)
	}
	if err != nil {
		logger.Errorw("Migration failed", "error", err)
		_ = logging.Sync(logger)
		os.Exit(1)
	}
	_ = logging.Sync(logger)
}
