package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"astro-server/internal/shared/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
	Driver string
	logger *slog.Logger
}

type Tx struct {
	*sql.Tx
}

type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) BeginTxContext(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx}, nil
}

// Executor returns tx when it is non-nil and the pool otherwise.
func (db *DB) Executor(tx *Tx) Executor {
	if tx != nil {
		return tx
	}
	return db
}

func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger = logger.With("component", "database", "operation", "connect")
	logger.Debug("Initializing database connection")

	if cfg.Driver == config.DriverSQLite {
		logger.Info("Connecting to database", "driver", cfg.Driver, "path", cfg.Path)
	} else {
		logger.Info("Connecting to database",
			"driver", cfg.Driver,
			"host", cfg.Host,
			"port", cfg.Port,
			"user", cfg.User,
			"database", cfg.Name,
			"sslmode", cfg.SSLMode,
			"max_open_conns", cfg.MaxOpenConns,
			"max_idle_conns", cfg.MaxIdleConns,
		)
	}

	db, err := Open(ctx, cfg.Driver, cfg.ConnectionString(), logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err, "driver", cfg.Driver)
		return nil, err
	}

	// sqlite serializes writers anyway; a single connection also keeps
	// ":memory:" databases from splitting per connection.
	if cfg.Driver != config.DriverSQLite {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Info("Database connection established successfully", "driver", cfg.Driver)
	return db, nil
}

// Open opens and pings a database for the given driver and DSN. The logger is
// kept for migrations.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr, "ping_error", err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, Driver: driver, logger: logger}, nil
}
