// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // golang-migrate postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // golang-migrate file source

	// OpenTelemetry SQL instrumentation
	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Manager handles database lifecycle with proper logging
type Manager struct {
	logger *observability.Logger
}

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{logger: logger}
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// InitDB initializes a database connection pool, instruments it, and runs
// any pending migrations.
func (dm *Manager) InitDB(cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	_, span := observability.TraceDatabaseFunction(context.Background(), "init_db",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
		attribute.String("db.system", "postgresql"),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
	)
	defer observability.FinishSpan(span, &err)

	db, err := dm.Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := dm.RunMigrations(cfg.URL, cfg.MigrationsPath); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Warn(context.Background(), "Failed to close database after migration failure", map[string]interface{}{"error": closeErr.Error()})
		}
		return nil, err
	}

	return db, nil
}

// Open opens the instrumented connection pool without running migrations.
func (dm *Manager) Open(cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	if cfg.URL == "" {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseConnection, "database URL is empty")
	}

	driverName, err := otelDriverName()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to register instrumented driver")
	}

	db, err := sql.Open(driverName, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Warn(context.Background(), "Failed to close database after ping failure", map[string]interface{}{"error": closeErr.Error()})
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to ping database: %w", err)
	}

	dm.logger.Info(context.Background(), "Database connection established", map[string]interface{}{
		"db_name": extractDatabaseName(cfg.URL),
	})

	return db, nil
}

// otelDriverName registers (once) and returns the otelsql-wrapped postgres driver
func otelDriverName() (string, error) {
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.TraceQueryWithoutArgs(),
			otelsql.WithDatabaseName("tutorapp"),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		)
	})
	return otelDriverNameCache, otelDriverErr
}

// RunMigrations applies any pending migrations from the given directory.
func (dm *Manager) RunMigrations(databaseURL, migrationsPath string) (err error) {
	_, span := observability.TraceDatabaseFunction(context.Background(), "run_migrations",
		attribute.String("db.system", "postgresql"),
		attribute.String("migrations.path", migrationsPath),
	)
	defer observability.FinishSpan(span, &err)

	dm.logger.Info(context.Background(), "Starting database migrations", map[string]interface{}{
		"path": migrationsPath,
	})

	// migrate opens its own connection from the DSN
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to init migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			dm.logger.Warn(context.Background(), "Failed to close migration source", map[string]interface{}{"error": srcErr.Error()})
		}
		if dbErr != nil {
			dm.logger.Warn(context.Background(), "Failed to close migration database", map[string]interface{}{"error": dbErr.Error()})
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to run migrations: %w", err)
	}

	dm.logger.Info(context.Background(), "Database migrations complete")
	return nil
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		dbName := strings.TrimPrefix(u.Path, "/")
		if dbName != "" {
			return dbName
		}
	}

	if strings.Contains(databaseURL, "/") {
		parts := strings.Split(databaseURL, "/")
		dbPart := parts[len(parts)-1]
		if idx := strings.Index(dbPart, "?"); idx != -1 {
			return dbPart[:idx]
		}
		return dbPart
	}

	return "unknown"
}
