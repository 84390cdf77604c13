package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"

	"tcm/internal/config"
	"tcm/internal/storage"
)

// DatabaseManager manages the run history database
type DatabaseManager struct {
	config *config.Config
	open   func(dsn string) (*sql.DB, error)
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config) *DatabaseManager {
	return &DatabaseManager{
		config: cfg,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("mysql", dsn)
		},
	}
}

// ServerDSN returns the configured DSN, or one built from DB_* variables
// when TCM_HISTORY_DSN is unset.
func (dm *DatabaseManager) ServerDSN() string {
	if dm.config.HistoryDSN != "" {
		return dm.config.HistoryDSN
	}

	// Get database connection info from environment or use defaults
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = envOr("DB_HOST", "127.0.0.1") + ":" + envOr("DB_PORT", "3306")
	mc.User = envOr("DB_USERNAME", "root")
	mc.Passwd = os.Getenv("DB_PASSWORD")
	return mc.FormatDSN()
}

// EnsureHistory creates the history database and its tables when missing.
// It reports whether the database had to be created.
func (dm *DatabaseManager) EnsureHistory(ctx context.Context) (bool, error) {
	dbName := dm.config.HistoryDatabase
	if !dm.isValidDatabaseName(dbName) {
		return false, fmt.Errorf("invalid database name: %s", dbName)
	}

	// Connect to MySQL server (without specifying database)
	db, err := dm.open(dm.ServerDSN())
	if err != nil {
		return false, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := dm.databaseExists(ctx, db, dbName)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", dbName, err)
	}
	if !exists {
		if err := dm.createDatabase(ctx, db, dbName); err != nil {
			return false, fmt.Errorf("failed to create database %s: %w", dbName, err)
		}
	}

	for _, stmt := range storage.HistorySchema(dbName) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return !exists, fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return !exists, nil
}

// databaseExists checks if a database exists
func (dm *DatabaseManager) databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// createDatabase creates a new database
func (dm *DatabaseManager) createDatabase(ctx context.Context, db *sql.DB, dbName string) error {
	query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)
	_, err := db.ExecContext(ctx, query)
	return err
}

// isValidDatabaseName allows letters, digits, underscore and dollar only
func (dm *DatabaseManager) isValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r == '$' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) < 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
