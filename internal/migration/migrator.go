package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"tcm/internal/logging"
)

// Migrator prepares persistent storage
type Migrator interface {
	Run(ctx context.Context) error
}

// HistoryMigrator creates the run history database and tables
type HistoryMigrator struct {
	databaseManager *DatabaseManager
}

// NewHistoryMigrator creates a new HistoryMigrator
func NewHistoryMigrator(dbManager *DatabaseManager) *HistoryMigrator {
	return &HistoryMigrator{databaseManager: dbManager}
}

// Run creates whatever is missing and reports what it did.
func (m *HistoryMigrator) Run(ctx context.Context) error {
	color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
	color.Cyan("║               Preparing Run History Database               ║")
	color.Cyan("╚════════════════════════════════════════════════════════════╝\n")

	startTime := time.Now()
	name := m.databaseManager.config.HistoryDatabase

	created, err := m.databaseManager.EnsureHistory(ctx)
	if err != nil {
		logging.Error("migration", err, "history database %s", name)
		color.Red("✗ Migration failed: %v\n", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	if created {
		color.Green("✓ Created database %s with history tables\n", name)
	} else {
		color.Green("✓ Database %s is up to date\n", name)
	}
	color.White("Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}
