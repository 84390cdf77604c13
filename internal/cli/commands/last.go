package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tcm/internal/config"
	"tcm/internal/storage"
	"tcm/internal/ui"
)

// recentRuns is how many history rows last --history prints.
const recentRuns = 10

// LastCommand handles the last command
type LastCommand struct {
	config    *config.Config
	storage   storage.Storage
	formatter *ui.Formatter
}

// NewLastCommand creates a new LastCommand
func NewLastCommand(cfg *config.Config, st storage.Storage, formatter *ui.Formatter) *LastCommand {
	return &LastCommand{
		config:    cfg,
		storage:   st,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *LastCommand) Execute(cmd *cobra.Command, args []string) error {
	summary, err := lc.storage.Load()
	if err != nil {
		return fmt.Errorf("no stored run (run 'tcm run' first): %w", err)
	}

	if err := lc.formatter.PrintSummary(summary); err != nil {
		return err
	}
	lc.formatter.PrintFailures(summary)

	if !lc.config.Flags.History {
		return nil
	}
	history, err := storage.OpenHistory(lc.config)
	if err != nil {
		return err
	}
	defer history.Close()

	rows, err := history.Recent(cmd.Context(), recentRuns)
	if err != nil {
		return err
	}
	lc.formatter.PrintHistory(rows)
	return nil
}
