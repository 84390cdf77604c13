package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tcm/internal/cli"
	"tcm/internal/config"
	"tcm/internal/discovery"
	"tcm/internal/tags"
	"tcm/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	loader    *discovery.Loader
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(cfg *config.Config, loader *discovery.Loader, formatter *ui.Formatter) *ListCommand {
	return &ListCommand{
		config:    cfg,
		loader:    loader,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	filter, err := tags.NewFilter(lc.config.Flags.Tags, nil, nil)
	if err != nil {
		return cli.ConfigError(err)
	}

	catalog, err := loadCatalog(lc.config, lc.loader)
	if err != nil {
		return err
	}

	lc.formatter.PrintList(filter.Apply(catalog.Valid()), lc.config.Flags.Verbose)
	if invalid := catalog.Invalid(); lc.config.Flags.Verbose && len(invalid) > 0 {
		color.Yellow("\nInvalid documents:")
		lc.formatter.PrintValidation(invalid)
		return nil
	}
	warnInvalid(catalog)
	return nil
}

func warnInvalid(catalog *discovery.Catalog) {
	if invalid := len(catalog.Invalid()); invalid > 0 {
		color.Yellow("\n%d invalid document(s) skipped, run 'tcm validate --all' for details", invalid)
	}
}
