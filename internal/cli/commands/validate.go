package commands

import (
	"github.com/spf13/cobra"

	"tcm/internal/cli"
	"tcm/internal/config"
	"tcm/internal/discovery"
	"tcm/internal/domain"
	"tcm/internal/ui"
)

// ValidateCommand handles the validate command
type ValidateCommand struct {
	config    *config.Config
	loader    *discovery.Loader
	formatter *ui.Formatter
}

// NewValidateCommand creates a new ValidateCommand
func NewValidateCommand(cfg *config.Config, loader *discovery.Loader, formatter *ui.Formatter) *ValidateCommand {
	return &ValidateCommand{
		config:    cfg,
		loader:    loader,
		formatter: formatter,
	}
}

// Execute runs the command
func (vc *ValidateCommand) Execute(cmd *cobra.Command, args []string) error {
	var results []domain.FileValidation
	if file := vc.config.Flags.File; file != "" {
		results = []domain.FileValidation{vc.loader.LoadFile(file)}
	} else {
		catalog, err := loadCatalog(vc.config, vc.loader)
		if err != nil {
			return err
		}
		results = catalog.Files
	}

	invalid := 0
	if vc.config.Flags.JSON {
		if err := vc.formatter.PrintValidationJSON(results); err != nil {
			return err
		}
		for _, r := range results {
			if r.Status.Kind() != domain.StatusValid {
				invalid++
			}
		}
	} else {
		invalid = vc.formatter.PrintValidation(results)
	}

	if invalid > 0 {
		return cli.Failed()
	}
	return nil
}
