package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tcm/internal/cli"
	"tcm/internal/config"
	"tcm/internal/discovery"
	"tcm/internal/tags"
	"tcm/internal/ui"
)

// FindByTagCommand handles the find-by-tag command
type FindByTagCommand struct {
	config    *config.Config
	loader    *discovery.Loader
	formatter *ui.Formatter
}

// NewFindByTagCommand creates a new FindByTagCommand
func NewFindByTagCommand(cfg *config.Config, loader *discovery.Loader, formatter *ui.Formatter) *FindByTagCommand {
	return &FindByTagCommand{config: cfg, loader: loader, formatter: formatter}
}

// Execute runs the command
func (fc *FindByTagCommand) Execute(cmd *cobra.Command, args []string) error {
	filter, err := tags.NewFilter(args[0], nil, nil)
	if err != nil {
		return cli.ConfigError(err)
	}

	catalog, err := loadCatalog(fc.config, fc.loader)
	if err != nil {
		return err
	}

	fc.formatter.PrintList(filter.Apply(catalog.Valid()), false)
	return nil
}

// ShowTagsCommand handles the show-tags command
type ShowTagsCommand struct {
	config    *config.Config
	loader    *discovery.Loader
	formatter *ui.Formatter
	evaluator *tags.DynamicEvaluator
}

// NewShowTagsCommand creates a new ShowTagsCommand
func NewShowTagsCommand(cfg *config.Config, loader *discovery.Loader, formatter *ui.Formatter) *ShowTagsCommand {
	return &ShowTagsCommand{
		config:    cfg,
		loader:    loader,
		formatter: formatter,
		evaluator: tags.NewDynamicEvaluator(),
	}
}

// Execute runs the command
func (sc *ShowTagsCommand) Execute(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(sc.config, sc.loader)
	if err != nil {
		return err
	}

	tc, ok := catalog.Find(args[0])
	if !ok {
		return fmt.Errorf("no valid test case with id %q in %s", args[0], catalog.Root)
	}

	sc.formatter.PrintTags(tc, tags.Declared(tc).Sorted(), sc.evaluator.Evaluate(tc).Sorted())
	return nil
}
