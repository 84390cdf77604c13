package commands

import (
	"fmt"

	"tcm/internal/cli"
	"tcm/internal/config"
	"tcm/internal/discovery"
	"tcm/internal/execution"
	"tcm/internal/migration"
	"tcm/internal/schema"
	"tcm/internal/scriptgen"
	"tcm/internal/storage"
	"tcm/internal/ui"

	"github.com/spf13/cobra"
)

// Commands holds all CLI commands
type Commands struct {
	Validate  *ValidateCommand
	List      *ListCommand
	Run       *RunCommand
	FindByTag *FindByTagCommand
	ShowTags  *ShowTagsCommand
	Migrate   *MigrateCommand
	Last      *LastCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) (*Commands, error) {
	// Initialize dependencies
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	scanner := discovery.NewScanner(cfg.PathsToIgnore)
	loader := discovery.NewLoader(scanner, validator)
	filter := discovery.NewFilter()
	runner := execution.NewRunner(cfg)
	generator := scriptgen.NewGenerator(cfg, runner)
	executor := execution.NewWorkerPool(cfg, generator, nil)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	dbManager := migration.NewDatabaseManager(cfg)
	migrator := migration.NewHistoryMigrator(dbManager)

	return &Commands{
		Validate:  NewValidateCommand(cfg, loader, formatter),
		List:      NewListCommand(cfg, loader, formatter),
		Run:       NewRunCommand(cfg, loader, filter, executor, jsonStorage, formatter),
		FindByTag: NewFindByTagCommand(cfg, loader, formatter),
		ShowTags:  NewShowTagsCommand(cfg, loader, formatter),
		Migrate:   NewMigrateCommand(cfg, migrator),
		Last:      NewLastCommand(cfg, jsonStorage, formatter),
	}, nil
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	// Update config with flags after parsing
	preRun := func(cmd *cobra.Command, args []string) error {
		cfg.Flags = flags.ToConfigFlags()
		cfg.Flags.IDs = args
		flags.ApplyExecution(cfg)
		return nil
	}

	// Validate command
	validateCmd := &cobra.Command{
		Use:     "validate",
		Short:   "Validate test case documents against the schema",
		Long:    "Check every test case document (or a single file) against the embedded schema and report each violation with its location",
		Args:    cobra.NoArgs,
		RunE:    c.Validate.Execute,
		PreRunE: preRun,
	}
	validateCmd.Flags().BoolVarP(&flags.All, "all", "a", false, "Validate every document in the test case directory")
	validateCmd.Flags().StringVarP(&flags.File, "file", "f", "", "Validate a single document")
	validateCmd.Flags().BoolVar(&flags.JSON, "json", false, "Print results as JSON")
	validateCmd.MarkFlagsMutuallyExclusive("all", "file")
	validateCmd.MarkFlagsOneRequired("all", "file")
	rootCmd.AddCommand(validateCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List valid test cases",
		Long:    "Load the test case directory and list the valid test cases, optionally filtered by a tag expression",
		Args:    cobra.NoArgs,
		RunE:    c.List.Execute,
		PreRunE: preRun,
	}
	listCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Show sequences and steps")
	listCmd.Flags().StringVarP(&flags.Tags, "tags", "t", "", "Tag expression, e.g. 'smoke AND NOT slow'")
	rootCmd.AddCommand(listCmd)

	// Run command
	runCmd := &cobra.Command{
		Use:     "run [id...]",
		Short:   "Execute test cases in parallel",
		Long:    "Generate a script per test case, execute them on a pool of workers, verify every step and report the results",
		RunE:    c.Run.Execute,
		PreRunE: preRun,
	}
	runCmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, fmt.Sprintf("Number of parallel workers (default %d)", config.DefaultWorkers))
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, fmt.Sprintf("Timeout per attempt (default %s)", config.DefaultTimeout))
	runCmd.Flags().BoolVar(&flags.Retry, "retry", false, "Retry units that do not pass")
	runCmd.Flags().IntVar(&flags.MaxAttempts, "max-attempts", 0, fmt.Sprintf("Attempts per unit when retrying (default %d)", config.DefaultMaxAttempts))
	runCmd.Flags().StringVar(&flags.Backoff, "backoff", "", "Delay between attempts: none, fixed or exponential")
	runCmd.Flags().DurationVar(&flags.BackoffDelay, "backoff-delay", 0, fmt.Sprintf("Base backoff delay (default %s)", config.DefaultBackoffDelay))
	runCmd.Flags().StringVar(&flags.Match, "match", "", "Output match strategy: exact, contains or regex")
	runCmd.Flags().StringVarP(&flags.Tags, "tags", "t", "", "Tag expression selecting the units to run")
	runCmd.Flags().StringSliceVar(&flags.IncludeTags, "include-tags", nil, "Run only units carrying one of these tags")
	runCmd.Flags().StringSliceVar(&flags.ExcludeTags, "exclude-tags", nil, "Skip units carrying any of these tags")
	runCmd.Flags().StringVar(&flags.JUnitPath, "junit", "", "Write a JUnit XML report to this path")
	runCmd.Flags().StringVar(&flags.ReportMDPath, "report-md", "", "Write a Markdown report to this path")
	runCmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this path")
	runCmd.Flags().BoolVar(&flags.History, "history", false, "Append the run to the MySQL history database")
	runCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Print every attempt instead of a progress bar")
	runCmd.Flags().BoolVar(&flags.FailOnInvalid, "fail-on-invalid", false, "Refuse to run when any document is invalid")
	rootCmd.AddCommand(runCmd)

	// Find-by-tag command
	findCmd := &cobra.Command{
		Use:     "find-by-tag <expression>",
		Short:   "List test cases matching a tag expression",
		Args:    cobra.ExactArgs(1),
		RunE:    c.FindByTag.Execute,
		PreRunE: preRun,
	}
	rootCmd.AddCommand(findCmd)

	// Show-tags command
	showTagsCmd := &cobra.Command{
		Use:     "show-tags <id>",
		Short:   "Show the declared and computed tags of a test case",
		Args:    cobra.ExactArgs(1),
		RunE:    c.ShowTags.Execute,
		PreRunE: preRun,
	}
	rootCmd.AddCommand(showTagsCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the run history database",
		Long:  "Create the MySQL run history database and its tables when they do not exist yet",
		Args:  cobra.NoArgs,
		RunE:  c.Migrate.Execute,
	}
	rootCmd.AddCommand(migrateCmd)

	// Last command
	lastCmd := &cobra.Command{
		Use:     "last",
		Short:   "Show the last stored run",
		Long:    "Print the summary and failures of the last run, and optionally recent runs from the history database",
		Args:    cobra.NoArgs,
		RunE:    c.Last.Execute,
		PreRunE: preRun,
	}
	lastCmd.Flags().BoolVar(&flags.History, "history", false, "Also list recent runs from the history database")
	rootCmd.AddCommand(lastCmd)
}

// loadCatalog loads the configured test case directory.
func loadCatalog(cfg *config.Config, loader *discovery.Loader) (*discovery.Catalog, error) {
	dir := cfg.GetTestCasesDir()
	catalog, err := loader.Load(dir)
	if err != nil {
		return nil, cli.ConfigError(fmt.Errorf("load test cases from %s: %w", dir, err))
	}
	return catalog, nil
}
