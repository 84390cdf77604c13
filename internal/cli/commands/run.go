package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tcm/internal/cli"
	"tcm/internal/config"
	"tcm/internal/discovery"
	"tcm/internal/domain"
	"tcm/internal/execution"
	"tcm/internal/logging"
	"tcm/internal/metrics"
	"tcm/internal/report"
	"tcm/internal/storage"
	"tcm/internal/tags"
	"tcm/internal/ui"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	loader    *discovery.Loader
	filter    *discovery.Filter
	executor  *execution.WorkerPool
	storage   storage.Storage
	formatter *ui.Formatter
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	loader *discovery.Loader,
	filter *discovery.Filter,
	executor *execution.WorkerPool,
	st storage.Storage,
	formatter *ui.Formatter,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		loader:    loader,
		filter:    filter,
		executor:  executor,
		storage:   st,
		formatter: formatter,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	flags := rc.config.Flags
	if err := rc.config.Validate(); err != nil {
		return cli.ConfigError(err)
	}
	tagFilter, err := tags.NewFilter(flags.Tags, flags.IncludeTags, flags.ExcludeTags)
	if err != nil {
		return cli.ConfigError(err)
	}

	// Discover test cases
	catalog, err := loadCatalog(rc.config, rc.loader)
	if err != nil {
		return err
	}
	if invalid := catalog.Invalid(); len(invalid) > 0 {
		if flags.FailOnInvalid {
			color.Red("Refusing to run: %d invalid document(s)\n", len(invalid))
			rc.formatter.PrintValidation(invalid)
			return cli.Failed()
		}
		logging.Warn("run", "skipping %d invalid document(s)", len(invalid))
		warnInvalid(catalog)
	}

	// Select test cases
	cases := rc.filter.FilterByIDs(catalog.Valid(), flags.IDs)
	cases = tagFilter.Apply(cases)
	if len(cases) == 0 {
		color.Yellow("No test cases to execute")
		return nil
	}

	retry := execution.NewRetryPolicy(rc.config)
	color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
	color.Cyan("║                   Executing Test Cases                     ║")
	color.Cyan("╚════════════════════════════════════════════════════════════╝")
	color.White("%d test case(s), %d worker(s), timeout %s, retry %s\n\n", len(cases), rc.config.Workers, rc.config.Timeout, retry)

	runID := uuid.NewString()
	rc.executor.SetRunID(runID)

	var progressBar *ui.ProgressBar
	if flags.Verbose {
		rc.executor.SetProgress(ui.NewVerbosePrinter(os.Stderr))
	} else {
		progressBar = ui.NewProgressBar(len(cases), rc.config.Workers)
		rc.executor.SetProgress(progressBar)
	}
	var collector *metrics.Collector
	if flags.MetricsFile != "" {
		collector = metrics.NewCollector(runID)
		rc.executor.SetProgress(collector)
	}

	// Ctrl-C stops dispatch; running attempts finish
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := rc.executor.Execute(ctx, cases)
	if progressBar != nil {
		progressBar.Finish()
	}
	if err != nil {
		return err
	}

	// Save results
	if err := rc.storage.Save(summary); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}
	if flags.History {
		if err := saveHistory(cmd.Context(), rc.config, summary); err != nil {
			logging.Error("run", err, "run %s not added to history", summary.RunID)
			color.Yellow("⚠ Run not added to history: %v", err)
		}
	}
	if err := rc.writeReports(summary, collector); err != nil {
		return err
	}

	if err := rc.formatter.PrintSummary(summary); err != nil {
		return err
	}
	if !summary.AllPassed() {
		fmt.Println()
		rc.formatter.PrintFailures(summary)
		return cli.Failed()
	}
	return nil
}

func (rc *RunCommand) writeReports(summary *domain.RunSummary, collector *metrics.Collector) error {
	flags := rc.config.Flags
	if flags.JUnitPath != "" {
		if err := report.WriteFile(flags.JUnitPath, report.NewJUnitFormatter(""), summary); err != nil {
			return err
		}
		color.White("JUnit report: %s", flags.JUnitPath)
	}
	if flags.ReportMDPath != "" {
		if err := report.WriteFile(flags.ReportMDPath, report.NewMarkdownFormatter("Test Execution Report"), summary); err != nil {
			return err
		}
		color.White("Markdown report: %s", flags.ReportMDPath)
	}
	if collector != nil {
		if err := collector.WriteFile(flags.MetricsFile); err != nil {
			return err
		}
		color.White("Metrics: %s", flags.MetricsFile)
	}
	return nil
}

func saveHistory(ctx context.Context, cfg *config.Config, summary *domain.RunSummary) error {
	history, err := storage.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer history.Close()
	return history.Save(ctx, summary)
}
