package main

import (
	"errors"
	"fmt"
	"os"

	"tcm/internal/cli"
	"tcm/internal/cli/commands"
	"tcm/internal/config"
	"tcm/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "tcm",
		Short: "Test case manager",
		Long: `Validate YAML test case documents against the test case schema, select them by tag
expressions and execute them in parallel with per-step verification, retries and reports.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The project path decides which .env file is read.
			if flags.ProjectPath != "" {
				cfg.ProjectPath = flags.ProjectPath
			}
			if err := cfg.LoadEnv(); err != nil {
				return cli.ConfigError(err)
			}
			flags.ApplyGlobal(cfg)

			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return cli.ConfigError(err)
			}
			logging.InitForCLI(level, os.Stderr)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&flags.ProjectPath, "project", "p", "", "Project directory (default current directory)")
	rootCmd.PersistentFlags().StringVarP(&flags.Dir, "dir", "d", "", fmt.Sprintf("Test case directory, relative to the project (default %q)", config.DefaultTestCasesDir))
	rootCmd.PersistentFlags().StringVarP(&flags.OutputDir, "output", "o", "", fmt.Sprintf("Output directory for results and artifacts (default %q)", config.DefaultOutputDir))
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Diagnostic log level: debug, info, warn or error")

	// Create commands with dependencies
	cmds, err := commands.NewCommands(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitFailure)
	}

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}
