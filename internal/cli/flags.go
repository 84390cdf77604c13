package cli

import (
	"time"

	"tcm/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	// Global settings
	ProjectPath string
	Dir         string
	OutputDir   string
	LogLevel    string

	// Execution settings
	Workers      int
	Timeout      time.Duration
	Retry        bool
	MaxAttempts  int
	Backoff      string
	BackoffDelay time.Duration
	Match        string

	// Command options
	Tags          string
	IncludeTags   []string
	ExcludeTags   []string
	Verbose       bool
	JSON          bool
	All           bool
	File          string
	JUnitPath     string
	ReportMDPath  string
	MetricsFile   string
	History       bool
	FailOnInvalid bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Tags:          f.Tags,
		IncludeTags:   f.IncludeTags,
		ExcludeTags:   f.ExcludeTags,
		Verbose:       f.Verbose,
		JSON:          f.JSON,
		All:           f.All,
		File:          f.File,
		JUnitPath:     f.JUnitPath,
		ReportMDPath:  f.ReportMDPath,
		MetricsFile:   f.MetricsFile,
		History:       f.History,
		FailOnInvalid: f.FailOnInvalid,
	}
}

// ApplyGlobal copies the global settings that were set on the command line
// over cfg. Zero values leave the environment or default value in place.
func (f *Flags) ApplyGlobal(cfg *config.Config) {
	if f.ProjectPath != "" {
		cfg.ProjectPath = f.ProjectPath
	}
	if f.Dir != "" {
		cfg.TestCasesDir = f.Dir
	}
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
}

// ApplyExecution copies the execution settings that were set on the command
// line over cfg.
func (f *Flags) ApplyExecution(cfg *config.Config) {
	if f.Workers != 0 {
		cfg.Workers = f.Workers
	}
	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if f.Retry {
		cfg.Retry = true
	}
	if f.MaxAttempts != 0 {
		cfg.MaxAttempts = f.MaxAttempts
	}
	if f.Backoff != "" {
		cfg.Backoff = f.Backoff
	}
	if f.BackoffDelay != 0 {
		cfg.BackoffDelay = f.BackoffDelay
	}
	if f.Match != "" {
		cfg.Match = f.Match
	}
}
