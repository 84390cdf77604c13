package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment keys recognised by LoadEnv.
const (
	EnvTestCasesDir = "TCM_TESTCASES_DIR"
	EnvOutputDir    = "TCM_OUTPUT_DIR"
	EnvWorkers      = "TCM_WORKERS"
	EnvTimeout      = "TCM_TIMEOUT"
	EnvHistoryDSN   = "TCM_HISTORY_DSN"
	EnvLogLevel     = "TCM_LOG_LEVEL"
	EnvShell        = "TCM_SHELL"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath  string
	TestCasesDir string

	// Output settings
	OutputDir   string
	ResultsFile string

	// Execution settings
	Workers      int
	Timeout      time.Duration
	Retry        bool
	MaxAttempts  int
	Backoff      string
	BackoffDelay time.Duration
	Match        string
	Shell        string

	// History database (MySQL DSN without database name)
	HistoryDSN      string
	HistoryDatabase string

	LogLevel string

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Command flags
	Flags Flags
}

// Flags holds per-command options that do not change global settings
type Flags struct {
	Tags          string
	IncludeTags   []string
	ExcludeTags   []string
	IDs           []string
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

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:     DefaultProjectPath,
		TestCasesDir:    DefaultTestCasesDir,
		OutputDir:       DefaultOutputDir,
		ResultsFile:     DefaultResultsFile,
		Workers:         DefaultWorkers,
		Timeout:         DefaultTimeout,
		MaxAttempts:     1,
		Backoff:         DefaultBackoff,
		BackoffDelay:    DefaultBackoffDelay,
		Match:           DefaultMatch,
		Shell:           DefaultShell,
		HistoryDatabase: DefaultHistoryDatabase,
		LogLevel:        DefaultLogLevel,
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// LoadEnv reads the project's .env file, if any, into the process
// environment without overriding variables already set, then applies the
// TCM_* variables on top of the defaults.
func (c *Config) LoadEnv() error {
	envPath := filepath.Join(c.ProjectPath, EnvFile)
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, envPath, err)
	}

	if v := os.Getenv(EnvTestCasesDir); v != "" {
		c.TestCasesDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, EnvTimeout, v)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.HistoryDSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvShell); v != "" {
		c.Shell = v
	}
	return nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.BackoffDelay < 0 {
		return fmt.Errorf("%w: backoff delay must not be negative, got %s", ErrInvalidConfig, c.BackoffDelay)
	}
	switch c.Backoff {
	case "none", "fixed", "exponential":
	default:
		return fmt.Errorf("%w: unknown backoff %q (want none, fixed or exponential)", ErrInvalidConfig, c.Backoff)
	}
	switch c.Match {
	case "exact", "contains", "regex":
	default:
		return fmt.Errorf("%w: unknown match strategy %q (want exact, contains or regex)", ErrInvalidConfig, c.Match)
	}
	return nil
}

// GetTestCasesDir returns the document directory, relative to the project
// path unless absolute.
func (c *Config) GetTestCasesDir() string {
	if filepath.IsAbs(c.TestCasesDir) {
		return c.TestCasesDir
	}
	return filepath.Join(c.ProjectPath, c.TestCasesDir)
}

// GetOutputDir returns the output directory as an absolute path when possible.
func (c *Config) GetOutputDir() string {
	p := c.OutputDir
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ProjectPath, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetOutputPath returns the full path to the last-run JSON record, so run
// and last always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	return filepath.Join(c.GetOutputDir(), c.ResultsFile)
}

// GetArtifactsDir returns where generated scripts and attempt logs go.
func (c *Config) GetArtifactsDir() string {
	return filepath.Join(c.GetOutputDir(), "attempts")
}
