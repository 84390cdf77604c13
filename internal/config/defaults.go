package config

import (
	"runtime"
	"time"
)

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestCasesDir is the default directory holding test-case documents
	DefaultTestCasesDir = "testcases"
	// DefaultOutputDir receives results, reports and per-attempt artifacts
	DefaultOutputDir = "output"
	// DefaultResultsFile is the last-run JSON record name
	DefaultResultsFile = "test-results.json"
	// DefaultTimeout bounds one attempt of one test case
	DefaultTimeout = 5 * time.Minute
	// DefaultMaxAttempts applies when retry is enabled without an explicit count
	DefaultMaxAttempts = 3
	// DefaultBackoff is the retry delay strategy
	DefaultBackoff = "fixed"
	// DefaultBackoffDelay is the base retry delay
	DefaultBackoffDelay = time.Second
	// DefaultMatch is the step verification strategy
	DefaultMatch = "exact"
	// DefaultShell runs generated scripts
	DefaultShell = "bash"
	// DefaultWaitDelay bounds how long a killed script may hold its output open
	DefaultWaitDelay = 2 * time.Second
	// DefaultLogLevel for diagnostic logs
	DefaultLogLevel = "warn"
	// DefaultHistoryDatabase is the MySQL schema holding run history
	DefaultHistoryDatabase = "tcm_history"
	// EnvFile is loaded from the project directory when present
	EnvFile = ".env"
)

// DefaultWorkers reflects the available parallelism.
var DefaultWorkers = runtime.NumCPU()

// DefaultPathsToIgnore are the default directories to ignore when scanning for documents
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"output",
	"target",
}
