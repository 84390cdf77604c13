package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_GetTestCasesDir(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "default path",
			config:   &Config{ProjectPath: ".", TestCasesDir: "testcases"},
			expected: "testcases",
		},
		{
			name:     "relative to project",
			config:   &Config{ProjectPath: "/project", TestCasesDir: "cases/es9"},
			expected: "/project/cases/es9",
		},
		{
			name:     "absolute test case path",
			config:   &Config{ProjectPath: "/project", TestCasesDir: "/absolute/path"},
			expected: "/absolute/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.GetTestCasesDir())
		})
	}
}

func TestConfig_GetOutputPath(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = "/project"
	assert.Equal(t, "/project/output/test-results.json", cfg.GetOutputPath())
	assert.Equal(t, "/project/output/attempts", cfg.GetArtifactsDir())

	cfg.OutputDir = "/tmp/out"
	assert.Equal(t, "/tmp/out/test-results.json", cfg.GetOutputPath())
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultProjectPath, cfg.ProjectPath)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.False(t, cfg.Retry)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Len(t, cfg.PathsToIgnore, len(DefaultPathsToIgnore))
	require.NoError(t, cfg.Validate())

	cfg.PathsToIgnore[0] = "changed"
	assert.NotEqual(t, "changed", DefaultPathsToIgnore[0])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"unknown backoff", func(c *Config) { c.Backoff = "linear" }},
		{"negative delay", func(c *Config) { c.BackoffDelay = -1 }},
		{"unknown match", func(c *Config) { c.Match = "fuzzy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_LoadEnv(t *testing.T) {
	dir := t.TempDir()
	env := "TCM_WORKERS=7\nTCM_TIMEOUT=90s\nTCM_TESTCASES_DIR=suites\nTCM_HISTORY_DSN=root:@tcp(127.0.0.1:3306)/\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644))

	for _, key := range []string{EnvWorkers, EnvTimeout, EnvTestCasesDir, EnvHistoryDSN, EnvOutputDir, EnvLogLevel, EnvShell} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// Process environment wins over the .env file.
	t.Setenv(EnvOutputDir, "from-env")
	t.Setenv(EnvTestCasesDir, "explicit")

	cfg := New()
	cfg.ProjectPath = dir
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "explicit", cfg.TestCasesDir)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/", cfg.HistoryDSN)
}

func TestConfig_LoadEnvWithoutFile(t *testing.T) {
	t.Setenv(EnvWorkers, "not-a-number")

	cfg := New()
	cfg.ProjectPath = t.TempDir()
	err := cfg.LoadEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
