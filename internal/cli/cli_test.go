package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tcm/internal/config"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"failed", Failed(), ExitFailure},
		{"config error", ConfigError(errors.New("bad")), ExitConfig},
		{"wrapped invalid config", fmt.Errorf("load: %w", config.ErrInvalidConfig), ExitConfig},
		{"plain error", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "exit status 1", Failed().Error())
	assert.Equal(t, "bad", ConfigError(errors.New("bad")).Error())
}

func TestFlags_Apply(t *testing.T) {
	cfg := config.New()
	cfg.Workers = 7

	flags := Flags{Dir: "suites", Timeout: time.Minute, Retry: true, MaxAttempts: 3, Match: "regex"}
	flags.ApplyGlobal(cfg)
	flags.ApplyExecution(cfg)

	assert.Equal(t, "suites", cfg.TestCasesDir)
	assert.Equal(t, config.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.True(t, cfg.Retry)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, config.DefaultBackoff, cfg.Backoff)
	assert.Equal(t, "regex", cfg.Match)
}
