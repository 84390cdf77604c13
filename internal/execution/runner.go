package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"tcm/internal/config"
	"tcm/internal/logging"
	"tcm/internal/parser"
)

// Runner executes generated scripts
type Runner struct {
	config *config.Config
	parser parser.Parser
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		config: cfg,
		parser: parser.NewLogParser(),
	}
}

// Script returns a runnable that executes scriptPath and writes the attempt
// log to logPath.
func (r *Runner) Script(testID, scriptPath, logPath string) *ScriptRunnable {
	return &ScriptRunnable{runner: r, TestID: testID, ScriptPath: scriptPath, LogPath: logPath}
}

// ScriptRunnable is one generated script on disk.
type ScriptRunnable struct {
	runner     *Runner
	TestID     string
	ScriptPath string
	LogPath    string
}

// Run executes the script. A nonzero exit is reported in Output, not as an
// error; only a failure to start the shell is an error.
func (s *ScriptRunnable) Run(ctx context.Context) (Output, error) {
	r := s.runner
	cmd := exec.CommandContext(ctx, r.config.Shell, s.ScriptPath)

	// Set environment variables
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, fmt.Sprintf("TCM_SCRIPT=%s", s.ScriptPath))

	// Set working directory
	cmd.Dir = r.config.ProjectPath
	cmd.WaitDelay = config.DefaultWaitDelay

	raw, err := cmd.CombinedOutput()
	out := Output{Log: string(raw), LogPath: s.LogPath}

	if s.LogPath != "" {
		if werr := os.WriteFile(s.LogPath, raw, 0644); werr != nil {
			logging.Warn("runner", "write attempt log %s: %v", s.LogPath, werr)
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		case ctx.Err() != nil:
			out.ExitCode = -1
		default:
			return out, fmt.Errorf("launch %s: %w", s.ScriptPath, err)
		}
	}

	parsed, perr := r.parser.Parse(strings.NewReader(out.Log))
	if perr != nil {
		out.ProtocolErr = perr
		return out, nil
	}
	out.Steps = parsed.Steps
	out.Complete = parsed.Complete
	out.Interrupted = parsed.Interrupted
	return out, nil
}
