// Package scriptgen renders a test case as a bash script that runs each
// automated step and brackets its output with execution log markers.
package scriptgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tcm/internal/config"
	"tcm/internal/domain"
	"tcm/internal/execution"
	"tcm/internal/parser"
)

// stepHelper runs one step command in a child shell and reports its exit
// code. The blank line before the END marker keeps it on its own line.
const stepHelper = `tcm_step() {
	local seq="$1" step="$2" cmd="$3"
	printf '%s %s %s\n' "` + parser.MarkerBegin + `" "$seq" "$step"
	bash -c "$cmd" 2>&1 </dev/null
	local rc=$?
	printf '\n%s %s %s %s\n' "` + parser.MarkerEnd + `" "$seq" "$step" "$rc"
}
`

// Generator writes one script per attempt into the artifacts directory.
type Generator struct {
	config *config.Config
	runner *execution.Runner
}

// NewGenerator creates a new Generator
func NewGenerator(cfg *config.Config, runner *execution.Runner) *Generator {
	return &Generator{config: cfg, runner: runner}
}

// Generate writes <artifacts>/<id>_attempt<N>.sh and returns a runnable for it.
func (g *Generator) Generate(tc *domain.TestCase, attempt int) (execution.Runnable, error) {
	if len(tc.TestSequences) == 0 {
		return nil, fmt.Errorf("test case %s has no sequences", tc.ID)
	}
	dir := g.config.GetArtifactsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}

	base := fmt.Sprintf("%s_attempt%d", ArtifactName(tc.ID), attempt)
	scriptPath := filepath.Join(dir, base+".sh")
	logPath := filepath.Join(dir, base+".log")

	if err := os.WriteFile(scriptPath, []byte(Render(tc, attempt)), 0755); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	return g.runner.Script(tc.ID, scriptPath, logPath), nil
}

// Render returns the script text for one attempt.
func Render(tc *domain.TestCase, attempt int) string {
	var b strings.Builder

	b.WriteString("#!/usr/bin/env bash\n")
	fmt.Fprintf(&b, "# %s: %s\n", tc.ID, oneLine(tc.Description))
	if tc.Requirement != "" {
		fmt.Fprintf(&b, "# requirement %s item %s tc %d\n", oneLine(tc.Requirement), tc.Item, tc.TC)
	}
	writeConditions(&b, "general initial conditions", tc.GeneralInitialConditions)
	if tc.InitialConditions != nil {
		writeConditions(&b, "initial conditions", []domain.InitialCondition{*tc.InitialConditions})
	}
	b.WriteString("set -u\n\n")
	fmt.Fprintf(&b, "export TCM_TEST_ID=%s\n", Quote(tc.ID))
	fmt.Fprintf(&b, "export TCM_ATTEMPT=%d\n\n", attempt)
	b.WriteString(stepHelper)
	b.WriteString("\n")

	fmt.Fprintf(&b, "echo %s\n", Quote(parser.MarkerCase+" "+tc.ID))
	for _, seq := range tc.TestSequences {
		fmt.Fprintf(&b, "\n# sequence %d: %s\n", seq.ID, oneLine(seq.Name))
		writeConditions(&b, "sequence initial conditions", seq.InitialConditions)
		for _, st := range seq.Steps {
			if st.Manual {
				fmt.Fprintf(&b, "# step %d is manual: %s\n", st.Step, oneLine(st.Description))
				continue
			}
			fmt.Fprintf(&b, "# step %d: %s\n", st.Step, oneLine(st.Description))
			fmt.Fprintf(&b, "tcm_step %d %d %s\n", seq.ID, st.Step, Quote(st.Command))
		}
	}
	fmt.Fprintf(&b, "\necho %s\n", Quote(parser.MarkerDone))
	return b.String()
}

// Quote wraps s in single quotes for bash.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ArtifactName makes a test id safe to use in a file name.
func ArtifactName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func writeConditions(b *strings.Builder, title string, conds []domain.InitialCondition) {
	for _, c := range conds {
		if len(c.EUICC) == 0 {
			continue
		}
		fmt.Fprintf(b, "# %s (eUICC):\n", title)
		for _, line := range c.EUICC {
			fmt.Fprintf(b, "#   - %s\n", oneLine(line))
		}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
