package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"tcm/internal/config"
	"tcm/internal/domain"
	"tcm/internal/report"
	"tcm/internal/storage"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to the colour-aware stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return NewFormatterTo(cfg, color.Output)
}

// NewFormatterTo creates a Formatter writing to w
func NewFormatterTo(cfg *config.Config, w io.Writer) *Formatter {
	return &Formatter{config: cfg, out: w}
}

func (f *Formatter) line(c *color.Color, format string, args ...any) {
	fmt.Fprintln(f.out, c.Sprintf(format, args...))
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// relPath shortens a path relative to the project for display
func (f *Formatter) relPath(path string) string {
	rel, err := filepath.Rel(f.config.ProjectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// PrintValidation lists every document with its status and returns the
// number of documents that did not validate.
func (f *Formatter) PrintValidation(results []domain.FileValidation) int {
	invalid := 0
	for _, r := range results {
		switch st := r.Status.(type) {
		case domain.Valid:
			f.line(green, "✓ %s", f.relPath(r.Path))
		case domain.ParseError:
			invalid++
			f.line(red, "✗ %s: parse error", f.relPath(r.Path))
			f.line(white, "    %s", st.Message)
		case domain.ValidationError:
			invalid++
			f.line(red, "✗ %s: %d validation error(s)", f.relPath(r.Path), len(st.Errors))
			for _, e := range st.Errors {
				path := e.Path
				if path == "" {
					path = "/"
				}
				f.line(yellow, "    %s  %s", path, e.Constraint)
				f.line(white, "        expected %s, found %s", e.ExpectedConstraint, e.FoundValue)
			}
		}
	}

	fmt.Fprintln(f.out)
	if invalid == 0 {
		f.line(green, "✓ All %d document(s) are valid", len(results))
	} else {
		f.line(red, "✗ %d of %d document(s) are invalid", invalid, len(results))
	}
	return invalid
}

type validationRecord struct {
	Path    string                         `json:"path"`
	Status  string                         `json:"status"`
	ID      string                         `json:"id,omitempty"`
	Message string                         `json:"message,omitempty"`
	Errors  []domain.ValidationErrorDetail `json:"errors,omitempty"`
}

// PrintValidationJSON writes the validation results as a JSON array.
func (f *Formatter) PrintValidationJSON(results []domain.FileValidation) error {
	records := make([]validationRecord, 0, len(results))
	for _, r := range results {
		rec := validationRecord{Path: r.Path, Status: r.Status.Kind().String()}
		switch st := r.Status.(type) {
		case domain.ParseError:
			rec.Message = st.Message
		case domain.ValidationError:
			rec.Errors = st.Errors
		}
		if r.TestCase != nil {
			rec.ID = r.TestCase.ID
		}
		records = append(records, rec)
	}
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// PrintList prints the selected test cases, with their sequences and steps
// when verbose is set.
func (f *Formatter) PrintList(cases []*domain.TestCase, verbose bool) {
	if len(cases) == 0 {
		f.line(yellow, "No test cases found")
		return
	}
	f.line(green, "Found %d test case(s):\n", len(cases))

	for i, tc := range cases {
		isLast := i == len(cases)-1
		connector, indent := "├── ", "│   "
		if isLast {
			connector, indent = "└── ", "    "
		}

		label := tc.ID
		if len(tc.Tags) > 0 {
			label += " " + color.MagentaString("[%s]", strings.Join(tc.Tags, ", "))
		}
		f.line(cyan, "%s%s", connector, label)
		if !verbose {
			continue
		}

		fmt.Fprintf(f.out, "%s%s\n", indent, tc.Description)
		fmt.Fprintf(f.out, "%s%s\n", indent, color.WhiteString(f.relPath(tc.Path)))
		for j, seq := range tc.TestSequences {
			seqConnector, seqIndent := "├── ", "│   "
			if j == len(tc.TestSequences)-1 {
				seqConnector, seqIndent = "└── ", "    "
			}
			fmt.Fprintf(f.out, "%s%s%s\n", indent, seqConnector, yellow.Sprintf("sequence %d: %s", seq.ID, seq.Name))
			for k, st := range seq.Steps {
				stepConnector := "├── "
				if k == len(seq.Steps)-1 {
					stepConnector = "└── "
				}
				manual := ""
				if st.Manual {
					manual = color.MagentaString(" (manual)")
				}
				fmt.Fprintf(f.out, "%s%s%sstep %d: %s%s\n", indent, seqIndent, stepConnector, st.Step, st.Description, manual)
			}
		}
		if !isLast {
			fmt.Fprintln(f.out)
		}
	}
}

// PrintTags shows the declared and computed tags of one test case.
func (f *Formatter) PrintTags(tc *domain.TestCase, declared, computed []string) {
	f.line(cyan, "%s", tc.ID)
	fmt.Fprintf(f.out, "  declared:  %s\n", joinOrNone(declared))
	if len(tc.InheritedTags) > 0 {
		fmt.Fprintf(f.out, "  inherited: %s\n", strings.Join(tc.InheritedTags, ", "))
	}
	fmt.Fprintf(f.out, "  computed:  %s\n", joinOrNone(computed))
}

// PrintSummary shows the run table and a closing verdict.
func (f *Formatter) PrintSummary(s *domain.RunSummary) error {
	fmt.Fprintln(f.out)
	f.line(cyan, "╔═══════════════════════════════════════════════════════════════╗")
	f.line(cyan, "║                    Test Execution Summary                     ║")
	f.line(cyan, "╚═══════════════════════════════════════════════════════════════╝")

	table, err := report.NewTableFormatter(fmt.Sprintf("Run %s", s.RunID), !color.NoColor).Format(s)
	if err != nil {
		return err
	}
	fmt.Fprint(f.out, table)

	fmt.Fprintln(f.out)
	f.printVerdict(s)
	return nil
}

func (f *Formatter) printVerdict(s *domain.RunSummary) {
	switch {
	case s.Interrupted:
		f.line(yellow, "⚠ Run interrupted: %d completed, %d not started", s.Completed, s.NotStarted)
	case s.AllPassed():
		f.line(green, "✓ All %d test case(s) passed in %s", s.Total, s.Elapsed.Round(time.Millisecond))
		return
	}
	if s.Failed+s.Errored > 0 {
		f.line(red, "✗ %d failed, %d error(s) out of %d", s.Failed, s.Errored, s.Total)
	}
}

// PrintFailures lists what went wrong in a stored run.
func (f *Formatter) PrintFailures(s *domain.RunSummary) {
	f.line(cyan, "Run %s (%s, %d workers, retry %s)", s.RunID, s.StartedAt.Format(time.RFC3339), s.Workers, s.RetryPolicy)
	failures := s.Failures()
	if len(failures) == 0 && s.NotStarted == 0 {
		f.line(green, "✓ No test failures found!")
		return
	}

	for _, r := range failures {
		label := "FAIL"
		if r.Outcome == domain.OutcomeError {
			label = "ERROR"
		}
		f.line(red, "%s %s (attempt %d)", label, r.TestID, r.Attempt)
		if r.Failure == nil {
			continue
		}
		if r.Failure.Step > 0 {
			fmt.Fprintf(f.out, "    sequence %d step %d: %s\n", r.Failure.SequenceID, r.Failure.Step, r.Failure.Reason)
		} else {
			fmt.Fprintf(f.out, "    %s\n", r.Failure.Reason)
		}
		if r.Failure.Field != "" {
			fmt.Fprintf(f.out, "    expected: %s\n", green.Sprint(r.Failure.Expected))
			fmt.Fprintf(f.out, "    actual:   %s\n", red.Sprint(r.Failure.Actual))
		}
	}
	if s.NotStarted > 0 {
		f.line(yellow, "%d test case(s) not started: %s", s.NotStarted, strings.Join(s.NotStartedIDs, ", "))
	}
}

// PrintHistory lists stored runs, newest first.
func (f *Formatter) PrintHistory(rows []storage.RunRow) {
	if len(rows) == 0 {
		f.line(yellow, "No runs recorded")
		return
	}
	for _, r := range rows {
		c := green
		if r.Failed+r.Errored > 0 || r.Interrupted {
			c = red
		}
		f.line(c, "%s  %s  total %d  passed %d  failed %d  errors %d  not started %d  %s",
			r.StartedAt.Format(time.RFC3339), r.RunID, r.Total, r.Passed, r.Failed, r.Errored, r.NotStarted, r.Elapsed)
	}
}

func joinOrNone(tags []string) string {
	if len(tags) == 0 {
		return "(none)"
	}
	return strings.Join(tags, ", ")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
