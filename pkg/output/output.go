package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/nethoundsh/shlabdiff/pkg/capture"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
)

// NDJSON output: each line is a self-contained JSON object.
type JSONTarget struct {
	Target     string `json:"target"`
	ExitCode   int    `json:"exit_code"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type JSONSummary struct {
	Match           bool     `json:"match"`
	Targets         int      `json:"targets"`
	StudentOut      string   `json:"student_out"`
	ReferenceOut    string   `json:"reference_out"`
	StudentBytes    int      `json:"student_bytes"`
	ReferenceBytes  int      `json:"reference_bytes"`
	StudentFailed   []string `json:"student_failed,omitempty"`
	ReferenceFailed []string `json:"reference_failed,omitempty"`
	ElapsedMS       int64    `json:"elapsed_ms"`
}

type JSONSummaryRecord struct {
	Summary JSONSummary `json:"summary"`
}

// Summary describes a finished run.
type Summary struct {
	Pair            outfile.Pair
	Contents        outfile.Contents
	Targets         int // per side
	StudentFailed   []string
	ReferenceFailed []string
	Elapsed         time.Duration
}

func (s Summary) Match() bool {
	return s.Contents.Equal()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, a...)
	}
}

func (ew *errWriter) println(a ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintln(ew.w, a...)
	}
}

// PrintRunning announces a target before it runs. JSON output reports
// targets after they finish instead, so nothing is printed.
func PrintRunning(w io.Writer, format, target string) error {
	if format == "json" {
		return nil
	}
	_, err := fmt.Fprintf(w, "Running %s\n", target)
	return err
}

// PrintTarget reports a finished target. Text output only mentions failures;
// those go to the error stream in the caller.
func PrintTarget(w io.Writer, format string, c capture.Capture) error {
	if format != "json" {
		return nil
	}
	rec := JSONTarget{
		Target:     c.Target,
		ExitCode:   c.ExitCode,
		DurationMS: c.Duration.Milliseconds(),
	}
	if c.Err != nil {
		rec.Error = c.Err.Error()
	}
	return writeJSON(w, rec, "target")
}

// PrintSummary prints the run outcome in the configured format.
func PrintSummary(w io.Writer, format string, s Summary) error {
	if format == "json" {
		return PrintJSONSummary(w, s)
	}
	return PrintTextSummary(w, s)
}

func PrintJSONSummary(w io.Writer, s Summary) error {
	rec := JSONSummaryRecord{
		Summary: JSONSummary{
			Match:           s.Match(),
			Targets:         s.Targets,
			StudentOut:      s.Pair.Student,
			ReferenceOut:    s.Pair.Reference,
			StudentBytes:    len(s.Contents.Student),
			ReferenceBytes:  len(s.Contents.Reference),
			StudentFailed:   s.StudentFailed,
			ReferenceFailed: s.ReferenceFailed,
			ElapsedMS:       s.Elapsed.Milliseconds(),
		},
	}
	return writeJSON(w, rec, "summary")
}

// PrintTextSummary renders a color-coded outcome.
func PrintTextSummary(w io.Writer, s Summary) error {
	ew := &errWriter{w: w}

	ew.printf("%-12s%s (%s)\n", "Student:", s.Pair.Student, humanize.Bytes(uint64(len(s.Contents.Student))))
	ew.printf("%-12s%s (%s)\n", "Reference:", s.Pair.Reference, humanize.Bytes(uint64(len(s.Contents.Reference))))
	ew.printf("%-12s%s\n", "Failed:", failedCounts(s))
	ew.printf("%-12s%s\n", "Elapsed:", s.Elapsed.Round(time.Millisecond))
	ew.println()

	if s.Match() {
		ew.println(color.GreenString("Two outputs match!"))
	} else {
		ew.println(color.RedString("Outputs differ"))
	}
	return ew.err
}

func failedCounts(s Summary) string {
	unit := "targets"
	if s.Targets == 1 {
		unit = "target"
	}
	return fmt.Sprintf("%s of %d student, %s of %d reference %s",
		redOrGreenInt(len(s.StudentFailed)), s.Targets,
		redOrGreenInt(len(s.ReferenceFailed)), s.Targets, unit)
}

func redOrGreenInt(n int) string {
	if n > 0 {
		return color.RedString("%d", n)
	}
	return color.GreenString("%d", n)
}

func writeJSON(w io.Writer, v any, what string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling JSON %s: %w", what, err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
