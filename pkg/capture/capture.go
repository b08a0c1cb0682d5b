// Package capture holds the output of target runs: the per-target framing
// written to the .out files and a txtar archive of the raw, un-normalized
// captures.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/tools/txtar"
)

const (
	StdoutBanner = "======= STDOUT ======="
	StderrBanner = "======= OUTPUT ======="
)

// Capture is the result of running one target.
type Capture struct {
	Target   string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
	Duration time.Duration
}

// Failed reports whether the target exited non-zero or could not be run.
func (c Capture) Failed() bool {
	return c.Err != nil
}

// Frame renders the capture as one block of an output file.
func (c Capture) Frame() string {
	var b strings.Builder
	b.Grow(len(StdoutBanner) + len(StderrBanner) + len(c.Stdout) + len(c.Stderr) + 4)
	b.WriteString(StdoutBanner + "\n")
	b.WriteString(c.Stdout + "\n")
	b.WriteString(StderrBanner + "\n")
	b.WriteString(c.Stderr + "\n")
	return b.String()
}

// Join concatenates the frames of caps in order.
func Join(caps []Capture) string {
	var b strings.Builder
	for _, c := range caps {
		b.WriteString(c.Frame())
	}
	return b.String()
}

// Archive records each capture's frame as a txtar file named after its target.
func Archive(comment string, caps ...[]Capture) *txtar.Archive {
	a := &txtar.Archive{Comment: []byte(comment)}
	for _, side := range caps {
		for _, c := range side {
			a.Files = append(a.Files, txtar.File{Name: c.Target, Data: []byte(escape(c.Frame()))})
		}
	}
	if len(a.Comment) > 0 && !strings.HasSuffix(comment, "\n") {
		a.Comment = append(a.Comment, '\n')
	}
	return a
}

// WriteArchive formats a and writes it to path.
func WriteArchive(path string, a *txtar.Archive) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
	}
	if err := os.WriteFile(path, txtar.Format(a), 0o644); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	return nil
}

// ReadArchive parses a raw capture archive.
func ReadArchive(path string) (*txtar.Archive, error) {
	a, err := txtar.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	return a, nil
}

// Side concatenates, in archive order, the frames of every target whose name
// starts with prefix but not with any of the other prefixes. The second
// result is the number of frames used.
//
// other exists because one prefix may be a prefix of another ("test" and
// "testref").
func Side(a *txtar.Archive, prefix string, other ...string) (string, int) {
	var b strings.Builder
	n := 0
files:
	for _, f := range a.Files {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		for _, o := range other {
			if len(o) > len(prefix) && strings.HasPrefix(f.Name, o) {
				continue files
			}
		}
		b.WriteString(unescape(string(f.Data)))
		n++
	}
	return b.String(), n
}

// Target output may contain lines that txtar would read as file headers
// ("-- name --"). Such lines, and lines that already carry escape
// backslashes before "-- ", get one more leading backslash in the archive.
func escape(s string) string {
	if !strings.Contains(s, "-- ") {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimLeft(l, `\`), "-- ") {
			lines[i] = `\` + l
		}
	}
	return strings.Join(lines, "")
}

func unescape(s string) string {
	if !strings.Contains(s, "-- ") {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, `\`) && strings.HasPrefix(strings.TrimLeft(l, `\`), "-- ") {
			lines[i] = l[1:]
		}
	}
	return strings.Join(lines, "")
}
