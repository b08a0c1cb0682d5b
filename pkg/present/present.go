// Package present shows the differences between the student and reference
// outputs once a run has written them.
package present

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Presenter is called only when the two outputs differ, after both files
// have been written.
type Presenter interface {
	Present(ctx context.Context, pair outfile.Pair) error
}

// None presents nothing. Used for -no-diff and JSON output.
type None struct{}

func (None) Present(context.Context, outfile.Pair) error { return nil }

// Detached opens Tool on both files as an independent process sharing the
// terminal and returns without waiting for it.
type Detached struct {
	Tool string
	// Command builds the process; tests replace it. Defaults to exec.Command.
	Command func(name string, args ...string) *exec.Cmd
}

func (d Detached) Present(_ context.Context, pair outfile.Pair) error {
	command := d.Command
	if command == nil {
		command = exec.Command
	}
	// Not CommandContext: the viewer must outlive the run.
	cmd := command(d.Tool, pair.Student, pair.Reference)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", d.Tool, err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("releasing %s: %w", d.Tool, err)
	}
	return nil
}

// textContext is the number of unchanged lines Text shows around a change.
const textContext = 3

// Text writes a line diff of the two files to W.
type Text struct {
	W io.Writer
}

func (t Text) Present(_ context.Context, pair outfile.Pair) error {
	contents, err := pair.Read()
	if err != nil {
		return err
	}
	ew := &errWriter{w: t.W}
	ew.println(color.RedString("--- %s", pair.Student))
	ew.println(color.GreenString("+++ %s", pair.Reference))
	for _, h := range Hunks(contents.Student, contents.Reference, textContext) {
		ew.println(color.CyanString("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount))
		for _, l := range h.Lines {
			switch l.Op {
			case OpDelete:
				ew.println(color.RedString("-%s", l.Text))
			case OpInsert:
				ew.println(color.GreenString("+%s", l.Text))
			default:
				ew.println(" " + l.Text)
			}
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) println(s string) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintln(ew.w, s)
	}
}

// Op is the kind of a diff line.
type Op int

const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

type Line struct {
	Op   Op
	Text string
}

// Hunk is a group of changed lines with surrounding context. Starts are
// 1-based line numbers.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// Hunks computes a line diff of a against b.
func Hunks(a, b string, contextLines int) []Hunk {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var all []Line
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			all = append(all, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return group(all, contextLines)
}

// group splits lines into hunks, keeping at most contextLines equal lines on each
// side of a change. Changes whose context would touch are merged.
func group(all []Line, contextLines int) []Hunk {
	oldAt := make([]int, len(all))
	newAt := make([]int, len(all))
	oldLine, newLine := 1, 1
	var changes []int
	for i, l := range all {
		oldAt[i], newAt[i] = oldLine, newLine
		if l.Op != OpInsert {
			oldLine++
		}
		if l.Op != OpDelete {
			newLine++
		}
		if l.Op != OpEqual {
			changes = append(changes, i)
		}
	}

	type span struct{ start, end int }
	var spans []span
	for _, i := range changes {
		s := span{start: max(i-contextLines, 0), end: min(i+contextLines, len(all)-1)}
		if n := len(spans); n > 0 && s.start <= spans[n-1].end+1 {
			spans[n-1].end = s.end
			continue
		}
		spans = append(spans, s)
	}

	hunks := make([]Hunk, 0, len(spans))
	for _, s := range spans {
		h := Hunk{OldStart: oldAt[s.start], NewStart: newAt[s.start]}
		for _, l := range all[s.start : s.end+1] {
			h.Lines = append(h.Lines, l)
			if l.Op != OpInsert {
				h.OldCount++
			}
			if l.Op != OpDelete {
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}
