// Package target names the make targets of a test suite and runs them.
package target

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nethoundsh/shlabdiff/pkg/capture"
)

// Suite enumerates the numbered targets of one side: Prefix followed by
// 1..Count, zero padded to Width digits (test01, test02, ...), minus any
// trace the Filter drops.
type Suite struct {
	Prefix string
	Count  int
	Width  int
	Filter Filter
}

// DefaultCount and DefaultWidth match the sixteen traces of the shell lab.
const (
	DefaultCount = 16
	DefaultWidth = 2
)

// waitDelay bounds how long Run waits for a killed target's children to
// release stdout and stderr.
const waitDelay = 2 * time.Second

func (s Suite) Validate() error {
	if strings.TrimSpace(s.Prefix) == "" {
		return errors.New("target prefix is empty")
	}
	if s.Count < 1 {
		return fmt.Errorf("target count must be at least 1, got %d", s.Count)
	}
	if s.Width < 0 {
		return fmt.Errorf("target width must not be negative, got %d", s.Width)
	}
	if err := s.Filter.Validate(); err != nil {
		return err
	}
	if len(s.Names()) == 0 {
		return fmt.Errorf("no %s targets left after filtering", s.Prefix)
	}
	return nil
}

// ID returns trace number n zero padded to the suite width.
func (s Suite) ID(n int) string {
	return fmt.Sprintf("%0*d", s.Width, n)
}

// Name returns the target name for trace number n.
func (s Suite) Name(n int) string {
	return s.Prefix + s.ID(n)
}

// Names returns the selected target names in ascending order.
func (s Suite) Names() []string {
	names := make([]string, 0, s.Count)
	for i := 1; i <= s.Count; i++ {
		if s.Filter.Keep(s.ID(i)) {
			names = append(names, s.Name(i))
		}
	}
	return names
}

// Executor runs one named target to completion.
type Executor interface {
	Run(ctx context.Context, name string) capture.Capture
}

// Make runs targets with a make-compatible build tool.
type Make struct {
	Tool string // defaults to "make"
	Dir  string // passed as -C when set
	// Timeout bounds a single target. Zero means no limit.
	Timeout time.Duration
}

func (m Make) args(name string) []string {
	if m.Dir != "" {
		return []string{"-C", m.Dir, name}
	}
	return []string{name}
}

// Run executes the target and captures stdout and stderr separately. A
// non-zero exit or a spawn failure is reported in Capture.Err; whatever was
// written before the failure is still returned.
func (m Make) Run(ctx context.Context, name string) capture.Capture {
	tool := m.Tool
	if tool == "" {
		tool = "make"
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, m.args(name)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	c := capture.Capture{
		Target:   name,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.ExitCode = exitErr.ExitCode()
		} else {
			c.ExitCode = -1
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", ctx.Err(), err)
		}
		c.Err = fmt.Errorf("%s %s: %w", tool, name, err)
	}
	return c
}
