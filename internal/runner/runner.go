package runner

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/nethoundsh/shlabdiff/pkg/capture"
	"github.com/nethoundsh/shlabdiff/pkg/normalize"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
	outputpkg "github.com/nethoundsh/shlabdiff/pkg/output"
	"github.com/nethoundsh/shlabdiff/pkg/present"
	"github.com/nethoundsh/shlabdiff/pkg/target"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/time/rate"
)

// Exit codes: 0 = outputs match, 1 = error, 2 = outputs differ.
const (
	ExitMatch  = 0
	ExitError  = 1
	ExitDiffer = 2
)

type SuiteConfig struct {
	Student   target.Suite
	Reference target.Suite
	Pair      outfile.Pair
	Exec      target.Executor
	Presenter present.Presenter
	// Limiter paces target invocations; nil means no pacing.
	Limiter      *rate.Limiter
	Output       string
	RawArchive   string
	ShowProgress bool
	Stdout       io.Writer
	Stderr       io.Writer
}

// RunSuite runs every student target, then every reference target, one at a
// time, writes both normalized outputs and presents them if they differ.
// A failing target is reported and its output kept; it never stops the run.
func RunSuite(ctx context.Context, cfg SuiteConfig) int {
	start := time.Now()

	var progress *mpb.Progress
	var bar *mpb.Bar
	var current atomic.Value
	current.Store("")
	if cfg.ShowProgress {
		total := len(cfg.Student.Names()) + len(cfg.Reference.Names())
		progress, bar = initProgressBar(ctx, cfg.Stderr, int64(total), &current)
	}
	errOut := cfg.Stderr
	if progress != nil {
		errOut = progress
	}

	s := sideRun{cfg: cfg, errOut: errOut, bar: bar, current: &current}
	studentCaps, err := s.run(ctx, cfg.Student)
	var referenceCaps []capture.Capture
	if err == nil {
		referenceCaps, err = s.run(ctx, cfg.Reference)
	}

	if progress != nil {
		if err != nil {
			bar.Abort(true)
		}
		progress.Wait()
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(cfg.Stderr, "\nInterrupted")
		} else {
			fmt.Fprintln(cfg.Stderr, "Error:", err)
		}
		return ExitError
	}

	if cfg.RawArchive != "" {
		a := capture.Archive(rawComment(cfg, start), studentCaps, referenceCaps)
		if err := capture.WriteArchive(cfg.RawArchive, a); err != nil {
			fmt.Fprintln(cfg.Stderr, "Warning: raw captures not saved:", err)
		}
	}

	contents := outfile.Contents{
		Student:   normalize.String(capture.Join(studentCaps)),
		Reference: normalize.String(capture.Join(referenceCaps)),
	}
	if err := cfg.Pair.Write(contents); err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return ExitError
	}

	summary := outputpkg.Summary{
		Pair:            cfg.Pair,
		Contents:        contents,
		Targets:         len(cfg.Student.Names()),
		StudentFailed:   failed(studentCaps),
		ReferenceFailed: failed(referenceCaps),
		Elapsed:         time.Since(start),
	}
	if err := outputpkg.PrintSummary(cfg.Stdout, cfg.Output, summary); err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return ExitError
	}

	if contents.Equal() {
		return ExitMatch
	}
	if cfg.Presenter != nil {
		if err := cfg.Presenter.Present(ctx, cfg.Pair); err != nil {
			fmt.Fprintln(cfg.Stderr, "Warning: could not show differences:", err)
		}
	}
	return ExitDiffer
}

type sideRun struct {
	cfg     SuiteConfig
	errOut  io.Writer
	bar     *mpb.Bar
	current *atomic.Value
}

// run executes one side's targets in order. It stops early only when ctx is
// done or stdout cannot be written.
func (s *sideRun) run(ctx context.Context, suite target.Suite) ([]capture.Capture, error) {
	names := suite.Names()
	caps := make([]capture.Capture, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			return caps, ctx.Err()
		}
		if err := waitForRateLimit(ctx, s.cfg.Limiter); err != nil {
			return caps, fmt.Errorf("rate limiter: %w", err)
		}

		s.current.Store(name)
		if s.bar == nil {
			if err := outputpkg.PrintRunning(s.cfg.Stdout, s.cfg.Output, name); err != nil {
				return caps, err
			}
		}

		c := s.cfg.Exec.Run(ctx, name)
		if ctx.Err() != nil {
			return caps, ctx.Err()
		}
		if c.Failed() {
			fmt.Fprintln(s.errOut, color.RedString("Error:"), c.Err)
		}
		caps = append(caps, c)

		if err := outputpkg.PrintTarget(s.cfg.Stdout, s.cfg.Output, c); err != nil {
			return caps, err
		}
		if s.bar != nil {
			s.bar.Increment()
		}
	}
	return caps, nil
}

func failed(caps []capture.Capture) []string {
	var names []string
	for _, c := range caps {
		if c.Failed() {
			names = append(names, c.Target)
		}
	}
	return names
}

func rawComment(cfg SuiteConfig, start time.Time) string {
	return fmt.Sprintf("shlabdiff raw captures\nstudent: %s x%d\nreference: %s x%d\nstarted: %s\n",
		cfg.Student.Prefix, len(cfg.Student.Names()),
		cfg.Reference.Prefix, len(cfg.Reference.Names()),
		start.UTC().Format(time.RFC3339))
}

func waitForRateLimit(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// Auto refresh keeps lines written through the Progress flowing when w is
// not a terminal.
func initProgressBar(ctx context.Context, w io.Writer, total int64, current *atomic.Value) (*mpb.Progress, *mpb.Bar) {
	p := mpb.NewWithContext(ctx, mpb.WithOutput(w), mpb.WithAutoRefresh())
	b := p.New(total,
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("Running "),
			decor.Any(func(decor.Statistics) string {
				name, _ := current.Load().(string)
				return name
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit(" %d / %d "),
			decor.Elapsed(decor.ET_STYLE_MMSS),
		),
		mpb.BarRemoveOnComplete(),
	)
	return p, b
}
