// shlabdiff runs the shell-lab trace targets against the student shell
// (make test01..test16) and the reference shell (make rtest01..rtest16),
// strips run-dependent fields from both outputs, writes them to tsh.out and
// tshref.out, and shows the differences when they do not match.
//
// Targets run one at a time, in order. A failing target is reported on
// stderr and its output is still compared.
//
// Differences are shown with -diff-tool (vimdiff by default) started as a
// detached process on both files. When stdout is not a terminal, or
// -diff-tool is empty, a line diff is printed instead; -no-diff and -o json
// disable presentation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/nethoundsh/shlabdiff/internal/runner"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
	"github.com/nethoundsh/shlabdiff/pkg/present"
	"github.com/nethoundsh/shlabdiff/pkg/target"
	"golang.org/x/time/rate"
)

// version can be overridden at build time with:
//
//	go build -ldflags "-X main.version=v1.2.3"
var version = "dev"

type appConfig struct {
	ctx   context.Context
	suite runner.SuiteConfig
	stop  func()
}

var errVersion = errors.New("version requested")

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseConfig()
	if err != nil {
		switch {
		case errors.Is(err, errVersion):
			fmt.Println("shlabdiff", version)
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}
	defer cfg.stop()

	return runner.RunSuite(cfg.ctx, cfg.suite)
}

// parseConfig parses CLI flags, validates them, and builds the executor,
// presenter and rate limiter for the run.
func parseConfig() (appConfig, error) {
	defaults := outfile.Default()
	makeTool := flag.String("make", "make", "build tool used to run targets")
	makeDir := flag.String("C", "", "directory passed to the build tool with -C")
	count := flag.Int("count", target.DefaultCount, "number of targets per side")
	studentPrefix := flag.String("student", "test", "student target prefix")
	referencePrefix := flag.String("reference", "rtest", "reference target prefix")
	only := flag.String("only", "", "comma-separated glob patterns of trace numbers to run (e.g. \"05,1*\")")
	skip := flag.String("skip", "", "comma-separated glob patterns of trace numbers to skip")
	studentOut := flag.String("student-out", defaults.Student, "normalized student output file")
	referenceOut := flag.String("reference-out", defaults.Reference, "normalized reference output file")
	diffTool := flag.String("diff-tool", "vimdiff", "visual diff tool opened on both files when they differ (empty = print a line diff)")
	noDiff := flag.Bool("no-diff", false, "do not show differences")
	rateLimit := flag.Int("rate", 0, "max target invocations per minute (0 = no limit)")
	timeout := flag.Duration("timeout", 0, "per-target timeout (0 = none)")
	rawPath := flag.String("raw", "", "also save the raw, un-normalized captures to this txtar archive")
	output := flag.String("o", "text", "output format: text or json")
	noColor := flag.Bool("no-color", false, "disable colored output")
	noProgress := flag.Bool("no-progress", false, "disable the progress bar")
	showVersion := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shlabdiff [flags]\n\nFlags:\n")
		flag.PrintDefaults()
	}

	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return appConfig{}, err
	}
	if *showVersion {
		return appConfig{}, errVersion
	}
	if flag.NArg() > 0 {
		return appConfig{}, fmt.Errorf("unexpected argument %q", flag.Arg(0))
	}

	filter := target.Filter{
		Includes: target.ParsePatterns(*only),
		Excludes: target.ParsePatterns(*skip),
	}
	student := target.Suite{Prefix: *studentPrefix, Count: *count, Width: target.DefaultWidth, Filter: filter}
	reference := target.Suite{Prefix: *referencePrefix, Count: *count, Width: target.DefaultWidth, Filter: filter}
	if err := student.Validate(); err != nil {
		return appConfig{}, fmt.Errorf("invalid -student/-count/-only/-skip: %w", err)
	}
	if err := reference.Validate(); err != nil {
		return appConfig{}, fmt.Errorf("invalid -reference/-count/-only/-skip: %w", err)
	}
	if *studentPrefix == *referencePrefix {
		return appConfig{}, fmt.Errorf("-student and -reference must differ, both are %q", *studentPrefix)
	}
	if *studentOut == *referenceOut {
		return appConfig{}, fmt.Errorf("-student-out and -reference-out must differ, both are %q", *studentOut)
	}

	switch *output {
	case "text", "json":
	default:
		return appConfig{}, fmt.Errorf("invalid -o value; must be 'text' or 'json'")
	}
	if *rateLimit < 0 {
		return appConfig{}, fmt.Errorf("invalid -rate value %d; must be 0 or more", *rateLimit)
	}
	if *timeout < 0 {
		return appConfig{}, fmt.Errorf("invalid -timeout value %s; must be 0 or more", *timeout)
	}

	if *output == "json" || *noColor {
		color.NoColor = true
	}

	// Progress bar: text output only, on a real terminal (not piped).
	showProgress := *output == "text" && !*noProgress && isTerminal(os.Stderr)

	var limiter *rate.Limiter
	if *rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(*rateLimit)), 1)
		fmt.Fprintf(os.Stderr, "Rate limiting: %d targets/min\n", *rateLimit)
	}

	// Cancelled on Ctrl+C so a hung target can be abandoned.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	pair := outfile.Pair{Student: *studentOut, Reference: *referenceOut}
	return appConfig{
		ctx: ctx,
		suite: runner.SuiteConfig{
			Student:   student,
			Reference: reference,
			Pair:      pair,
			Exec: target.Make{
				Tool:    *makeTool,
				Dir:     *makeDir,
				Timeout: *timeout,
			},
			Presenter:    choosePresenter(*output, *diffTool, *noDiff, isTerminal(os.Stdout)),
			Limiter:      limiter,
			Output:       *output,
			RawArchive:   *rawPath,
			ShowProgress: showProgress,
			Stdout:       os.Stdout,
			Stderr:       os.Stderr,
		},
		stop: stop,
	}, nil
}

// choosePresenter picks how differences are shown. An interactive viewer
// needs a terminal to draw on; without one the diff is printed.
func choosePresenter(output, diffTool string, noDiff, interactive bool) present.Presenter {
	switch {
	case noDiff || output == "json":
		return present.None{}
	case diffTool == "" || !interactive:
		return present.Text{W: os.Stdout}
	default:
		return present.Detached{Tool: diffTool}
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
