// shlabnorm re-applies normalization to the output files written by
// shlabdiff, in place. Use it after editing the files by hand or after a
// change to the normalization rules.
//
// With -raw, both outputs are rebuilt from a raw capture archive saved by
// shlabdiff -raw instead of from their current content.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/nethoundsh/shlabdiff/internal/runner"
	"github.com/nethoundsh/shlabdiff/pkg/normalize"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
)

var version = "dev"

var (
	errVersion = errors.New("version requested")
	errExplain = errors.New("rules requested")
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseConfig()
	if err != nil {
		switch {
		case errors.Is(err, errVersion):
			fmt.Println("shlabnorm", version)
			return 0
		case errors.Is(err, errExplain):
			for i, r := range normalize.Rules() {
				fmt.Printf("%d. %-10s %s\n", i+1, r.Name, r.Description)
			}
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}
	return runner.Renormalize(cfg)
}

func parseConfig() (runner.RenormalizeConfig, error) {
	defaults := outfile.Default()
	studentOut := flag.String("student-out", defaults.Student, "student output file")
	referenceOut := flag.String("reference-out", defaults.Reference, "reference output file")
	rawPath := flag.String("raw", "", "rebuild both outputs from this raw capture archive")
	studentPrefix := flag.String("student", "test", "student target prefix in the raw archive")
	referencePrefix := flag.String("reference", "rtest", "reference target prefix in the raw archive")
	explain := flag.Bool("explain", false, "list the normalization rules and exit")
	noColor := flag.Bool("no-color", false, "disable colored output")
	showVersion := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shlabnorm [flags]\n\nFlags:\n")
		flag.PrintDefaults()
	}

	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return runner.RenormalizeConfig{}, err
	}
	switch {
	case *showVersion:
		return runner.RenormalizeConfig{}, errVersion
	case *explain:
		return runner.RenormalizeConfig{}, errExplain
	case flag.NArg() > 0:
		return runner.RenormalizeConfig{}, fmt.Errorf("unexpected argument %q", flag.Arg(0))
	case *rawPath != "" && *studentPrefix == *referencePrefix:
		return runner.RenormalizeConfig{}, fmt.Errorf("-student and -reference must differ, both are %q", *studentPrefix)
	}

	if *noColor {
		color.NoColor = true
	}

	return runner.RenormalizeConfig{
		Pair:            outfile.Pair{Student: *studentOut, Reference: *referenceOut},
		RawArchive:      *rawPath,
		StudentPrefix:   *studentPrefix,
		ReferencePrefix: *referencePrefix,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	}, nil
}
