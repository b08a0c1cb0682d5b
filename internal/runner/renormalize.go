package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/nethoundsh/shlabdiff/pkg/capture"
	"github.com/nethoundsh/shlabdiff/pkg/normalize"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
)

type RenormalizeConfig struct {
	Pair outfile.Pair
	// RawArchive, when set, rebuilds both outputs from a raw capture archive
	// instead of reading the current output files.
	RawArchive      string
	StudentPrefix   string
	ReferencePrefix string
	Stdout          io.Writer
	Stderr          io.Writer
}

// Renormalize rewrites both output files with their normalized content.
// Nothing is written unless both inputs could be read.
func Renormalize(cfg RenormalizeConfig) int {
	var contents outfile.Contents
	var err error
	if cfg.RawArchive != "" {
		contents, err = fromArchive(cfg)
	} else {
		contents, err = cfg.Pair.Read()
	}
	if err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return ExitError
	}

	contents.Student = normalize.String(contents.Student)
	contents.Reference = normalize.String(contents.Reference)
	if err := cfg.Pair.Write(contents); err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return ExitError
	}

	state := color.RedString("still differ")
	if contents.Equal() {
		state = color.GreenString("match")
	}
	fmt.Fprintf(cfg.Stdout, "Re-normalized %s and %s (%s)\n", cfg.Pair.Student, cfg.Pair.Reference, state)
	return ExitMatch
}

func fromArchive(cfg RenormalizeConfig) (outfile.Contents, error) {
	a, err := capture.ReadArchive(cfg.RawArchive)
	if err != nil {
		return outfile.Contents{}, err
	}
	student, n := capture.Side(a, cfg.StudentPrefix, cfg.ReferencePrefix)
	if n == 0 {
		return outfile.Contents{}, fmt.Errorf("archive %s has no %q targets", cfg.RawArchive, cfg.StudentPrefix)
	}
	reference, n := capture.Side(a, cfg.ReferencePrefix, cfg.StudentPrefix)
	if n == 0 {
		return outfile.Contents{}, fmt.Errorf("archive %s has no %q targets", cfg.RawArchive, cfg.ReferencePrefix)
	}
	return outfile.Contents{Student: student, Reference: reference}, nil
}
