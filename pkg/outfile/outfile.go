package outfile

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultStudent   = "./tsh.out"
	DefaultReference = "./tshref.out"
)

// Pair names the two output files of a run.
type Pair struct {
	Student   string
	Reference string
}

func Default() Pair {
	return Pair{Student: DefaultStudent, Reference: DefaultReference}
}

// Contents is the text of both sides of a Pair.
type Contents struct {
	Student   string
	Reference string
}

// Equal reports whether both sides are byte-identical.
func (c Contents) Equal() bool {
	return c.Student == c.Reference
}

// Read loads both files. A missing or unreadable file is an error.
func (p Pair) Read() (Contents, error) {
	student, err := os.ReadFile(p.Student)
	if err != nil {
		return Contents{}, fmt.Errorf("reading student output: %w", err) // ReadFile includes the path
	}
	reference, err := os.ReadFile(p.Reference)
	if err != nil {
		return Contents{}, fmt.Errorf("reading reference output: %w", err)
	}
	return Contents{Student: string(student), Reference: string(reference)}, nil
}

// Write stores both sides, student first.
func (p Pair) Write(c Contents) error {
	if err := Write(p.Student, c.Student); err != nil {
		return err
	}
	return Write(p.Reference, c.Reference)
}

// Write replaces path with data. It writes to a .tmp file first, then
// renames it so a reader never sees a half-written output.
func Write(path, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("committing %s: %w", path, err)
	}
	return nil
}
