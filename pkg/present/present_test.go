package present

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/nethoundsh/shlabdiff/pkg/outfile"
)

func writePair(t *testing.T, student, reference string) outfile.Pair {
	t.Helper()
	dir := t.TempDir()
	p := outfile.Pair{Student: filepath.Join(dir, "tsh.out"), Reference: filepath.Join(dir, "tshref.out")}
	if err := p.Write(outfile.Contents{Student: student, Reference: reference}); err != nil {
		t.Fatalf("writing pair: %v", err)
	}
	return p
}

func TestHunks(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		context int
		want    []Hunk
	}{
		{name: "identical", a: "x\ny\n", b: "x\ny\n", context: 3, want: []Hunk{}},
		{
			name: "one changed line",
			a:    "a\nb\nc\n", b: "a\nB\nc\n", context: 1,
			want: []Hunk{{
				OldStart: 1, OldCount: 3, NewStart: 1, NewCount: 3,
				Lines: []Line{{OpEqual, "a"}, {OpDelete, "b"}, {OpInsert, "B"}, {OpEqual, "c"}},
			}},
		},
		{
			name: "distant changes split",
			a:    "1\n2\n3\n4\n5\n6\n7\n", b: "x\n2\n3\n4\n5\n6\ny\n", context: 1,
			want: []Hunk{
				{OldStart: 1, OldCount: 2, NewStart: 1, NewCount: 2, Lines: []Line{{OpDelete, "1"}, {OpInsert, "x"}, {OpEqual, "2"}}},
				{OldStart: 6, OldCount: 2, NewStart: 6, NewCount: 2, Lines: []Line{{OpEqual, "6"}, {OpDelete, "7"}, {OpInsert, "y"}}},
			},
		},
		{
			name: "appended line",
			a:    "a\n", b: "a\nb\n", context: 3,
			want: []Hunk{{OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 2, Lines: []Line{{OpEqual, "a"}, {OpInsert, "b"}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Hunks(tt.a, tt.b, tt.context)); diff != "" {
				t.Fatalf("Hunks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextPresent(t *testing.T) {
	oldNoColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = oldNoColor }()

	p := writePair(t, "Test 1\nJob [1] stopped\n", "Test 1\nJob [1] stopped by signal 20\n")
	var buf bytes.Buffer
	if err := (Text{W: &buf}).Present(context.Background(), p); err != nil {
		t.Fatalf("Present: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"--- " + p.Student, "+++ " + p.Reference, "@@ -1,2 +1,2 @@", "-Job [1] stopped\n", "+Job [1] stopped by signal 20\n", " Test 1\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTextPresentMissingFile(t *testing.T) {
	p := outfile.Pair{Student: filepath.Join(t.TempDir(), "none"), Reference: "none"}
	if err := (Text{W: &bytes.Buffer{}}).Present(context.Background(), p); err == nil {
		t.Fatal("expected error for missing files")
	}
}

func TestDetachedPresent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	p := writePair(t, "a\n", "b\n")
	marker := filepath.Join(t.TempDir(), "args")

	var gotName string
	var gotArgs []string
	d := Detached{
		Tool: "vimdiff",
		Command: func(name string, args ...string) *exec.Cmd {
			gotName, gotArgs = name, args
			// Stand-in viewer: record the file arguments and exit.
			return exec.Command("sh", "-c", `echo "$1 $2" > "$0"`, marker, args[0], args[1])
		},
	}
	if err := d.Present(context.Background(), p); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if gotName != "vimdiff" {
		t.Fatalf("tool = %q, want vimdiff", gotName)
	}
	if diff := cmp.Diff([]string{p.Student, p.Reference}, gotArgs); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestDetachedPresentMissingTool(t *testing.T) {
	p := writePair(t, "a\n", "b\n")
	d := Detached{Tool: filepath.Join(t.TempDir(), "no-such-viewer")}
	if err := d.Present(context.Background(), p); err == nil {
		t.Fatal("expected error for missing tool")
	}
}

func TestNonePresent(t *testing.T) {
	if err := (None{}).Present(context.Background(), outfile.Pair{}); err != nil {
		t.Fatalf("None.Present: %v", err)
	}
}
