package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// captureStdout redirects os.Stdout to a pipe, runs fn, and returns
// everything fn wrote to stdout as a string.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe(): %v", err)
	}

	os.Stdout = w
	fn()
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}

	os.Stdout = old
	return string(out)
}

// callRun resets the global flag state, sets os.Args, and calls run().
//
// These tests cannot run in parallel because they modify os.Args and
// flag.CommandLine (global state).
func callRun(t *testing.T, args ...string) (exitCode int, stdout string) {
	t.Helper()
	os.Args = append([]string{"shlabdiff"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	var code int
	out := captureStdout(t, func() {
		code = run()
	})
	return code, out
}

// fakeMake writes a make stand-in that prints a shell-lab style transcript
// for its last argument. The job line carries the script's own PID, so it
// differs on every call until normalized. extra is appended to the script.
func fakeMake(t *testing.T, extra string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "make")
	script := `#!/bin/sh
for t; do :; done
case "$t" in
rtest*) shell=./tshref; n=${t#rtest} ;;
*) shell=./tsh; n=${t#test} ;;
esac
echo "./sdriver.pl -t trace$n.txt -s $shell -a \"-p\""
echo "[1] ($$) ./myspin 1 &"
` + extra
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake make: %v", err)
	}
	return path
}
