package target

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Filter selects traces by glob patterns matched against the zero-padded
// trace number ("05", "1*"). Both sides of a run share one Filter so their
// targets stay aligned.
type Filter struct {
	Includes []string
	Excludes []string
}

// ParsePatterns splits a comma-separated flag value, dropping blanks.
func ParsePatterns(s string) []string {
	if s == "" {
		return nil
	}
	var patterns []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func (f Filter) Validate() error {
	for _, p := range append(append([]string(nil), f.Includes...), f.Excludes...) {
		if _, err := filepath.Match(p, "01"); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

// Keep decides whether trace number id runs.
func (f Filter) Keep(id string) bool {
	if len(f.Includes) > 0 {
		matched := false
		for _, pattern := range f.Includes {
			if ok, _ := filepath.Match(pattern, id); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range f.Excludes {
		if ok, _ := filepath.Match(pattern, id); ok {
			return false
		}
	}
	return true
}
