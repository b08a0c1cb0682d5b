// Package normalize strips run-dependent fields (process IDs, terminals,
// CPU times, trace driver command lines) from captured shell output so that
// a student run and a reference run can be compared textually.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule is one line-anchored rewrite.
type Rule struct {
	Name        string
	Description string
	re          *regexp.Regexp
	replace     func(groups []string) string
}

// Apply rewrites every line of s that the rule matches.
func (r Rule) Apply(s string) string {
	return replaceAllSubmatch(r.re, s, r.replace)
}

// Whitespace classes are horizontal only: a rule must never reach into the
// line above or below the one it rewrites. Trailing text stops before \r so
// CRLF endings are kept.
var rules = []Rule{
	{
		Name:        "ps-table",
		Description: "ps row `PID TTY STAT TIME COMMAND` -> `STAT: COMMAND`, rtest->test, tshref->tsh",
		re:          regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*(?:pts/|tty)\d+[ \t]*([A-Za-z+]+)[ \t]*\d+:\d+[ \t]*([^\r\n]*)`),
		replace: func(g []string) string {
			cmd := strings.ReplaceAll(g[2], "rtest", "test")
			cmd = strings.ReplaceAll(cmd, "tshref", "tsh")
			return g[1] + ": " + cmd
		},
	},
	{
		Name:        "job",
		Description: "`Job [jid] (pid)` / `[jid] (pid)` -> `Job [jid]` / `[jid]`",
		re:          regexp.MustCompile(`(?m)^(Job )?\[(\d+)\] \(\d+\)`),
		replace: func(g []string) string {
			return g[1] + "[" + g[2] + "]"
		},
	},
	{
		Name:        "trace",
		Description: "`./sdriver.pl -t traceNN.txt -s ...` -> `Test N`",
		re:          regexp.MustCompile(`(?m)^\./sdriver\.pl -t trace(\d+)\.txt -s [^\r\n]*`),
		replace: func(g []string) string {
			n, err := strconv.Atoi(g[1])
			if err != nil {
				// Only reachable for numbers that overflow int.
				return "Test " + strings.TrimLeft(g[1], "0")
			}
			return "Test " + strconv.Itoa(n)
		},
	},
}

// Rules returns the rewrites in the order String applies them.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// String applies every rule, in order, to s.
func String(s string) string {
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}

// replaceAllSubmatch is regexp.ReplaceAllStringFunc with access to the
// capture groups of each match. Unmatched optional groups are "".
func replaceAllSubmatch(re *regexp.Regexp, s string, fn func([]string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(fn(groups))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
