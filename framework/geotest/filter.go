package geotest

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether a test runs.
type Filter interface {
	Match(TestID) bool
}

// FilterFunc is a Filter implemented by a plain function.
type FilterFunc func(TestID) bool

func (f FilterFunc) Match(id TestID) bool { return f(id) }

// RegexFilters is the Filter behind the --run and --skip options. A test runs if it, or one of
// its subtests, could match some MustMatch pattern, and neither it nor any of its parents
// matches a MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

func (r RegexFilters) Match(id TestID) bool {
	if r.MustMatch.IsDefined() && !r.MustMatch.AnyMatch(id, true) {
		return false
	}
	return !r.MustNotMatch.AnyMatch(id, false)
}

// Describe explains the filters to out. It writes nothing when no filter is set.
func (r RegexFilters) Describe(out io.Writer) {
	var lines []string
	if r.MustMatch.IsDefined() {
		lines = append(lines, "  skip any not matching "+r.MustMatch.String())
	}
	if r.MustNotMatch.IsDefined() {
		lines = append(lines, "  skip any matching "+r.MustNotMatch.String())
	}
	if len(lines) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "Some tests will be skipped based on the filter criteria for this test run:\n%s\n\n",
		strings.Join(lines, "\n"))
}

// TestIDPattern matches a TestID one name at a time, "list points/.*limit" matching the
// subtests of "list points" whose names contain "limit". A pattern shorter than the ID matches
// the ID's leading names only, so it also matches everything below them.
type TestIDPattern []*regexp.Regexp

// Match tests the pattern against id. When the ID is shorter than the pattern, there is no match
// unless partial is set, in which case id matches if some subtest of it could.
func (p TestIDPattern) Match(id TestID, partial bool) bool {
	if len(id) < len(p) && !partial {
		return false
	}
	for i, name := range id {
		if i == len(p) {
			break
		}
		if !p[i].MatchString(name) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	parts := make([]string, len(p))
	for i, rx := range p {
		parts[i] = rx.String()
	}
	return strings.Join(parts, "/")
}

func parseTestIDPattern(s string) (TestIDPattern, error) {
	var p TestIDPattern
	for _, part := range strings.Split(s, "/") {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", part, err)
		}
		p = append(p, rx)
	}
	return p, nil
}

// TestIDPatternList is a repeatable command-line option holding TestIDPatterns.
type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	quoted := make([]string, len(l))
	for i, p := range l {
		quoted[i] = `"` + p.String() + `"`
	}
	return strings.Join(quoted, " or ")
}

// Set adds a pattern; it implements pflag.Value.
func (l *TestIDPatternList) Set(value string) error {
	p, err := parseTestIDPattern(value)
	if err == nil {
		*l = append(*l, p)
	}
	return err
}

// Type implements pflag.Value.
func (l *TestIDPatternList) Type() string { return "pattern" }

func (l TestIDPatternList) IsDefined() bool { return len(l) > 0 }

// AnyMatch reports whether any pattern in the list matches id. See TestIDPattern.Match.
func (l TestIDPatternList) AnyMatch(id TestID, partial bool) bool {
	for _, p := range l {
		if p.Match(id, partial) {
			return true
		}
	}
	return false
}
