package ops

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher implements the include/exclude glob semantics: a bare "*" does
// not cross "/" (literal_separator), "**" does. A nil *Matcher matches
// nothing for Match and everything for IncludeDir — the zero value of "no
// patterns configured".
type Matcher struct {
	patterns []string
}

// NewMatcher returns nil when patterns is empty, so callers can treat "no
// matcher configured" uniformly via the nil-safe methods below.
func NewMatcher(patterns []string) *Matcher {
	if len(patterns) == 0 {
		return nil
	}
	return &Matcher{patterns: patterns}
}

// Match reports whether relPath itself matches one of the configured
// patterns.
func (m *Matcher) Match(relPath string) bool {
	if m == nil {
		return false
	}
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// IncludeDir reports whether a directory should be descended into while
// building the include set: either no include matcher is configured, the
// directory itself matches a pattern, or some pattern names a path beneath
// it (a directory is "in" iff any configured pattern descends into it).
func (m *Matcher) IncludeDir(relPath string) bool {
	if m == nil {
		return true
	}
	if m.Match(relPath) {
		return true
	}
	for _, p := range m.patterns {
		if patternDescendsInto(p, relPath) {
			return true
		}
	}
	return false
}

// patternDescendsInto reports whether pattern could still match something
// under dir, by comparing path segments literally up to the first wildcard
// segment (at which point any deeper path is conservatively assumed
// reachable).
func patternDescendsInto(pattern, dir string) bool {
	if dir == "" {
		return true
	}
	pSegs := strings.Split(pattern, "/")
	dSegs := strings.Split(dir, "/")
	if len(dSegs) >= len(pSegs) && !strings.Contains(pattern, "**") {
		return false
	}
	for i, seg := range dSegs {
		if strings.ContainsAny(pSegs[i], "*?[") {
			return true
		}
		if pSegs[i] != seg {
			return false
		}
	}
	return true
}
