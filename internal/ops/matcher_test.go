package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherMatch(t *testing.T) {
	m := NewMatcher([]string{"docs/*.md", "src/**/*.go"})
	assert.True(t, m.Match("docs/readme.md"))
	assert.False(t, m.Match("docs/sub/readme.md"), "single * must not cross /")
	assert.True(t, m.Match("src/a/b/main.go"))
	assert.False(t, m.Match("docs/readme.txt"))
}

func TestMatcherIncludeDirPrefix(t *testing.T) {
	m := NewMatcher([]string{"docs/guides/*.md"})
	assert.True(t, m.IncludeDir("docs"), "docs is a prefix directory of the pattern")
	assert.True(t, m.IncludeDir("docs/guides"))
	assert.False(t, m.IncludeDir("src"))
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything"))
	assert.True(t, m.IncludeDir("anything"), "no include matcher means everything is included")
}

func TestMatcherDoubleStarPrefix(t *testing.T) {
	m := NewMatcher([]string{"**/*.go"})
	assert.True(t, m.IncludeDir("any/nested/dir"))
	assert.True(t, m.Match("any/nested/main.go"))
}
