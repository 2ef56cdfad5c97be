package ppath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsRelValidation(t *testing.T) {
	_, err := NewAbs[File]("relative/path.txt")
	assert.Error(t, err)

	_, err = NewRel[File]("/absolute/path.txt")
	assert.Error(t, err)

	p, err := NewAbs[File]("/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/a/b.txt", p.String())
}

func TestNoTrailingSlash(t *testing.T) {
	_, err := NewAbs[Dir]("/a/b/")
	assert.Error(t, err)

	root, err := NewAbs[Dir]("/")
	require.NoError(t, err)
	assert.Equal(t, "/", root.String())
}

func TestNFCEquality(t *testing.T) {
	// U+00E9 (precomposed "e acute") vs "e" (U+0065) + combining acute
	// accent (U+0301) — two different byte sequences, same rendered glyph.
	precomposed := MustAbs[File]("/café.txt")
	decomposed := MustAbs[File]("/café.txt")

	require.NotEqual(t, precomposed.String(), decomposed.String(), "original bytes must be preserved for display")
	assert.True(t, precomposed.Equal(decomposed))
}

func TestAddSub(t *testing.T) {
	base := MustAbs[Dir]("/dest")
	rel := MustRel[File]("a/b.txt")

	full := Add(base, rel)
	assert.Equal(t, "/dest/a/b.txt", full.String())

	back, err := Sub(full, base)
	require.NoError(t, err)
	assert.True(t, back.Equal(rel))

	recoveredBase, err := SubRel(full, rel)
	require.NoError(t, err)
	assert.True(t, recoveredBase.Equal(base))
}

func TestPushPopExt(t *testing.T) {
	p := MustRel[File]("a/b.txt")
	gz := PushExt(p, ".gz")
	assert.Equal(t, "a/b.txt.gz", gz.String())

	back, ok := PopExtIf(gz, ".gz")
	assert.True(t, ok)
	assert.True(t, back.Equal(p))

	_, ok = PopExtIf(p, ".age")
	assert.False(t, ok)
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, MustAbs[Dir]("/").Depth())
	assert.Equal(t, 1, MustAbs[Dir]("/a").Depth())
	assert.Equal(t, 3, MustAbs[Dir]("/a/b/c").Depth())
}

func TestParentBase(t *testing.T) {
	p := MustAbs[File]("/a/b/c.txt")
	assert.Equal(t, "c.txt", p.Base())
	parent := Parent(p)
	assert.Equal(t, "/a/b", parent.String())
}
