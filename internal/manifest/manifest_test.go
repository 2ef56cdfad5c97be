package manifest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tn := New()
	sig := [32]byte{1, 2, 3}
	tn.Set(DisplayKey(ppath.UFile, "a.txt"), Node{
		Kind:         ppath.UFile,
		DestRelPath:  "a.txt.gz",
		Flags:        FlagCompressed,
		SrcSignature: &sig,
	})

	var buf bytes.Buffer
	require.NoError(t, tn.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.NodeCount())

	n, ok := decoded.GetBySrc(DisplayKey(ppath.UFile, "a.txt"))
	require.True(t, ok)
	assert.Equal(t, "a.txt.gz", n.DestRelPath)
	assert.Equal(t, FlagCompressed, n.Flags)
	require.NotNil(t, n.SrcSignature)
	assert.Equal(t, sig, *n.SrcSignature)
}

func TestInsertRemoveFlagsBulk(t *testing.T) {
	tn := New()
	tn.Set("a", Node{})
	tn.Set("b", Node{Flags: FlagVerified})

	tn.InsertFlags(FlagOrphan)
	a, _ := tn.GetBySrc("a")
	b, _ := tn.GetBySrc("b")
	assert.Equal(t, FlagOrphan, a.Flags)
	assert.Equal(t, FlagVerified|FlagOrphan, b.Flags)

	tn.RemoveFlags(FlagOrphan)
	a, _ = tn.GetBySrc("a")
	b, _ = tn.GetBySrc("b")
	assert.Equal(t, Flag(0), a.Flags)
	assert.Equal(t, FlagVerified, b.Flags)
}

func TestRestoreViewByDest(t *testing.T) {
	tn := New()
	tn.Set(DisplayKey(ppath.UFile, "a.txt"), Node{DestRelPath: "a.txt.age.gz"})

	srcKey, n, found := tn.GetByDest("a.txt.age.gz")
	require.True(t, found)
	assert.Equal(t, DisplayKey(ppath.UFile, "a.txt"), srcKey)
	assert.Equal(t, "a.txt.age.gz", n.DestRelPath)

	_, _, found = tn.GetByDest("missing")
	assert.False(t, found)
}

func TestMaskedFlagsMatches(t *testing.T) {
	mf := MaskedFlags{Mode: Eq, Flags: FlagCompressed | FlagEncrypted, Mask: FlagCompressed | FlagEncrypted | FlagVerifyError}
	assert.True(t, mf.Matches(FlagCompressed|FlagEncrypted))
	assert.False(t, mf.Matches(FlagCompressed))

	uq := MaskedFlags{Mode: Uq, Flags: FlagVerified | FlagVerifyError, Mask: FlagVerified | FlagVerifyError}
	assert.True(t, uq.Matches(0))
	assert.False(t, uq.Matches(FlagVerified | FlagVerifyError))
}

func TestDisplayKeyRoundTrip(t *testing.T) {
	key := DisplayKey(ppath.UDir, "a/b")
	kind, path, err := ParseDisplayKey(key)
	require.NoError(t, err)
	assert.Equal(t, ppath.UDir, kind)
	assert.Equal(t, "a/b", path)
}
