package fsabs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

func TestChoose(t *testing.T) {
	min4 := 1000
	max64 := 64 * 1024
	src := BlockSize{Min: &min4, Recommended: 4096}
	dst := BlockSize{Recommended: 128 * 1024, Max: &max64}
	assert.Equal(t, 64*1024, Choose(src, dst))
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal()
	require.NoError(t, l.Connect())
	defer l.Disconnect()

	absDir := ppath.MustAbs[ppath.Dir](filepath.ToSlash(dir))
	sub := ppath.Add(absDir, ppath.MustRel[ppath.Dir]("sub"))
	require.NoError(t, l.Mkdir(sub))

	file := ppath.Add(sub, ppath.MustRel[ppath.File]("a.txt"))
	sink, err := l.WriteData(file)
	require.NoError(t, err)
	_, err = sink.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, sink.Finish())

	meta, err := l.Meta(ppath.FromTyped(file))
	require.NoError(t, err)
	require.NotNil(t, meta.Size)
	assert.Equal(t, int64(5), *meta.Size)

	reader, err := l.ReadData(file)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "hello", string(data))

	entries, err := l.ListDir(absDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ppath.UDir, entries[0].Kind())
}

func TestLocalMkdirExistingReportedByMeta(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal()
	require.NoError(t, l.Connect())
	defer l.Disconnect()

	absDir := ppath.MustAbs[ppath.Dir](filepath.ToSlash(dir))
	sub := ppath.Add(absDir, ppath.MustRel[ppath.Dir]("sub"))
	require.NoError(t, os.Mkdir(sub.String(), 0o755))

	err := l.Mkdir(sub)
	require.Error(t, err, "os.Mkdir on an existing dir fails; caller falls back to Meta per spec.md 4.5")

	_, metaErr := l.Meta(ppath.FromTypedDir(sub))
	assert.NoError(t, metaErr)
}
