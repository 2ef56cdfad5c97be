package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/manifest"
	"github.com/zarniwp/cuba-go/internal/message"
	"github.com/zarniwp/cuba-go/internal/ppath"
	"github.com/zarniwp/cuba-go/internal/pwcache"
	"github.com/zarniwp/cuba-go/internal/runstate"
	"github.com/zarniwp/cuba-go/internal/secret"
)

func TestBackupRestoreVerifyRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	restoreDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello world"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "sub", "b.txt"), []byte("nested content"), 0644))

	store := secret.NewMemory()
	require.NoError(t, store.StoreSecret("main", "correct horse battery staple"))
	passwords := pwcache.New(store)

	srcMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](srcDir)}
	dstMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](dstDir)}
	bus := message.NewBus()

	err := Backup(BackupConfig{
		Config:     Config{Threads: 2, RunState: runstate.New(), Bus: bus},
		Src:        srcMount,
		Dst:        dstMount,
		Compress:   true,
		Encrypt:    true,
		PasswordID: "main",
		Passwords:  passwords,
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	err = Verify(VerifyConfig{
		Config:    Config{Threads: 2, RunState: runstate.New(), Bus: bus},
		Backup:    dstMount,
		Passwords: passwords,
		VerifyAll: true,
	})
	require.NoError(t, err)

	restoreMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](restoreDir)}
	err = Restore(RestoreConfig{
		Config:    Config{Threads: 2, RunState: runstate.New(), Bus: bus},
		Src:       dstMount,
		Dst:       restoreMount,
		Passwords: passwords,
	})
	require.NoError(t, err)

	restored, err := os.ReadFile(filepath.Join(restoreDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(restored))

	restoredNested, err := os.ReadFile(filepath.Join(restoreDir, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested content", string(restoredNested))
}

func TestBackupThenCleanRemovesOrphan(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "keep.txt"), []byte("keep"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "drop.txt"), []byte("drop"), 0644))

	srcMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](srcDir)}
	dstMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](dstDir)}
	bus := message.NewBus()

	require.NoError(t, Backup(BackupConfig{
		Config: Config{Threads: 2, RunState: runstate.New(), Bus: bus},
		Src:    srcMount,
		Dst:    dstMount,
	}))

	require.NoError(t, os.Remove(filepath.Join(srcDir, "drop.txt")))

	require.NoError(t, Backup(BackupConfig{
		Config: Config{Threads: 2, RunState: runstate.New(), Bus: bus},
		Src:    srcMount,
		Dst:    dstMount,
	}))

	require.NoError(t, Clean(CleanConfig{
		Config: Config{Threads: 2, RunState: runstate.New(), Bus: bus},
		Dst:    dstMount,
	}))

	_, err := os.Stat(filepath.Join(dstDir, "drop.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dstDir, "keep.txt"))
	assert.NoError(t, err)
}

func TestBackupSkipsUpToDateFile(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("stable"), 0644))

	srcMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](srcDir)}
	dstMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](dstDir)}
	bus := message.NewBus()

	cfg := BackupConfig{
		Config: Config{Threads: 1, RunState: runstate.New(), Bus: bus},
		Src:    srcMount,
		Dst:    dstMount,
	}
	require.NoError(t, Backup(cfg))

	info1, err := os.Stat(filepath.Join(dstDir, "a.txt"))
	require.NoError(t, err)

	cfg.RunState = runstate.New()
	require.NoError(t, Backup(cfg))

	info2, err := os.Stat(filepath.Join(dstDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime(), "up-to-date file must not be rewritten")
}

// TestVerifyAllSetsBothFlagsOnFailure covers spec.md §8 scenario 5: corrupt
// a byte of the stored ciphertext, then `verify --all` must emit
// VerifiedFailed for that path and leave the manifest with both VERIFIED
// and VERIFY_ERROR set (not VERIFIED cleared).
func TestVerifyAllSetsBothFlagsOnFailure(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello world, this is secret"), 0644))

	store := secret.NewMemory()
	require.NoError(t, store.StoreSecret("main", "correct horse battery staple"))
	passwords := pwcache.New(store)

	srcMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](srcDir)}
	dstMount := Mount{FS: fsabs.NewLocal(), Root: ppath.MustAbs[ppath.Dir](dstDir)}
	bus := message.NewBus()

	require.NoError(t, Backup(BackupConfig{
		Config:     Config{Threads: 1, RunState: runstate.New(), Bus: bus},
		Src:        srcMount,
		Dst:        dstMount,
		Encrypt:    true,
		PasswordID: "main",
		Passwords:  passwords,
	}))

	matches, err := filepath.Glob(filepath.Join(dstDir, "a.txt*"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one transferred object for a.txt")
	ciphertext := matches[0]

	data, err := os.ReadFile(ciphertext)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(ciphertext, data, 0644))

	require.NoError(t, Verify(VerifyConfig{
		Config:    Config{Threads: 1, RunState: runstate.New(), Bus: bus},
		Backup:    dstMount,
		Passwords: passwords,
		VerifyAll: true,
	}))

	readFS := fsabs.NewLocal()
	require.NoError(t, readFS.Connect())
	defer readFS.Disconnect()
	tn, err := manifest.Load(readFS, dstMount.Root)
	require.NoError(t, err)
	n, ok := tn.GetBySrc(manifest.DisplayKey(ppath.UFile, "a.txt"))
	require.True(t, ok)
	assert.NotZero(t, n.Flags&manifest.FlagVerified, "VERIFIED must remain set on verify failure")
	assert.NotZero(t, n.Flags&manifest.FlagVerifyError, "VERIFY_ERROR must be set on verify failure")
}
