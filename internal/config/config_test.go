package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarniwp/cuba-go/internal/pwcache"
	"github.com/zarniwp/cuba-go/internal/secret"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cuba.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadExampleConfig(t *testing.T) {
	path := writeConfig(t, Example)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TransferThreads)
	assert.Contains(t, cfg.Filesystem.Local, "documents")
	assert.Contains(t, cfg.Filesystem.WebDAV, "cloud")
	assert.Contains(t, cfg.Backup, "daily")
	assert.True(t, cfg.Backup["daily"].Encrypt)
}

func TestValidateRejectsZeroThreads(t *testing.T) {
	path := writeConfig(t, `transfer_threads = 0`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownFilesystem(t *testing.T) {
	path := writeConfig(t, `
transfer_threads = 2

[backup.daily]
src_fs = "missing"
dest_fs = "missing"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadPasswordID(t *testing.T) {
	path := writeConfig(t, `
transfer_threads = 2

[filesystem.local.a]
dir = "/tmp/a"

[filesystem.local.b]
dir = "/tmp/b"

[backup.daily]
src_fs = "a"
dest_fs = "b"
password_id = "password-ids"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMountConfigResolvesPasswords(t *testing.T) {
	path := writeConfig(t, Example)
	cfg, err := Load(path)
	require.NoError(t, err)

	store := secret.NewMemory()
	require.NoError(t, store.StoreSecret("cloud-main", "s3cr3t"))
	passwords := pwcache.New(store)

	mc, err := cfg.MountConfig("cloud", passwords)
	require.NoError(t, err)
	assert.Equal(t, "https://webdav.example.com/backups", mc.WebDAV.BaseURL)
	assert.Equal(t, "s3cr3t", mc.WebDAV.Password)

	local, err := cfg.MountConfig("documents", passwords)
	require.NoError(t, err)
	assert.Equal(t, "/home/user/Documents", local.LocalDir)

	_, err = cfg.MountConfig("nope", passwords)
	assert.Error(t, err)
}
