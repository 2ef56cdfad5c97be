// Package config decodes the C10 TOML configuration document, matching
// the field names spec.md §6 fixes (transfer_threads, filesystem.local.*,
// filesystem.webdav.*, filesystem.ftp.*, backup.*, restore.*) and applies
// structural validation. It owns decoding and validation only — the TOML
// grammar itself is github.com/BurntSushi/toml's concern, not ours.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/pwcache"
	"github.com/zarniwp/cuba-go/internal/secret"
)

// LocalMount is one filesystem.local.<name> entry.
type LocalMount struct {
	Dir string `toml:"dir"`
}

// WebDAVMount is one filesystem.webdav.<name> entry.
type WebDAVMount struct {
	URL         string `toml:"url"`
	User        string `toml:"user"`
	PasswordID  string `toml:"password_id"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// FTPMount is one filesystem.ftp.<name> entry — a domain-stack addition
// mirroring WebDAVMount's shape with Addr in place of URL, since FTP
// addresses are host:port rather than a URL.
type FTPMount struct {
	Addr        string `toml:"addr"`
	User        string `toml:"user"`
	PasswordID  string `toml:"password_id"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// Filesystems groups every configured mount by backend kind.
type Filesystems struct {
	Local  map[string]LocalMount  `toml:"local"`
	WebDAV map[string]WebDAVMount `toml:"webdav"`
	FTP    map[string]FTPMount    `toml:"ftp"`
}

// BackupProfile is one backup.<name> entry.
type BackupProfile struct {
	SrcFS       string   `toml:"src_fs"`
	DestFS      string   `toml:"dest_fs"`
	SrcDir      string   `toml:"src_dir"`
	DestDir     string   `toml:"dest_dir"`
	Include     []string `toml:"include"`
	Exclude     []string `toml:"exclude"`
	Encrypt     bool     `toml:"encrypt"`
	PasswordID  string   `toml:"password_id"`
	Compression bool     `toml:"compression"`
}

// RestoreProfile is one restore.<name> entry — mirrors BackupProfile
// without crypto knobs, since those are pulled from the manifest itself.
type RestoreProfile struct {
	SrcFS   string   `toml:"src_fs"`
	DestFS  string   `toml:"dest_fs"`
	SrcDir  string   `toml:"src_dir"`
	DestDir string   `toml:"dest_dir"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// Config is the decoded root document.
type Config struct {
	TransferThreads int                       `toml:"transfer_threads"`
	Filesystem      Filesystems               `toml:"filesystem"`
	Backup          map[string]BackupProfile  `toml:"backup"`
	Restore         map[string]RestoreProfile `toml:"restore"`
}

// Load decodes the document at path and validates it structurally.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural invariants config.Load relies on:
// a positive thread count, well-formed password ids, and backup/restore
// profiles that reference filesystems actually declared above them.
func (c *Config) Validate() error {
	if c.TransferThreads <= 0 {
		return fmt.Errorf("config: transfer_threads must be positive, got %d", c.TransferThreads)
	}
	for name, p := range c.Backup {
		if p.PasswordID != "" {
			if err := secret.ValidateID(p.PasswordID); err != nil {
				return fmt.Errorf("config: backup.%s: %w", name, err)
			}
		}
		if err := c.requireFS(p.SrcFS); err != nil {
			return fmt.Errorf("config: backup.%s: src_fs: %w", name, err)
		}
		if err := c.requireFS(p.DestFS); err != nil {
			return fmt.Errorf("config: backup.%s: dest_fs: %w", name, err)
		}
	}
	for name, p := range c.Restore {
		if err := c.requireFS(p.SrcFS); err != nil {
			return fmt.Errorf("config: restore.%s: src_fs: %w", name, err)
		}
		if err := c.requireFS(p.DestFS); err != nil {
			return fmt.Errorf("config: restore.%s: dest_fs: %w", name, err)
		}
	}
	for name, m := range c.Filesystem.WebDAV {
		if _, err := fsabs.SchemeOf(m.URL); err != nil {
			return fmt.Errorf("config: filesystem.webdav.%s: %w", name, err)
		}
		if m.PasswordID != "" {
			if err := secret.ValidateID(m.PasswordID); err != nil {
				return fmt.Errorf("config: filesystem.webdav.%s: %w", name, err)
			}
		}
	}
	for name, m := range c.Filesystem.FTP {
		if m.PasswordID != "" {
			if err := secret.ValidateID(m.PasswordID); err != nil {
				return fmt.Errorf("config: filesystem.ftp.%s: %w", name, err)
			}
		}
	}
	return nil
}

func (c *Config) requireFS(name string) error {
	if name == "" {
		return fmt.Errorf("must not be empty")
	}
	if _, ok := c.Filesystem.Local[name]; ok {
		return nil
	}
	if _, ok := c.Filesystem.WebDAV[name]; ok {
		return nil
	}
	if _, ok := c.Filesystem.FTP[name]; ok {
		return nil
	}
	return fmt.Errorf("no such filesystem %q", name)
}

// MountConfig resolves a declared filesystem name into an fsabs.MountConfig,
// fetching any password_id through passwords when the backend needs
// credentials.
func (c *Config) MountConfig(name string, passwords *pwcache.Cache) (fsabs.MountConfig, error) {
	if m, ok := c.Filesystem.Local[name]; ok {
		return fsabs.MountConfig{Name: name, LocalDir: m.Dir}, nil
	}
	if m, ok := c.Filesystem.WebDAV[name]; ok {
		pass, err := resolvePassword(passwords, m.PasswordID)
		if err != nil {
			return fsabs.MountConfig{}, fmt.Errorf("config: filesystem.webdav.%s: %w", name, err)
		}
		return fsabs.MountConfig{
			Name: name,
			WebDAV: fsabs.WebDAVConfig{
				BaseURL:    m.URL,
				User:       m.User,
				Password:   pass,
				TimeoutSec: m.TimeoutSecs,
			},
		}, nil
	}
	if m, ok := c.Filesystem.FTP[name]; ok {
		pass, err := resolvePassword(passwords, m.PasswordID)
		if err != nil {
			return fsabs.MountConfig{}, fmt.Errorf("config: filesystem.ftp.%s: %w", name, err)
		}
		return fsabs.MountConfig{
			Name: name,
			FTP: fsabs.FTPConfig{
				Addr:       m.Addr,
				User:       m.User,
				Password:   pass,
				TimeoutSec: m.TimeoutSecs,
			},
		}, nil
	}
	return fsabs.MountConfig{}, fmt.Errorf("config: unknown filesystem %q", name)
}

func resolvePassword(passwords *pwcache.Cache, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	return passwords.Get(id)
}

// Example is the document written by `cuba config example write`.
const Example = `transfer_threads = 4

[filesystem.local.documents]
dir = "/home/user/Documents"

[filesystem.local.backup_drive]
dir = "/mnt/backup"

[filesystem.webdav.cloud]
url = "https://webdav.example.com/backups"
user = "alice"
password_id = "cloud-main"
timeout_secs = 30

[backup.daily]
src_fs = "documents"
dest_fs = "backup_drive"
src_dir = "."
dest_dir = "documents"
include = ["**/*"]
exclude = ["**/*.tmp", "**/.git/**"]
encrypt = true
password_id = "cloud-main"
compression = true

[restore.daily]
src_fs = "backup_drive"
dest_fs = "documents"
src_dir = "documents"
dest_dir = "."
`
