package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zarniwp/cuba-go/internal/config"
	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/history"
	"github.com/zarniwp/cuba-go/internal/message"
	"github.com/zarniwp/cuba-go/internal/ops"
	"github.com/zarniwp/cuba-go/internal/ppath"
	"github.com/zarniwp/cuba-go/internal/pwcache"
	"github.com/zarniwp/cuba-go/internal/runstate"
	"github.com/zarniwp/cuba-go/internal/secret"
)

func cubaDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".cuba")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func defaultConfigPath() string {
	if dir, err := cubaDir(); err == nil {
		return filepath.Join(dir, "config.toml")
	}
	return "cuba.toml"
}

func loadConfig() (*config.Config, error) {
	path := rootConfiguration.configPath
	if path == "" {
		path = defaultConfigPath()
	}
	return config.Load(path)
}

func openSecretStore() secret.Store {
	return secret.NewKeyring()
}

func openHistory() (*history.Store, error) {
	dir, err := cubaDir()
	if err != nil {
		return nil, err
	}
	return history.Open(filepath.Join(dir, "history.db"))
}

func newBusAndLogger() (*message.Bus, func()) {
	logDir := rootConfiguration.logDir
	logger := message.NewLogger(message.LogConfig{LogDir: logDir})
	bus := message.NewBus()
	stopLog := message.LogSubscriber(bus, logger)
	stopPrint := progressSubscriber(bus)
	return bus, func() { stopLog(); stopPrint() }
}

// mountFor resolves a configured filesystem name plus a profile-relative
// directory into an ops.Mount: the fs's own root joined with relDir.
func mountFor(cfg *config.Config, fsName, relDir string, passwords *pwcache.Cache) (ops.Mount, error) {
	mc, err := cfg.MountConfig(fsName, passwords)
	if err != nil {
		return ops.Mount{}, err
	}
	fs, err := fsabs.Open(mc)
	if err != nil {
		return ops.Mount{}, err
	}

	rootRaw := "/"
	if mc.LocalDir != "" {
		rootRaw = mc.LocalDir
	}
	root, err := ppath.NewAbs[ppath.Dir](rootRaw)
	if err != nil {
		return ops.Mount{}, fmt.Errorf("cuba: mount %q: %w", fsName, err)
	}

	if relDir != "" && relDir != "." {
		rel, err := ppath.NewRel[ppath.Dir](relDir)
		if err != nil {
			return ops.Mount{}, fmt.Errorf("cuba: mount %q: %w", fsName, err)
		}
		root = ppath.Add(root, rel)
	}
	return ops.Mount{FS: fs, Root: root}, nil
}

func opsConfig(threads int, include, exclude []string, bus *message.Bus) ops.Config {
	return ops.Config{
		Threads:  threads,
		Include:  include,
		Exclude:  exclude,
		RunState: runstate.New(),
		Bus:      bus,
	}
}

