package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zarniwp/cuba-go/internal/history"
	"github.com/zarniwp/cuba-go/internal/ops"
	"github.com/zarniwp/cuba-go/internal/pwcache"
)

var restoreCommand = &cobra.Command{
	Use:   "restore <profile>",
	Short: "Run a configured restore profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRestore(args[0]); err != nil {
			Fatal(err)
		}
	},
}

func runRestore(profile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rp, ok := cfg.Restore[profile]
	if !ok {
		return fmt.Errorf("cuba: no restore profile %q", profile)
	}

	store := openSecretStore()
	passwords := pwcache.New(store)
	defer passwords.Close()

	src, err := mountFor(cfg, rp.SrcFS, rp.SrcDir, passwords)
	if err != nil {
		return err
	}
	dst, err := mountFor(cfg, rp.DestFS, rp.DestDir, passwords)
	if err != nil {
		return err
	}

	bus, stop := newBusAndLogger()
	defer stop()

	started := time.Now()
	runErr := ops.Restore(ops.RestoreConfig{
		Config:    opsConfig(cfg.TransferThreads, rp.Include, rp.Exclude, bus),
		Src:       src,
		Dst:       dst,
		Passwords: passwords,
	})
	recordRun(profile, history.OpRestore, started, runErr)
	return runErr
}
