package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zarniwp/cuba-go/internal/history"
	"github.com/zarniwp/cuba-go/internal/ops"
	"github.com/zarniwp/cuba-go/internal/pwcache"
)

var cleanCommand = &cobra.Command{
	Use:   "clean <profile>",
	Short: "Sweep orphaned and stray objects from a backup profile's destination.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runClean(args[0]); err != nil {
			Fatal(err)
		}
	},
}

func runClean(profile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bp, ok := cfg.Backup[profile]
	if !ok {
		return fmt.Errorf("cuba: no backup profile %q", profile)
	}

	store := openSecretStore()
	passwords := pwcache.New(store)
	defer passwords.Close()

	dst, err := mountFor(cfg, bp.DestFS, bp.DestDir, passwords)
	if err != nil {
		return err
	}

	bus, stop := newBusAndLogger()
	defer stop()

	started := time.Now()
	runErr := ops.Clean(ops.CleanConfig{
		Config: opsConfig(cfg.TransferThreads, nil, nil, bus),
		Dst:    dst,
	})
	recordRun(profile, history.OpClean, started, runErr)
	return runErr
}
