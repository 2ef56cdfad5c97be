package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zarniwp/cuba-go/internal/history"
	"github.com/zarniwp/cuba-go/internal/ops"
	"github.com/zarniwp/cuba-go/internal/pwcache"
)

var verifyAll bool

var verifyCommand = &cobra.Command{
	Use:   "verify <profile>",
	Short: "Verify a backup profile's destination against its manifest.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runVerify(args[0], verifyAll); err != nil {
			Fatal(err)
		}
	},
}

func init() {
	verifyCommand.Flags().BoolVar(&verifyAll, "all", false, "re-verify every record, not just unverified ones")
}

func runVerify(profile string, all bool) error {
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
	runErr := ops.Verify(ops.VerifyConfig{
		Config:    opsConfig(cfg.TransferThreads, nil, nil, bus),
		Backup:    dst,
		Passwords: passwords,
		VerifyAll: all,
	})
	recordRun(profile, history.OpVerify, started, runErr)
	return runErr
}
