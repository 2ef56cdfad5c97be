package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zarniwp/cuba-go/internal/history"
	"github.com/zarniwp/cuba-go/internal/ops"
	"github.com/zarniwp/cuba-go/internal/pwcache"
)

var backupCommand = &cobra.Command{
	Use:   "backup <profile>",
	Short: "Run a configured backup profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBackup(args[0]); err != nil {
			Fatal(err)
		}
	},
}

func runBackup(profile string) error {
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

	src, err := mountFor(cfg, bp.SrcFS, bp.SrcDir, passwords)
	if err != nil {
		return err
	}
	dst, err := mountFor(cfg, bp.DestFS, bp.DestDir, passwords)
	if err != nil {
		return err
	}

	bus, stop := newBusAndLogger()
	defer stop()

	started := time.Now()
	runErr := ops.Backup(ops.BackupConfig{
		Config:     opsConfig(cfg.TransferThreads, bp.Include, bp.Exclude, bus),
		Src:        src,
		Dst:        dst,
		Compress:   bp.Compression,
		Encrypt:    bp.Encrypt,
		PasswordID: bp.PasswordID,
		Passwords:  passwords,
	})
	recordRun(profile, history.OpBackup, started, runErr)
	return runErr
}

func recordRun(profile string, op history.Operation, started time.Time, runErr error) {
	store, err := openHistory()
	if err != nil {
		Warning(fmt.Sprintf("could not open history store: %v", err))
		return
	}
	defer store.Close()

	status := history.StatusOK
	errText := ""
	if runErr != nil {
		status = history.StatusError
		errText = runErr.Error()
	}
	rec := history.Record{
		Operation:  op,
		Profile:    profile,
		Status:     status,
		Err:        errText,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := store.Record(rec); err != nil {
		Warning(fmt.Sprintf("could not record history: %v", err))
	}
}
