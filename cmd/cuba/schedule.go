package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zarniwp/cuba-go/internal/scheduler"
)

var scheduleCronExpr string

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Run a backup profile on a cron schedule or on filesystem changes.",
}

var scheduleRunCommand = &cobra.Command{
	Use:   "run <profile>",
	Short: "Run a backup profile on a cron schedule, blocking until interrupted.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if scheduleCronExpr == "" {
			Fatal(fmt.Errorf("cuba: --cron is required"))
		}
		runScheduled(args[0], scheduler.Trigger{
			Profile:  args[0],
			Kind:     scheduler.TriggerCron,
			CronExpr: scheduleCronExpr,
		})
	},
}

var scheduleWatchCommand = &cobra.Command{
	Use:   "watch <profile>",
	Short: "Run a backup profile whenever its source tree changes, blocking until interrupted.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profile := args[0]
		cfg, err := loadConfig()
		if err != nil {
			Fatal(err)
		}
		bp, ok := cfg.Backup[profile]
		if !ok {
			Fatal(fmt.Errorf("cuba: no backup profile %q", profile))
		}
		local, ok := cfg.Filesystem.Local[bp.SrcFS]
		if !ok {
			Fatal(fmt.Errorf("cuba: schedule watch requires a local source filesystem, got %q", bp.SrcFS))
		}
		watchPath := filepath.Join(local.Dir, bp.SrcDir)
		runScheduled(profile, scheduler.Trigger{
			Profile:    profile,
			Kind:       scheduler.TriggerWatch,
			WatchPaths: []string{watchPath},
			DebounceMs: 500,
		})
	},
}

func init() {
	scheduleRunCommand.Flags().StringVar(&scheduleCronExpr, "cron", "", "cron expression, e.g. \"0 3 * * *\"")
	scheduleCommand.AddCommand(scheduleRunCommand, scheduleWatchCommand)
}

func runScheduled(profile string, t scheduler.Trigger) {
	s := scheduler.New(func(profile string) error {
		return runBackup(profile)
	})
	s.OnResult = func(profile string, err error) {
		if err != nil {
			Error(fmt.Errorf("scheduled run of %q failed: %w", profile, err))
			return
		}
		fmt.Println("completed scheduled run of", profile)
	}

	if err := s.Add(t); err != nil {
		Fatal(err)
	}
	s.Start()
	defer s.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
