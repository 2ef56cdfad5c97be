// Command cuba is the CLI front-end for the backup/restore/verify/clean
// engine, built with spf13/cobra matching the pack's CLI convention in
// mutagen-io-mutagen's cmd/mutagen.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootConfiguration struct {
	configPath string
	logDir     string
}

var rootCommand = &cobra.Command{
	Use:   "cuba",
	Short: "Content-preserving backup, restore, verify, and clean.",
}

func init() {
	cobra.EnableCommandSorting = false

	flags := rootCommand.PersistentFlags()
	flags.StringVar(&rootConfiguration.configPath, "config", "", "path to the TOML configuration file (default ~/.cuba/config.toml)")
	flags.StringVar(&rootConfiguration.logDir, "log-dir", "", "directory for rotating JSON logs (default: no file logging)")

	rootCommand.AddCommand(
		backupCommand,
		restoreCommand,
		verifyCommand,
		cleanCommand,
		passwordCommand,
		configCommand,
		scheduleCommand,
		historyCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
