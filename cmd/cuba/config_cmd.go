package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zarniwp/cuba-go/internal/config"
)

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Inspect or scaffold the TOML configuration document.",
}

var configExampleCommand = &cobra.Command{
	Use:   "example",
	Short: "Print or write an example configuration.",
}

var configExampleShowCommand = &cobra.Command{
	Use:   "show",
	Short: "Print the example configuration to stdout.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.Example)
	},
}

var configExampleWriteCommand = &cobra.Command{
	Use:   "write",
	Short: "Write the example configuration to the configured path.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := rootConfiguration.configPath
		if path == "" {
			path = defaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil {
			Fatal(fmt.Errorf("cuba: %s already exists", path))
		}
		if err := os.WriteFile(path, []byte(config.Example), 0o600); err != nil {
			Fatal(err)
		}
		fmt.Println("wrote", path)
	},
}

func init() {
	configExampleCommand.AddCommand(configExampleShowCommand, configExampleWriteCommand)
	configCommand.AddCommand(configExampleCommand)
}
