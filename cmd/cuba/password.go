package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var passwordSetValue string

var passwordCommand = &cobra.Command{
	Use:   "password",
	Short: "Manage secret-store password ids.",
}

var passwordSetCommand = &cobra.Command{
	Use:   "set <id>",
	Short: "Store a secret under id, prompting on stdin if --password is omitted.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		value := passwordSetValue
		if value == "" {
			fmt.Fprint(os.Stderr, "Secret: ")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				value = scanner.Text()
			}
		}
		store := openSecretStore()
		if err := store.StoreSecret(id, value); err != nil {
			Fatal(err)
		}
		fmt.Println(color.GreenString("stored"), id)
	},
}

var passwordDeleteCommand = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove id from the secret store.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openSecretStore()
		if err := store.Remove(args[0]); err != nil {
			Fatal(err)
		}
		fmt.Println(color.YellowString("removed"), args[0])
	},
}

var passwordListCommand = &cobra.Command{
	Use:   "list",
	Short: "List every stored password id.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openSecretStore()
		ids, err := store.List()
		if err != nil {
			Fatal(err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

func init() {
	passwordSetCommand.Flags().StringVar(&passwordSetValue, "password", "", "secret value (prompted on stdin if omitted)")
	passwordCommand.AddCommand(passwordSetCommand, passwordDeleteCommand, passwordListCommand)
}
