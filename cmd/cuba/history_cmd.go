package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyProfile string
var historyLimit int

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List recent backup/restore/verify/clean runs.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openHistory()
		if err != nil {
			Fatal(err)
		}
		defer store.Close()

		records, err := store.Recent(historyProfile, historyLimit)
		if err != nil {
			Fatal(err)
		}
		for _, r := range records {
			line := fmt.Sprintf("%-10s %-20s %-9s %s -> %s",
				r.Operation, r.Profile, r.Status,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.FinishedAt.Format("15:04:05"))
			switch r.Status {
			case "error":
				fmt.Println(color.RedString(line), r.Err)
			default:
				fmt.Println(color.GreenString(line))
			}
		}
	},
}

func init() {
	historyCommand.Flags().StringVar(&historyProfile, "profile", "", "restrict to one profile")
	historyCommand.Flags().IntVar(&historyLimit, "limit", 50, "maximum rows to show")
}
