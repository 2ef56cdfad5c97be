package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/zarniwp/cuba-go/internal/message"
)

// Warning prints a warning message to standard error, grounded on
// mutagen-io-mutagen's cmd/error.go (color.Error + YellowString).
func Warning(text string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), text)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(color.Error, color.RedString("Error:"), err)
}

// Fatal prints an error message and terminates the process.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}

// progressSubscriber renders bus messages to the terminal: green info
// lines, yellow warnings, red errors, matching spec.md's C9 message kinds.
func progressSubscriber(bus *message.Bus) func() {
	ch, cancel := bus.Subscribe()
	go func() {
		for msg := range ch {
			printMessage(msg)
		}
	}()
	return cancel
}

func printMessage(msg message.Message) {
	switch m := msg.(type) {
	case *message.TaskMessage:
		if m.Err != nil {
			fmt.Fprintln(color.Error, color.RedString("[%d]", m.Thread), m.RelPath, m.Err.String(), errSuffix(m.Cause))
			return
		}
		if m.Info != nil && *m.Info != message.TaskTick {
			fmt.Println(color.GreenString("[%d]", m.Thread), m.RelPath, m.Info.String())
		}
	case *message.CleanMessage:
		if m.Err != nil {
			fmt.Fprintln(color.Error, color.RedString("clean"), m.RelPath, m.Err.String(), errSuffix(m.Cause))
			return
		}
		if m.Info != nil && *m.Info == message.CleanRemoved {
			fmt.Println(color.YellowString("removed"), m.RelPath)
		}
	case message.ProgressMessage:
		// ticks are too frequent to print individually; duration totals
		// are not printed either.
	case message.InfoMessage:
		fmt.Println(color.GreenString(m.Text))
	case message.WarnMessage:
		fmt.Fprintln(color.Error, color.YellowString(m.Text))
	case message.ErrorMessage:
		fmt.Fprintln(color.Error, color.RedString(m.Text), errSuffix(m.Err))
	}
}

func errSuffix(err error) string {
	if err == nil {
		return ""
	}
	return "(" + err.Error() + ")"
}
