package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ugrc/ltcfsync/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "ltcfsync",
		Short: "Long-term-care facility COVID-19 data sync",
		Long: `ltcfsync reconciles the epidemiologists' spreadsheet export against the
hosted facility feature layer: it geocodes and inserts newly reported
facilities, applies case-count changes to existing records, and maintains
the events-by-day table the public dashboard charts are built from.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewRunCmd(),
		commands.NewCaseFatalityCmd(),
		commands.NewBackfillCmd(),
		commands.NewStatusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
