package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ugrc/ltcfsync/internal/config"
	"github.com/ugrc/ltcfsync/internal/engine"
	"github.com/ugrc/ltcfsync/internal/report"
)

const runTimeout = 15 * time.Minute

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		yes     bool
		verbose bool
		batch   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the update batch against the facility layer",
		Long: `Loads the spreadsheet export, inserts newly reported facilities (after
geocoding), applies field changes to existing records, and appends today's
row to the events-by-day table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(batch, yes, verbose)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	cmd.Flags().StringVar(&batch, "batch", "", "Path to the update CSV (overrides config)")
	return cmd
}

func runSync(batch string, yes, verbose bool) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if batch == "" {
		batch = cfg.Input.UpdatesCSV
	}

	logger := newLogger(verbose)
	eng, _, err := buildEngine(cfg, pickConfirmer(yes), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := eng.Run(ctx, batch)
	if err != nil {
		if errors.Is(err, engine.ErrAborted) {
			color.Yellow("Aborted. Nothing was written.")
			return nil
		}
		return err
	}

	report.PrintRun(result)
	return nil
}
