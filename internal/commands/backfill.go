package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ugrc/ltcfsync/internal/config"
)

// NewBackfillCmd creates the backfill command.
func NewBackfillCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Recompute derived fields for the whole events-by-day history",
		Long: `Rewrites deltas and 7-day rolling averages on every snapshot row. The
daily run only writes today's derived fields; run this once after loading
historical rows or changing the derived-field definitions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	return cmd
}

func runBackfill(verbose bool) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(verbose)
	eng, _, err := buildEngine(cfg, nil, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	n, err := eng.Backfill(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		color.Yellow("No snapshot rows to backfill.")
		return nil
	}
	color.Green("✓ Derived fields rewritten on %d snapshot rows", n)
	return nil
}
