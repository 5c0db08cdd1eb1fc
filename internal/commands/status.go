package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ugrc/ltcfsync/internal/aggregate"
	"github.com/ugrc/ltcfsync/internal/config"
	"github.com/ugrc/ltcfsync/internal/engine"
	"github.com/ugrc/ltcfsync/internal/report"
)

const statusTimeout = 2 * time.Minute

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dashboard totals for the persisted facility set",
		Long: `Read-only: queries the facility layer, computes the dashboard totals as
they would appear on today's snapshot, and shows the latest persisted
events-by-day row. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}

	recs, err := store.Facilities(ctx)
	if err != nil {
		return fmt.Errorf("querying facility layer: %w", err)
	}

	bold := color.New(color.Bold)
	bold.Printf("Facility layer: %d records\n", len(recs))

	live := aggregate.BuildSnapshot(recs, time.Now())
	report.PrintSnapshot(live)

	snaps, err := store.Snapshots(ctx)
	if err != nil {
		return fmt.Errorf("querying snapshot series: %w", err)
	}
	if len(snaps) == 0 {
		color.Yellow("\nNo events-by-day rows yet.")
		return nil
	}
	sorted := engine.SortedByDate(snaps)
	latest := sorted[len(sorted)-1]
	fmt.Printf("\nLatest persisted snapshot: %s (%d rows total)\n",
		latest.Date.Format("2006-01-02"), len(snaps))
	return nil
}
