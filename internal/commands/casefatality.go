package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ugrc/ltcfsync/internal/config"
)

// NewCaseFatalityCmd creates the casefatality command.
func NewCaseFatalityCmd() *cobra.Command {
	var (
		verbose  bool
		workbook string
	)

	cmd := &cobra.Command{
		Use:   "casefatality",
		Short: "Join the case-fatality workbook onto the daily snapshots",
		Long: `Reads the statewide and resident sheets of the case-fatality workbook,
forward-fills the sparse resident death series, and writes cumulative totals
and death ratios onto every snapshot row with a matching date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCaseFatality(workbook, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	cmd.Flags().StringVar(&workbook, "workbook", "", "Path to the .xlsx workbook (overrides config)")
	return cmd
}

func runCaseFatality(workbook string, verbose bool) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if workbook == "" {
		workbook = cfg.Input.CaseFatalityWorkbook
	}
	if workbook == "" {
		return fmt.Errorf("no workbook given: set input.caseFatalityWorkbook or pass --workbook")
	}

	logger := newLogger(verbose)
	eng, _, err := buildEngine(cfg, nil, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	n, err := eng.CaseFatality(ctx, workbook)
	if err != nil {
		return err
	}
	color.Green("✓ Case-fatality fields written to %d snapshot rows", n)
	return nil
}
