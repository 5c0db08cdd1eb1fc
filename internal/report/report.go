// Package report renders the operator-facing run summary.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/ugrc/ltcfsync/internal/engine"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// PrintRun prints the full run summary: geocode failures, changelog, and the
// dashboard totals of today's snapshot.
func PrintRun(r *engine.RunReport) {
	bold := color.New(color.Bold)

	bold.Printf("\nRun %s\n", r.RunID)
	fmt.Printf("  Batch records: %d\n", r.BatchSize)
	fmt.Printf("  New facilities: %d\n", r.NewCount)

	if len(r.Inserted) > 0 {
		color.Green("  ✓ %d inserted", len(r.Inserted))
	}
	printGeocodeFailures(r.GeocodeFailures)
	printChangelog(r)
	PrintSnapshot(r.Snapshot)

	fmt.Printf("\nCompleted in %s\n", r.Elapsed.Round(time.Millisecond))
}

func printGeocodeFailures(failures []types.UpdateRecord) {
	if len(failures) == 0 {
		return
	}
	color.Red("  ✗ %d geocode failures (not inserted):", len(failures))
	for _, rec := range failures {
		color.Red("    %d  %s  %s, %s", rec.UniqueID, rec.FacilityName, rec.Address, rec.City)
	}
	color.Yellow("  → Fix the addresses and rerun, or add the facilities manually.")
}

func printChangelog(r *engine.RunReport) {
	if r.Changelog == nil {
		return
	}
	if r.Changelog.Total == 0 {
		color.Green("  ✓ No field changes")
		return
	}

	bold := color.New(color.Bold)
	bold.Printf("\nChanges: %d fields across %d records\n", r.Changelog.Total, r.Updated)

	fields := make([]string, 0, len(r.Changelog.ByField))
	for field := range r.Changelog.ByField {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		ids := r.Changelog.ByField[field]
		fmt.Printf("  %s: %d changed %v\n", field, len(ids), ids)
	}
}

// PrintSnapshot prints the dashboard totals block for one snapshot row.
func PrintSnapshot(snap types.DailySnapshot) {
	if snap.Date.IsZero() {
		return
	}
	bold := color.New(color.Bold)
	bold.Printf("\nDashboard totals for %s\n", snap.Date.Format("2006-01-02"))
	fmt.Printf("  Total Investigations:      %d\n", snap.TotalInvestigations)
	fmt.Printf("  Total Outbreaks:           %d\n", snap.TotalOutbreaks)
	fmt.Printf("  Total Outbreaks Resolved:  %d\n", snap.TotalOutbreaksResolved)
	fmt.Printf("  Total Positive Residents:  %d\n", snap.TotalPositiveResidents)
	fmt.Printf("  Total Deceased Residents:  %d\n", snap.TotalDeceasedResidents)
	fmt.Printf("  Total Positive HCWs:       %d\n", snap.TotalPositiveHCWs)
	fmt.Printf("  Facilities w/ Active Cases: %d", snap.TodayFacilitiesActiveCases)
	fmt.Printf("  (>20: %d, 11-20: %d, 5-10: %d, 1-4: %d, HCW only: %d)\n",
		snap.TodayCountMoreThan20, snap.TodayCount11To20,
		snap.TodayCount5To10, snap.TodayCount1To4, snap.TodayCountNoResCases)
}
