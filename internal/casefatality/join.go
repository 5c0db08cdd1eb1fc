package casefatality

import (
	"sort"
	"time"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// JoinedDay is one output row of the forward-fill join: a statewide date with
// the resident death columns carried over or filled.
type JoinedDay struct {
	Date             time.Time
	CumulativeCases  int
	CumulativeDeaths int

	// ResidentDailyDeaths is zero on dates absent from the sparse resident
	// series (no resident died that day).
	ResidentDailyDeaths int

	// ResidentCumulativeDeaths carries the most recent prior value forward;
	// nil before the first resident death.
	ResidentCumulativeDeaths *int
}

// Join left-joins the sparse resident series onto the statewide series by
// date. Resident cumulative deaths forward-fill across the gap dates; daily
// deaths fill with zero.
func Join(statewide []StatewideDay, resident []ResidentDay) []JoinedDay {
	byDate := make(map[time.Time]ResidentDay, len(resident))
	for _, r := range resident {
		byDate[types.Day(r.Date)] = r
	}

	out := make([]JoinedDay, 0, len(statewide))
	sorted := make([]StatewideDay, len(statewide))
	copy(sorted, statewide)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var carry *int
	for _, day := range sorted {
		j := JoinedDay{
			Date:             types.Day(day.Date),
			CumulativeCases:  day.CumulativeCases,
			CumulativeDeaths: day.CumulativeDeaths,
		}
		if r, ok := byDate[j.Date]; ok {
			cum := r.CumulativeDeaths
			j.ResidentDailyDeaths = r.DailyDeaths
			j.ResidentCumulativeDeaths = &cum
			carry = &cum
		} else if carry != nil {
			cum := *carry
			j.ResidentCumulativeDeaths = &cum
		}
		out = append(out, j)
	}
	return out
}

// Apply writes the joined case/death totals and both case-fatality ratios
// onto the matching snapshots. Every date present in the statewide series is
// rewritten, because statewide cases and deaths are back-filled over time.
// A zero denominator leaves the ratio nil rather than failing the run.
//
// The returned slice holds only the snapshots that matched a statewide date.
func Apply(snaps []types.DailySnapshot, joined []JoinedDay) []types.DailySnapshot {
	byDate := make(map[time.Time]JoinedDay, len(joined))
	for _, j := range joined {
		byDate[j.Date] = j
	}

	var updated []types.DailySnapshot
	for _, snap := range snaps {
		j, ok := byDate[types.Day(snap.Date)]
		if !ok {
			continue
		}
		cases, deaths := j.CumulativeCases, j.CumulativeDeaths
		snap.UTCumulativeCases = &cases
		snap.UTCumulativeDeaths = &deaths
		snap.ResidentCumulativeDeaths = j.ResidentCumulativeDeaths

		snap.LTCFDeathRatio = ratio(j.ResidentCumulativeDeaths, snap.TotalPositiveResidents)
		snap.UTDeathRatio = ratio(&deaths, cases)

		updated = append(updated, snap)
	}
	return updated
}

// ratio returns numerator/denominator as a percentage, or nil when either the
// numerator is unknown or the denominator is zero.
func ratio(numerator *int, denominator int) *float64 {
	if numerator == nil || denominator == 0 {
		return nil
	}
	r := float64(*numerator) / float64(denominator) * 100
	return &r
}
