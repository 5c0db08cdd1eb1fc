// Package aggregate computes the daily snapshot totals and the derived
// delta/rolling series over the events-by-day history.
package aggregate

import (
	"sort"
	"time"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// BuildSnapshot scans the reconciled facility set and produces the cumulative
// totals for one calendar date. Only the snapshot facility-type allow-list
// counts; COVID-unit and COVID-only facilities are excluded from the daily
// numbers.
func BuildSnapshot(recs []types.FacilityRecord, date time.Time) types.DailySnapshot {
	snap := types.DailySnapshot{Date: types.Day(date)}

	for _, rec := range recs {
		if !types.SnapshotFacilityTypes[rec.FacilityType] {
			continue
		}
		snap.TotalInvestigations++
		if rec.DashboardDisplayCat != types.ZeroCasesRank {
			snap.TotalOutbreaks++
			if rec.Resolved == "Y" {
				snap.TotalOutbreaksResolved++
			}
		}
		snap.TotalPositiveResidents += int(rec.PositivePatients.OrZero())
		snap.TotalDeceasedResidents += int(rec.DeceasedPatients.OrZero())
		snap.TotalPositiveHCWs += int(rec.PositiveHCWs.OrZero())

		if rec.Resolved == "N" {
			switch rec.PositivePatientsDesc {
			case types.BucketMoreThanTwenty:
				snap.TodayCountMoreThan20++
			case types.BucketElevenToTwenty:
				snap.TodayCount11To20++
			case types.BucketFiveToTen:
				snap.TodayCount5To10++
			case types.BucketOneToFour:
				snap.TodayCount1To4++
			case types.BucketNoResidentCases:
				snap.TodayCountNoResCases++
			}
		}
	}

	snap.TodayFacilitiesActiveCases = snap.TodayCountMoreThan20 + snap.TodayCount11To20 +
		snap.TodayCount5To10 + snap.TodayCount1To4 + snap.TodayCountNoResCases
	return snap
}

// Recompute sorts the snapshot history ascending by date and fills in the
// derived series: same-day deltas from each cumulative counter, clamped at
// zero (a negative delta means back-filled corrections, never an actual
// decrease), and seven-day rolling averages. A rolling value is defined only
// when all seven window points exist.
func Recompute(series []types.DailySnapshot) []types.DailySnapshot {
	out := make([]types.DailySnapshot, len(series))
	copy(out, series)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	n := len(out)
	for i := range out {
		if i == 0 {
			continue
		}
		prev, cur := &out[i-1], &out[i]
		cur.TodayInvestigations = clampedDelta(prev.TotalInvestigations, cur.TotalInvestigations)
		cur.TodayOutbreaks = clampedDelta(prev.TotalOutbreaks, cur.TotalOutbreaks)
		cur.TodayOutbreaksResolved = clampedDelta(prev.TotalOutbreaksResolved, cur.TotalOutbreaksResolved)
		cur.TodayPositiveResidents = clampedDelta(prev.TotalPositiveResidents, cur.TotalPositiveResidents)
		cur.TodayDeceasedResidents = clampedDelta(prev.TotalDeceasedResidents, cur.TotalDeceasedResidents)
		cur.TodayPositiveHCWs = clampedDelta(prev.TotalPositiveHCWs, cur.TotalPositiveHCWs)
	}

	intCol := func(get func(*types.DailySnapshot) int) []*float64 {
		vals := make([]*float64, n)
		for i := range out {
			v := float64(get(&out[i]))
			vals[i] = &v
		}
		return vals
	}
	deltaCol := func(get func(*types.DailySnapshot) *int) []*float64 {
		vals := make([]*float64, n)
		for i := range out {
			if d := get(&out[i]); d != nil {
				v := float64(*d)
				vals[i] = &v
			}
		}
		return vals
	}

	for _, col := range []struct {
		vals []*float64
		set  func(*types.DailySnapshot, *float64)
	}{
		{intCol(func(s *types.DailySnapshot) int { return s.TodayFacilitiesActiveCases }),
			func(s *types.DailySnapshot, v *float64) { s.TodayFacActiveCases7DayAvg = v }},
		{deltaCol(func(s *types.DailySnapshot) *int { return s.TodayOutbreaks }),
			func(s *types.DailySnapshot, v *float64) { s.TodayOutbreaks7DayAvg = v }},
		{deltaCol(func(s *types.DailySnapshot) *int { return s.TodayOutbreaksResolved }),
			func(s *types.DailySnapshot, v *float64) { s.TodayOutbreaksRes7DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TotalPositiveResidents }),
			func(s *types.DailySnapshot, v *float64) { s.TotalPositiveRes7DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TotalDeceasedResidents }),
			func(s *types.DailySnapshot, v *float64) { s.TotalDeceasedRes7DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TotalPositiveHCWs }),
			func(s *types.DailySnapshot, v *float64) { s.TotalPositiveHCWs7DayAvg = v }},
		{deltaCol(func(s *types.DailySnapshot) *int { return s.TodayPositiveResidents }),
			func(s *types.DailySnapshot, v *float64) { s.TodayPositiveRes7DayAvg = v }},
		{deltaCol(func(s *types.DailySnapshot) *int { return s.TodayDeceasedResidents }),
			func(s *types.DailySnapshot, v *float64) { s.TodayDeceasedRes7DayAvg = v }},
		{deltaCol(func(s *types.DailySnapshot) *int { return s.TodayPositiveHCWs }),
			func(s *types.DailySnapshot, v *float64) { s.TodayPositiveHCWs7DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TodayCountMoreThan20 }),
			func(s *types.DailySnapshot, v *float64) { s.FacMoreThan207DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TodayCount11To20 }),
			func(s *types.DailySnapshot, v *float64) { s.Fac11To207DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TodayCount5To10 }),
			func(s *types.DailySnapshot, v *float64) { s.Fac5To107DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TodayCount1To4 }),
			func(s *types.DailySnapshot, v *float64) { s.Fac1To47DayAvg = v }},
		{intCol(func(s *types.DailySnapshot) int { return s.TodayCountNoResCases }),
			func(s *types.DailySnapshot, v *float64) { s.FacNoResCases7DayAvg = v }},
	} {
		avgs := rolling7(col.vals)
		for i := range out {
			col.set(&out[i], avgs[i])
		}
	}

	return out
}

func clampedDelta(prev, cur int) *int {
	d := cur - prev
	if d < 0 {
		d = 0
	}
	return &d
}

// rolling7 computes a seven-point trailing average (window includes the
// current point). The result is nil when fewer than seven points precede, or
// when any point in the window is itself undefined.
func rolling7(vals []*float64) []*float64 {
	const window = 7
	out := make([]*float64, len(vals))
	for i := range vals {
		if i < window-1 {
			continue
		}
		sum := 0.0
		defined := true
		for j := i - window + 1; j <= i; j++ {
			if vals[j] == nil {
				defined = false
				break
			}
			sum += *vals[j]
		}
		if defined {
			avg := sum / window
			out[i] = &avg
		}
	}
	return out
}
