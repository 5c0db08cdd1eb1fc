package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrc/ltcfsync/pkg/types"
)

func day(n int) time.Time {
	return time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func fac(facType string, resolved string, patients, deceased, hcws types.Count, bucket types.DescBucket) types.FacilityRecord {
	return types.FacilityRecord{
		UniqueID:             1,
		FacilityType:         facType,
		Resolved:             resolved,
		PositivePatients:     patients,
		DeceasedPatients:     deceased,
		PositiveHCWs:         hcws,
		PositivePatientsDesc: bucket,
		DashboardDisplayCat:  bucket.Rank(),
	}
}

func TestBuildSnapshot(t *testing.T) {
	recs := []types.FacilityRecord{
		fac("Nursing Home", "N", 25, 3, 2, types.BucketMoreThanTwenty),
		fac("Assisted Living", "N", 7, 0, 1, types.BucketFiveToTen),
		fac("Assisted Living", "Y", 2, 0, 0, types.BucketOneToFour),
		fac("Intermed Care/Intel Disabled", "N", 0, 0, 0, types.BucketZeroCases),
		fac("Hospital", "N", 50, 10, 5, types.BucketMoreThanTwenty), // not allow-listed
		fac("Nursing Home", "N", 0, 0, 3, types.BucketNoResidentCases),
	}

	snap := BuildSnapshot(recs, time.Date(2020, 6, 15, 14, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), snap.Date)
	assert.Equal(t, 5, snap.TotalInvestigations)
	assert.Equal(t, 4, snap.TotalOutbreaks) // every non-zero bucket
	assert.Equal(t, 1, snap.TotalOutbreaksResolved)
	assert.Equal(t, 34, snap.TotalPositiveResidents)
	assert.Equal(t, 3, snap.TotalDeceasedResidents)
	assert.Equal(t, 6, snap.TotalPositiveHCWs)

	// Resolved outbreaks don't count toward the active buckets.
	assert.Equal(t, 1, snap.TodayCountMoreThan20)
	assert.Equal(t, 1, snap.TodayCount5To10)
	assert.Equal(t, 0, snap.TodayCount1To4)
	assert.Equal(t, 1, snap.TodayCountNoResCases)
	assert.Equal(t, 3, snap.TodayFacilitiesActiveCases)
}

func TestRecomputeDeltaClamping(t *testing.T) {
	series := []types.DailySnapshot{
		{Date: day(0), TotalPositiveResidents: 10},
		{Date: day(1), TotalPositiveResidents: 14},
		{Date: day(2), TotalPositiveResidents: 12}, // back-filled correction
		{Date: day(3), TotalPositiveResidents: 12},
	}

	out := Recompute(series)
	require.Len(t, out, 4)

	assert.Nil(t, out[0].TodayPositiveResidents) // no previous day
	require.NotNil(t, out[1].TodayPositiveResidents)
	assert.Equal(t, 4, *out[1].TodayPositiveResidents)
	require.NotNil(t, out[2].TodayPositiveResidents)
	assert.Equal(t, 0, *out[2].TodayPositiveResidents) // clamped, not -2
	require.NotNil(t, out[3].TodayPositiveResidents)
	assert.Equal(t, 0, *out[3].TodayPositiveResidents)
}

func TestRecomputeSortsAscending(t *testing.T) {
	series := []types.DailySnapshot{
		{Date: day(1), TotalOutbreaks: 5},
		{Date: day(0), TotalOutbreaks: 3},
	}
	out := Recompute(series)
	assert.Equal(t, day(0), out[0].Date)
	require.NotNil(t, out[1].TodayOutbreaks)
	assert.Equal(t, 2, *out[1].TodayOutbreaks)
}

func TestRecomputeRollingRequiresSevenPoints(t *testing.T) {
	var series []types.DailySnapshot
	for i := 0; i < 9; i++ {
		series = append(series, types.DailySnapshot{
			Date:                       day(i),
			TodayFacilitiesActiveCases: i + 1,
			TotalPositiveResidents:     10 * (i + 1),
		})
	}

	out := Recompute(series)

	// Fewer than seven points: undefined, not a partial average.
	for i := 0; i < 6; i++ {
		assert.Nil(t, out[i].TodayFacActiveCases7DayAvg, "index %d", i)
		assert.Nil(t, out[i].TotalPositiveRes7DayAvg, "index %d", i)
	}
	require.NotNil(t, out[6].TodayFacActiveCases7DayAvg)
	assert.InDelta(t, 4.0, *out[6].TodayFacActiveCases7DayAvg, 1e-9) // mean(1..7)
	require.NotNil(t, out[8].TodayFacActiveCases7DayAvg)
	assert.InDelta(t, 6.0, *out[8].TodayFacActiveCases7DayAvg, 1e-9) // mean(3..9)
}

func TestRecomputeRollingOverDeltasSkipsUndefinedWindow(t *testing.T) {
	var series []types.DailySnapshot
	for i := 0; i < 8; i++ {
		series = append(series, types.DailySnapshot{
			Date:                   day(i),
			TotalPositiveResidents: 7 * i,
		})
	}

	out := Recompute(series)

	// The day-0 delta is undefined, so the first rolling window over the
	// delta series (days 0-6) is undefined too; day 7 is the first defined
	// average.
	assert.Nil(t, out[6].TodayPositiveRes7DayAvg)
	require.NotNil(t, out[7].TodayPositiveRes7DayAvg)
	assert.InDelta(t, 7.0, *out[7].TodayPositiveRes7DayAvg, 1e-9)
}

func TestRecomputeEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Recompute(nil))

	out := Recompute([]types.DailySnapshot{{Date: day(0), TotalOutbreaks: 3}})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].TodayOutbreaks)
	assert.Nil(t, out[0].TotalPositiveRes7DayAvg)
}
