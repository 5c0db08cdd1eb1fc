package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ugrc/ltcfsync/internal/casefatality"
	"github.com/ugrc/ltcfsync/internal/geocode"
	"github.com/ugrc/ltcfsync/internal/provider/memory"
	"github.com/ugrc/ltcfsync/pkg/types"
)

const csvHeader = "ID,UniqueID,Facility_Name,Address,City,ZIP_Code,Facility_Type," +
	"Dashboard Facility Type,LHD,Resolved_Y_N,Date_Resolved,Notification_Date," +
	"Positive Patients,Deceased Patients,Positive HCWs,Positive Patient Description," +
	"Last Positive Resident,Notes"

// stubLocator resolves every address to a fixed point, or fails addresses
// listed in failStreets.
type stubLocator struct {
	failStreets map[string]bool
}

func (s *stubLocator) Locate(_ context.Context, street, _ string) (*geocode.Result, error) {
	if s.failStreets[street] {
		return nil, fmt.Errorf("%w: %s", geocode.ErrNoMatch, street)
	}
	return &geocode.Result{X: -111.9, Y: 40.76, Score: 92}, nil
}

// denyConfirmer declines every prompt.
type denyConfirmer struct{}

func (denyConfirmer) Confirm(string) (bool, error) { return false, nil }

func writeBatch(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "updates.csv")
	content := csvHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func batchRow(uniqueID int, name, positives string) string {
	return fmt.Sprintf("1,%d,%s,123 S Main St,Salt Lake City,84101,SNF,Nursing Home,Salt Lake,N,,3/15/2020,%s,0,0,,,",
		uniqueID, name, positives)
}

func testEngine(store *memory.Store, locator geocode.Locator, confirm Confirmer) *Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	pool := geocode.NewPool(locator, 2, logger)
	e := New(store, pool, confirm, "test@health.utah.gov", types.SchemaConfig{LastPosResident: true}, logger)
	e.now = func() time.Time { return time.Date(2020, 6, 10, 9, 30, 0, 0, time.UTC) }
	return e
}

func seedFacility(uniqueID int, name string, positives types.Count) types.FacilityRecord {
	rec := types.FacilityRecord{
		ObjectID:         uniqueID,
		UniqueID:         uniqueID,
		FacilityName:     name,
		FacilityType:     "Nursing Home",
		Resolved:         "N",
		PositivePatients: positives,
	}
	if bucket, ok := types.BucketFor(rec.PositivePatients, rec.PositiveHCWs); ok {
		rec.PositivePatientsDesc = bucket
		rec.DashboardDisplayCat = bucket.Rank()
	}
	rec.DashboardDisplay = types.DashboardDisplay(rec.FacilityType, rec.PositivePatients, rec.PositiveHCWs, rec.Resolved)
	return rec
}

func TestRunInsertsNewFacilities(t *testing.T) {
	store := memory.New()
	store.Seed([]types.FacilityRecord{seedFacility(100, "Alpha House", 2)})

	e := testEngine(store, &stubLocator{}, AutoConfirmer{})
	path := writeBatch(t,
		batchRow(100, "Alpha House", "2"),
		batchRow(250, "New Manor", "1"),
	)

	report, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.BatchSize)
	assert.Equal(t, 1, report.NewCount)
	assert.Len(t, report.Inserted, 1)
	assert.Empty(t, report.GeocodeFailures)
	assert.NotEmpty(t, report.RunID)

	recs, err := store.Facilities(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		if rec.UniqueID != 250 {
			continue
		}
		assert.Equal(t, "New Manor", rec.FacilityName)
		assert.Equal(t, -111.9, rec.Longitude)
		assert.Equal(t, 40.76, rec.Latitude)
		assert.Equal(t, "ltcfsync test@health.utah.gov", rec.Creator)
		assert.Equal(t, "ltcfsync test@health.utah.gov", rec.Editor)
		require.NotNil(t, rec.CreationDate)
		assert.Equal(t, types.BucketOneToFour, rec.PositivePatientsDesc)
	}
}

func TestRunGeocodeFailureSkipsInsert(t *testing.T) {
	store := memory.New()
	store.Seed([]types.FacilityRecord{seedFacility(100, "Alpha House", 2)})

	e := testEngine(store, &stubLocator{failStreets: map[string]bool{"123 S Main St": true}}, AutoConfirmer{})
	path := writeBatch(t, batchRow(250, "New Manor", "1"))

	report, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, report.Inserted)
	require.Len(t, report.GeocodeFailures, 1)
	assert.Equal(t, 250, report.GeocodeFailures[0].UniqueID)

	recs, err := store.Facilities(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRunDeclinedConfirmationMutatesNothing(t *testing.T) {
	store := memory.New()
	store.Seed([]types.FacilityRecord{seedFacility(100, "Alpha House", 2)})

	e := testEngine(store, &stubLocator{}, denyConfirmer{})
	path := writeBatch(t, batchRow(250, "New Manor", "1"))

	_, err := e.Run(context.Background(), path)
	require.ErrorIs(t, err, ErrAborted)

	recs, err := store.Facilities(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	snaps, err := store.Snapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestRunReconcilesAndRollsSnapshot(t *testing.T) {
	store := memory.New()
	store.Seed([]types.FacilityRecord{
		seedFacility(100, "Alpha House", 2),
		seedFacility(101, "Bravo House", 0),
	})

	e := testEngine(store, &stubLocator{}, AutoConfirmer{})
	path := writeBatch(t,
		batchRow(100, "Alpha House", "6"), // 2 -> 6: field change, bucket move
		batchRow(101, "Bravo House", "0"),
	)

	report, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, report.NewCount)
	assert.Equal(t, 1, report.Updated)
	require.NotNil(t, report.Changelog)
	assert.Equal(t, 1, report.Changelog.Total)

	recs, err := store.Facilities(context.Background())
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.UniqueID == 100 {
			assert.Equal(t, types.Count(6), rec.PositivePatients)
			assert.Equal(t, types.BucketFiveToTen, rec.PositivePatientsDesc)
			assert.Equal(t, "ltcfsync test@health.utah.gov", rec.Editor)
		}
	}

	snaps, err := store.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	snap := snaps[0]
	assert.Equal(t, time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC), snap.Date)
	assert.Equal(t, 2, snap.TotalInvestigations)
	assert.Equal(t, 1, snap.TotalOutbreaks)
	assert.Equal(t, 6, snap.TotalPositiveResidents)
	// First row of the series: deltas undefined.
	assert.Nil(t, snap.TodayInvestigations)
	assert.Equal(t, snap, report.Snapshot)
}

func TestRunSnapshotKeyedByCalendarDateOnLocalClock(t *testing.T) {
	store := memory.New()
	store.Seed([]types.FacilityRecord{seedFacility(100, "Alpha House", 2)})

	e := testEngine(store, &stubLocator{}, AutoConfirmer{})
	// Run clock in Mountain Time: the snapshot key must still be the UTC
	// midnight of the same calendar date, or the derived write-back misses
	// the row it just appended.
	mountain := time.FixedZone("MDT", -6*60*60)
	e.now = func() time.Time { return time.Date(2020, 6, 10, 18, 45, 0, 0, mountain) }

	report, err := e.Run(context.Background(), writeBatch(t, batchRow(100, "Alpha House", "2")))
	require.NoError(t, err)

	snaps, err := store.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Date.Equal(time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC)))
	// Derived fields written back onto the appended row and surfaced.
	assert.False(t, report.Snapshot.Date.IsZero())
	assert.Equal(t, snaps[0], report.Snapshot)
}

func TestRunIdempotentSecondPass(t *testing.T) {
	store := memory.New()
	store.Seed([]types.FacilityRecord{seedFacility(100, "Alpha House", 2)})

	e := testEngine(store, &stubLocator{}, AutoConfirmer{})
	path := writeBatch(t, batchRow(100, "Alpha House", "6"))

	first, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Changelog.Total)
}

func TestRunMalformedBatchFailsBeforeStoreAccess(t *testing.T) {
	store := memory.New()
	e := testEngine(store, &stubLocator{}, denyConfirmer{})

	path := writeBatch(t, batchRow(100, "Alpha House", "not-a-number"))

	_, err := e.Run(context.Background(), path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAborted)
}

func TestBackfillRewritesWholeSeries(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		require.NoError(t, store.AppendSnapshot(ctx, types.DailySnapshot{
			Date:                time.Date(2020, 6, 1+i, 0, 0, 0, 0, time.UTC),
			TotalInvestigations: 100 + i,
		}))
	}

	e := testEngine(store, &stubLocator{}, AutoConfirmer{})
	n, err := e.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	snaps, err := store.Snapshots(ctx)
	require.NoError(t, err)
	sorted := SortedByDate(snaps)
	// Cumulative series grows by one per day: deltas of 1 after the first row.
	assert.Nil(t, sorted[0].TodayInvestigations)
	require.NotNil(t, sorted[1].TodayInvestigations)
	assert.Equal(t, 1, *sorted[1].TodayInvestigations)
	// Rolling average over the level series defined from the seventh point.
	assert.Nil(t, sorted[5].TodayFacActiveCases7DayAvg)
	require.NotNil(t, sorted[6].TodayFacActiveCases7DayAvg)
}

func TestCaseFatalityWritesMatchingRows(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.AppendSnapshot(ctx, types.DailySnapshot{
		Date:                   time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		TotalPositiveResidents: 50,
	}))
	require.NoError(t, store.AppendSnapshot(ctx, types.DailySnapshot{
		Date:                   time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalPositiveResidents: 80,
	}))

	path := filepath.Join(t.TempDir(), "Case_Fatality_Rates.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", casefatality.StatewideSheet))
	_, err := f.NewSheet(casefatality.ResidentSheet)
	require.NoError(t, err)
	for i, row := range [][]interface{}{
		{"date", "Cumulative_cases", "Cumulative_deaths"},
		{"4/1/2020", 1000, 20},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(casefatality.StatewideSheet, cell, &row))
	}
	for i, row := range [][]interface{}{
		{"date", "LTCF_Daily_Deaths", "LTCF_Cumulative_Deaths"},
		{"4/1/2020", 5, 5},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(casefatality.ResidentSheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	e := testEngine(store, &stubLocator{}, AutoConfirmer{})
	n, err := e.CaseFatality(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snaps, err := store.Snapshots(ctx)
	require.NoError(t, err)
	for _, snap := range snaps {
		if snap.Date.Month() == time.April {
			require.NotNil(t, snap.UTCumulativeCases)
			assert.Equal(t, 1000, *snap.UTCumulativeCases)
			require.NotNil(t, snap.LTCFDeathRatio)
			assert.InDelta(t, 10.0, *snap.LTCFDeathRatio, 1e-9) // 5/50*100
			require.NotNil(t, snap.UTDeathRatio)
			assert.InDelta(t, 2.0, *snap.UTDeathRatio, 1e-9) // 20/1000*100
		} else {
			assert.Nil(t, snap.UTCumulativeCases)
		}
	}
}

func TestBackfillEmptySeries(t *testing.T) {
	e := testEngine(memory.New(), &stubLocator{}, AutoConfirmer{})
	n, err := e.Backfill(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
