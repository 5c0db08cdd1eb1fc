// Package providertest provides shared conformance tests for provider.Store
// implementations. Call RunAll from a test function to verify a store
// satisfies the behavioral contract the sync engine depends on.
package providertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrc/ltcfsync/internal/provider"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// RunAll runs the complete store conformance suite as subtests.
func RunAll(t *testing.T, store provider.Store) {
	t.Helper()

	t.Run("Ping", func(t *testing.T) { TestPing(t, store) })
	t.Run("FacilityAddAndRead", func(t *testing.T) { TestFacilityAddAndRead(t, store) })
	t.Run("FacilityUpdate", func(t *testing.T) { TestFacilityUpdate(t, store) })
	t.Run("FacilityUpdateUnknownID", func(t *testing.T) { TestFacilityUpdateUnknownID(t, store) })
	t.Run("SnapshotAppendAndRead", func(t *testing.T) { TestSnapshotAppendAndRead(t, store) })
	t.Run("SnapshotUpdate", func(t *testing.T) { TestSnapshotUpdate(t, store) })
}

// TestPing verifies the store answers a liveness check.
func TestPing(t *testing.T, store provider.Store) {
	require.NoError(t, store.Ping(context.Background()))
}

// TestFacilityAddAndRead verifies inserted facilities come back intact.
func TestFacilityAddAndRead(t *testing.T, store provider.Store) {
	ctx := context.Background()

	notified := time.Date(2020, 5, 4, 0, 0, 0, 0, time.UTC)
	err := store.AddFacilities(ctx, []types.FacilityRecord{{
		UniqueID:         9001,
		FacilityName:     "Conformance Manor",
		City:             "Ogden",
		FacilityType:     "Nursing Home",
		Resolved:         "N",
		NotificationDate: &notified,
		PositivePatients: 2,
		DeceasedPatients: types.UnknownCount,
	}})
	require.NoError(t, err)

	got := findFacility(t, store, 9001)
	assert.Equal(t, "Conformance Manor", got.FacilityName)
	assert.Equal(t, types.Count(2), got.PositivePatients)
	assert.Equal(t, types.UnknownCount, got.DeceasedPatients)
	require.NotNil(t, got.NotificationDate)
	assert.True(t, got.NotificationDate.Equal(notified))
	assert.NotZero(t, got.ObjectID)
}

// TestFacilityUpdate verifies a field rewrite lands on the matched record.
func TestFacilityUpdate(t *testing.T, store provider.Store) {
	ctx := context.Background()

	require.NoError(t, store.AddFacilities(ctx, []types.FacilityRecord{{
		UniqueID: 9002, FacilityName: "Conformance Court", Resolved: "N", PositivePatients: 1,
	}}))

	rec := findFacility(t, store, 9002)
	rec.Resolved = "Y"
	rec.PositivePatients = 6
	require.NoError(t, store.UpdateFacilities(ctx, []types.FacilityRecord{rec}))

	got := findFacility(t, store, 9002)
	assert.Equal(t, "Y", got.Resolved)
	assert.Equal(t, types.Count(6), got.PositivePatients)
	assert.Equal(t, rec.ObjectID, got.ObjectID)
}

// TestFacilityUpdateUnknownID verifies updates for unknown IDs are dropped
// rather than inserted.
func TestFacilityUpdateUnknownID(t *testing.T, store provider.Store) {
	ctx := context.Background()

	before, err := store.Facilities(ctx)
	require.NoError(t, err)

	require.NoError(t, store.UpdateFacilities(ctx, []types.FacilityRecord{{
		UniqueID: 999999, FacilityName: "Ghost",
	}}))

	after, err := store.Facilities(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

// TestSnapshotAppendAndRead verifies an appended row comes back keyed by date.
func TestSnapshotAppendAndRead(t *testing.T, store provider.Store) {
	ctx := context.Background()

	day := time.Date(2020, 7, 15, 0, 0, 0, 0, time.UTC)
	delta := 3
	require.NoError(t, store.AppendSnapshot(ctx, types.DailySnapshot{
		Date:                day,
		TotalInvestigations: 140,
		TodayInvestigations: &delta,
	}))

	got := findSnapshot(t, store, day)
	assert.Equal(t, 140, got.TotalInvestigations)
	require.NotNil(t, got.TodayInvestigations)
	assert.Equal(t, 3, *got.TodayInvestigations)
}

// TestSnapshotUpdate verifies derived fields can be rewritten on an existing
// row without disturbing its identity.
func TestSnapshotUpdate(t *testing.T, store provider.Store) {
	ctx := context.Background()

	day := time.Date(2020, 7, 16, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendSnapshot(ctx, types.DailySnapshot{
		Date:                day,
		TotalInvestigations: 141,
	}))
	existing := findSnapshot(t, store, day)

	avg := 2.71
	cases := 28000
	updated := existing
	updated.TodayOutbreaks7DayAvg = &avg
	updated.UTCumulativeCases = &cases
	require.NoError(t, store.UpdateSnapshots(ctx, []types.DailySnapshot{updated}))

	got := findSnapshot(t, store, day)
	assert.Equal(t, existing.ObjectID, got.ObjectID)
	require.NotNil(t, got.TodayOutbreaks7DayAvg)
	assert.InDelta(t, 2.71, *got.TodayOutbreaks7DayAvg, 1e-9)
	require.NotNil(t, got.UTCumulativeCases)
	assert.Equal(t, 28000, *got.UTCumulativeCases)
}

func findFacility(t *testing.T, store provider.Store, uniqueID int) types.FacilityRecord {
	t.Helper()
	recs, err := store.Facilities(context.Background())
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.UniqueID == uniqueID {
			return rec
		}
	}
	t.Fatalf("facility %d not found", uniqueID)
	return types.FacilityRecord{}
}

func findSnapshot(t *testing.T, store provider.Store, day time.Time) types.DailySnapshot {
	t.Helper()
	snaps, err := store.Snapshots(context.Background())
	require.NoError(t, err)
	for _, snap := range snaps {
		if snap.Date.Equal(day) {
			return snap
		}
	}
	t.Fatalf("snapshot for %s not found", day.Format("2006-01-02"))
	return types.DailySnapshot{}
}
