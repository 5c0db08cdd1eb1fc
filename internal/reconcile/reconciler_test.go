package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrc/ltcfsync/pkg/types"
)

var schema = types.SchemaConfig{LastPosResident: true}

func facility(id int, patients, hcws types.Count) types.FacilityRecord {
	return types.FacilityRecord{
		UniqueID:             id,
		FacilityName:         "Facility",
		FacilityType:         "Nursing Home",
		Resolved:             "N",
		PositivePatients:     patients,
		DeceasedPatients:     0,
		PositiveHCWs:         hcws,
		PositivePatientsDesc: types.BucketZeroCases,
		DashboardDisplay:     "N",
		DashboardDisplayCat:  types.ZeroCasesRank,
	}
}

func update(id int, patients, hcws types.Count) types.UpdateRecord {
	return types.UpdateRecord{
		UniqueID:         id,
		FacilityName:     "Facility",
		FacilityType:     "Nursing Home",
		Resolved:         "N",
		PositivePatients: patients,
		DeceasedPatients: 0,
		PositiveHCWs:     hcws,
	}
}

func TestDetectNewMonotonicGate(t *testing.T) {
	persisted := []types.FacilityRecord{
		facility(100, 0, 0),
		facility(250, 0, 0),
	}
	updates := []types.UpdateRecord{
		update(100, 1, 0), // existing
		update(180, 1, 0), // absent but below max: a gap, not an insert
		update(251, types.UnknownCount, 0),
		update(300, 2, 0),
	}

	newRecs, existing := DetectNew(updates, persisted)
	require.Len(t, newRecs, 2)
	assert.Equal(t, 251, newRecs[0].UniqueID)
	assert.Equal(t, 300, newRecs[1].UniqueID)
	// Unknown counters on brand-new facilities become known zeros.
	assert.Equal(t, types.Count(0), newRecs[0].PositivePatients)

	require.Len(t, existing, 2)
	assert.Equal(t, 100, existing[0].UniqueID)
	assert.Equal(t, 180, existing[1].UniqueID)
}

func TestReconcileAppliesChangesAndChangelog(t *testing.T) {
	persisted := []types.FacilityRecord{facility(100, 3, 0)}
	persisted[0].PositivePatientsDesc = types.BucketOneToFour
	persisted[0].DashboardDisplayCat = 4
	persisted[0].DashboardDisplay = "Y"

	updates := []types.UpdateRecord{update(100, 12, 2)}

	mutated, log := Reconcile(persisted, updates, schema, nil)
	require.Len(t, mutated, 1)
	rec := mutated[0]
	assert.Equal(t, types.Count(12), rec.PositivePatients)
	assert.Equal(t, types.Count(2), rec.PositiveHCWs)
	assert.Equal(t, types.BucketElevenToTwenty, rec.PositivePatientsDesc)
	assert.Equal(t, 2, rec.DashboardDisplayCat)
	assert.Equal(t, "Y", rec.DashboardDisplay)

	assert.Equal(t, 2, log.Total)
	assert.Equal(t, []int{100}, log.ByField[FieldPositivePatients])
	assert.Equal(t, []int{100}, log.ByField[FieldPositiveHCWs])
	assert.Equal(t, []int{100}, log.Changed)
}

func TestReconcileIdempotent(t *testing.T) {
	persisted := []types.FacilityRecord{facility(100, 3, 0)}
	updates := []types.UpdateRecord{update(100, 12, types.UnknownCount)}

	first, log1 := Reconcile(persisted, updates, schema, nil)
	require.Len(t, first, 1)
	require.NotZero(t, log1.Total)

	second, log2 := Reconcile(first, updates, schema, nil)
	assert.Empty(t, second)
	assert.Zero(t, log2.Total)
}

func TestReconcileSentinelReset(t *testing.T) {
	persisted := []types.FacilityRecord{facility(100, 9, 0)}
	updates := []types.UpdateRecord{update(100, types.UnknownCount, 0)}

	mutated, log := Reconcile(persisted, updates, schema, nil)
	require.Len(t, mutated, 1)
	assert.Equal(t, types.Count(0), mutated[0].PositivePatients)
	assert.Equal(t, 1, log.Total)
}

func TestReconcileKnownZeroSurvivesUnknown(t *testing.T) {
	persisted := []types.FacilityRecord{facility(100, 0, 0)}
	updates := []types.UpdateRecord{update(100, types.UnknownCount, types.UnknownCount)}

	mutated, log := Reconcile(persisted, updates, schema, nil)
	assert.Empty(t, mutated)
	assert.Zero(t, log.Total)
}

func TestReconcileSkipsUnmatchedAndMissingID(t *testing.T) {
	persisted := []types.FacilityRecord{
		facility(100, 3, 0),
		{FacilityName: "No ID Assigned Yet"}, // UniqueID zero: skipped
	}
	updates := []types.UpdateRecord{update(999, 5, 0)} // matches nothing

	mutated, log := Reconcile(persisted, updates, schema, nil)
	assert.Empty(t, mutated)
	assert.Zero(t, log.Total)
}

func TestReconcileDerivedRecomputedWithoutRawChange(t *testing.T) {
	// Same counters, but the persisted derived fields are stale.
	persisted := []types.FacilityRecord{facility(100, 7, 0)}
	persisted[0].PositivePatientsDesc = types.BucketZeroCases
	persisted[0].DashboardDisplayCat = types.ZeroCasesRank
	persisted[0].DashboardDisplay = "N"

	updates := []types.UpdateRecord{update(100, 7, 0)}

	mutated, log := Reconcile(persisted, updates, schema, nil)
	require.Len(t, mutated, 1)
	assert.Zero(t, log.Total)
	assert.Equal(t, types.BucketFiveToTen, mutated[0].PositivePatientsDesc)
	assert.Equal(t, 3, mutated[0].DashboardDisplayCat)
	assert.Equal(t, "Y", mutated[0].DashboardDisplay)
}

func TestReconcileUnclassifiableKeepsPriorBucket(t *testing.T) {
	persisted := []types.FacilityRecord{facility(100, 3, 0)}
	persisted[0].PositivePatientsDesc = types.BucketOneToFour
	persisted[0].DashboardDisplayCat = 4

	updates := []types.UpdateRecord{update(100, -2, 1)}

	mutated, _ := Reconcile(persisted, updates, schema, nil)
	require.Len(t, mutated, 1)
	// Counter overwritten, but the bucket rule cannot classify -2: prior
	// derived values stay.
	assert.Equal(t, types.Count(-2), mutated[0].PositivePatients)
	assert.Equal(t, types.BucketOneToFour, mutated[0].PositivePatientsDesc)
	assert.Equal(t, 4, mutated[0].DashboardDisplayCat)
}

func TestReconcileDuplicateUpdateLastWins(t *testing.T) {
	persisted := []types.FacilityRecord{facility(100, 0, 0)}
	updates := []types.UpdateRecord{
		update(100, 4, 0),
		update(100, 15, 0),
	}

	mutated, _ := Reconcile(persisted, updates, schema, nil)
	require.Len(t, mutated, 1)
	assert.Equal(t, types.Count(15), mutated[0].PositivePatients)
	assert.Equal(t, types.BucketElevenToTwenty, mutated[0].PositivePatientsDesc)
}

func TestReconcileLastPosResident(t *testing.T) {
	d := time.Date(2020, 11, 2, 0, 0, 0, 0, time.UTC)
	persisted := []types.FacilityRecord{facility(100, 3, 0)}
	upd := update(100, 3, 0)
	upd.LastPosResident = &d

	mutated, log := Reconcile(persisted, []types.UpdateRecord{upd}, schema, nil)
	require.Len(t, mutated, 1)
	require.NotNil(t, mutated[0].LastPosResident)
	assert.Equal(t, d, *mutated[0].LastPosResident)
	assert.Equal(t, []int{100}, log.ByField[FieldLastPosResident])

	// Development-variant schema ignores the column entirely.
	mutated, log = Reconcile(persisted, []types.UpdateRecord{upd}, types.SchemaConfig{}, nil)
	assert.Empty(t, log.ByField[FieldLastPosResident])
	for _, m := range mutated {
		assert.Nil(t, m.LastPosResident)
	}
}
