package reconcile

import (
	"log/slog"

	"github.com/ugrc/ltcfsync/internal/metrics"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// Reconcile applies the update batch to the persisted facility set. For each
// persisted record it finds the matching update by UniqueID, runs the field
// policy table, and always recomputes the derived dashboard fields from the
// incoming values, whether or not a raw field changed.
//
// Records without a UniqueID and records with no matching update are skipped:
// logged and left untouched, never an error. The returned slice holds only the
// records that differ from their persisted state; the changelog counts raw
// field changes for the audit report.
func Reconcile(persisted []types.FacilityRecord, updates []types.UpdateRecord, schema types.SchemaConfig, logger *slog.Logger) ([]types.FacilityRecord, *Changelog) {
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[int]types.UpdateRecord, len(updates))
	for _, u := range updates {
		byID[u.UniqueID] = u // duplicate UniqueID: last occurrence wins
	}

	table := policies(schema)
	log := NewChangelog()
	var mutated []types.FacilityRecord

	for _, orig := range persisted {
		if orig.UniqueID == 0 {
			logger.Warn("facility without UniqueID, skipping", "name", orig.FacilityName)
			metrics.RecordsSkipped.Add(1)
			continue
		}
		upd, ok := byID[orig.UniqueID]
		if !ok {
			logger.Debug("no update row for facility", "uniqueID", orig.UniqueID)
			metrics.RecordsSkipped.Add(1)
			continue
		}

		rec := orig
		changed := false
		for _, p := range table {
			if p.apply(&rec, upd) {
				log.record(p.name, rec.UniqueID)
				metrics.FieldChanges.Add(1)
				changed = true
			}
		}
		if changed {
			log.Changed = append(log.Changed, rec.UniqueID)
		}

		derive(&rec, upd, logger)

		if rec != orig {
			mutated = append(mutated, rec)
		}
	}

	return mutated, log
}

// derive recomputes the description bucket, dashboard display flag, and
// dashboard sort category from the incoming counters. An input combination no
// bucket rule covers is a data-quality warning: logged, prior value kept, run
// continues.
func derive(rec *types.FacilityRecord, upd types.UpdateRecord, logger *slog.Logger) {
	bucket, ok := types.BucketFor(upd.PositivePatients, upd.PositiveHCWs)
	if ok {
		rec.PositivePatientsDesc = bucket
		rec.DashboardDisplayCat = bucket.Rank()
	} else {
		metrics.DataQualityWarnings.Add(1)
		logger.Warn("unable to classify facility counters",
			"uniqueID", rec.UniqueID,
			"positivePatients", int(upd.PositivePatients),
			"positiveHCWs", int(upd.PositiveHCWs),
			"currentDesc", string(rec.PositivePatientsDesc),
		)
	}

	rec.DashboardDisplay = types.DashboardDisplay(
		upd.FacilityType, upd.PositivePatients, upd.PositiveHCWs, rec.Resolved)
}
