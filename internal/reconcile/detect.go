// Package reconcile diffs an incoming update batch against the persisted
// facility set: it partitions out genuinely new facilities, applies the
// field-level comparison policy to existing ones, and recomputes the derived
// dashboard fields.
package reconcile

import "github.com/ugrc/ltcfsync/pkg/types"

// DetectNew partitions the batch into new and existing records. A record is
// new only when its UniqueID is absent from the persisted set AND greater than
// the current maximum persisted ID: identifiers are assigned monotonically, so
// an absent-but-smaller ID is treated as a data gap, never as an insert.
//
// New records get their unknown counters replaced with zero; a facility with
// no prior data is a known zero, not "not yet reported".
func DetectNew(updates []types.UpdateRecord, persisted []types.FacilityRecord) (newRecs, existing []types.UpdateRecord) {
	ids := make(map[int]bool, len(persisted))
	maxID := 0
	for _, rec := range persisted {
		ids[rec.UniqueID] = true
		if rec.UniqueID > maxID {
			maxID = rec.UniqueID
		}
	}

	for _, upd := range updates {
		if !ids[upd.UniqueID] && upd.UniqueID > maxID {
			upd.PositivePatients = upd.PositivePatients.OrZero()
			upd.DeceasedPatients = upd.DeceasedPatients.OrZero()
			upd.PositiveHCWs = upd.PositiveHCWs.OrZero()
			newRecs = append(newRecs, upd)
		} else {
			existing = append(existing, upd)
		}
	}
	return newRecs, existing
}
