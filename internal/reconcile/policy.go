package reconcile

import (
	"strings"
	"time"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// Audit field names used in the per-run changelog.
const (
	FieldResolved         = "Resolved_Y_N"
	FieldDateResolved     = "Date_Resolved"
	FieldPositivePatients = "Positive_Patients"
	FieldDeceasedPatients = "Deceased_Patients"
	FieldPositiveHCWs     = "Positive_HCWs"
	FieldLastPosResident  = "LastPos_Resident"
)

// Changelog accumulates the field changes applied during one reconciliation
// pass, for the operator audit report.
type Changelog struct {
	Total   int
	ByField map[string][]int // field name -> changed UniqueIDs
	Changed []int            // UniqueIDs with at least one field change
}

// NewChangelog creates an empty changelog.
func NewChangelog() *Changelog {
	return &Changelog{ByField: map[string][]int{}}
}

func (c *Changelog) record(field string, id int) {
	c.Total++
	c.ByField[field] = append(c.ByField[field], id)
}

// fieldPolicy applies one field's comparison/update rule to a persisted record
// given its matching update. It returns true when the persisted value changed.
// The policy set is data, not code: the schema variant selects which policies
// run.
type fieldPolicy struct {
	name  string
	apply func(f *types.FacilityRecord, u types.UpdateRecord) bool
}

// policies returns the reconciliation policy table for a schema variant.
func policies(schema types.SchemaConfig) []fieldPolicy {
	ps := []fieldPolicy{
		{FieldResolved, applyResolved},
		{FieldDateResolved, dateField(
			func(f *types.FacilityRecord) **time.Time { return &f.DateResolved },
			func(u types.UpdateRecord) *time.Time { return u.DateResolved },
		)},
		{FieldPositivePatients, countField(
			func(f *types.FacilityRecord) *types.Count { return &f.PositivePatients },
			func(u types.UpdateRecord) types.Count { return u.PositivePatients },
		)},
		{FieldDeceasedPatients, countField(
			func(f *types.FacilityRecord) *types.Count { return &f.DeceasedPatients },
			func(u types.UpdateRecord) types.Count { return u.DeceasedPatients },
		)},
		{FieldPositiveHCWs, countField(
			func(f *types.FacilityRecord) *types.Count { return &f.PositiveHCWs },
			func(u types.UpdateRecord) types.Count { return u.PositiveHCWs },
		)},
	}
	if schema.LastPosResident {
		ps = append(ps, fieldPolicy{FieldLastPosResident, dateField(
			func(f *types.FacilityRecord) **time.Time { return &f.LastPosResident },
			func(u types.UpdateRecord) *time.Time { return u.LastPosResident },
		)})
	}
	return ps
}

// applyResolved compares the case-normalized resolution flag.
func applyResolved(f *types.FacilityRecord, u types.UpdateRecord) bool {
	status := strings.ToUpper(strings.TrimSpace(u.Resolved))
	if f.Resolved == status {
		return false
	}
	f.Resolved = status
	return true
}

// reconcileCount applies the three-way sentinel rule:
//   - persisted 0, incoming unknown: known zero outlives "not reported".
//   - persisted non-zero, incoming unknown: the facility stopped reporting, so
//     the count resolves to zero.
//   - otherwise a differing incoming value overwrites.
func reconcileCount(cur, incoming types.Count) (types.Count, bool) {
	if cur == incoming {
		return cur, false
	}
	if incoming == types.UnknownCount {
		if cur == 0 {
			return cur, false
		}
		return 0, true
	}
	return incoming, true
}

func countField(get func(*types.FacilityRecord) *types.Count, from func(types.UpdateRecord) types.Count) func(*types.FacilityRecord, types.UpdateRecord) bool {
	return func(f *types.FacilityRecord, u types.UpdateRecord) bool {
		cur := get(f)
		next, changed := reconcileCount(*cur, from(u))
		*cur = next
		return changed
	}
}

// dateField overwrites on difference; a nil persisted date matched by a blank
// incoming cell is not a change.
func dateField(get func(*types.FacilityRecord) **time.Time, from func(types.UpdateRecord) *time.Time) func(*types.FacilityRecord, types.UpdateRecord) bool {
	return func(f *types.FacilityRecord, u types.UpdateRecord) bool {
		cur := get(f)
		incoming := from(u)
		if datesEqual(*cur, incoming) {
			return false
		}
		*cur = incoming
		return true
	}
}

func datesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
