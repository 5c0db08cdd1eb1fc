package types

// DescBucket is the derived positive-patient description category shown on the
// dashboard. Values match the labels stored in the hosted layer.
type DescBucket string

// DescBucket values enumerate the fixed description categories.
const (
	BucketZeroCases       DescBucket = "Zero cases"
	BucketOneToFour       DescBucket = "1 to 4"
	BucketFiveToTen       DescBucket = "5 to 10"
	BucketElevenToTwenty  DescBucket = "11 to 20"
	BucketMoreThanTwenty  DescBucket = "More than 20"
	BucketNoResidentCases DescBucket = "No Resident Cases"
)

// ZeroCasesRank is the sort rank for facilities with no cases; it sorts last.
const ZeroCasesRank = 9999

// BucketFor maps raw counters to a description bucket. The rules are evaluated
// in priority order; ok is false when no rule matches, which indicates
// malformed counter data and should be logged as a data-quality warning
// without halting the run.
func BucketFor(patients, hcws Count) (DescBucket, bool) {
	switch {
	case patients.Zeroish() && hcws.Zeroish():
		return BucketZeroCases, true
	case patients >= 21 && patients < UnknownCount:
		return BucketMoreThanTwenty, true
	case patients >= 11 && patients <= 20:
		return BucketElevenToTwenty, true
	case patients >= 5 && patients <= 10:
		return BucketFiveToTen, true
	case patients >= 1 && patients < 5:
		return BucketOneToFour, true
	case patients.Zeroish() && !hcws.Zeroish():
		return BucketNoResidentCases, true
	}
	return "", false
}

// Rank returns the dashboard sort key for a bucket. Smaller numbers sort
// first, so the most severe outbreaks lead the active-outbreak list.
func (b DescBucket) Rank() int {
	switch b {
	case BucketZeroCases:
		return ZeroCasesRank
	case BucketMoreThanTwenty:
		return 1
	case BucketElevenToTwenty:
		return 2
	case BucketFiveToTen:
		return 3
	case BucketOneToFour:
		return 4
	case BucketNoResidentCases:
		return 5
	}
	return ZeroCasesRank
}

// DashboardFacilityTypes is the allow-list of facility types eligible for the
// public dashboard display flag.
var DashboardFacilityTypes = map[string]bool{
	"Assisted Living":              true,
	"Nursing Home":                 true,
	"Intermed Care/Intel Disabled": true,
	"COVID-unit":                   true,
	"COVID-only":                   true,
}

// SnapshotFacilityTypes is the allow-list used when computing daily snapshot
// totals. Narrower than the dashboard list: COVID-unit and COVID-only
// facilities are excluded from the counts.
var SnapshotFacilityTypes = map[string]bool{
	"Nursing Home":                 true,
	"Assisted Living":              true,
	"Intermed Care/Intel Disabled": true,
}

// DashboardDisplay returns "Y" when a facility should appear on the dashboard:
// an allow-listed type with an active (unresolved) case among residents or
// health-care workers.
func DashboardDisplay(facilityType string, patients, hcws Count, resolved string) string {
	if !DashboardFacilityTypes[facilityType] {
		return "N"
	}
	if (!patients.Zeroish() || !hcws.Zeroish()) && resolved == "N" {
		return "Y"
	}
	return "N"
}
