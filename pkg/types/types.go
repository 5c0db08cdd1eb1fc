// Package types defines the public domain types for the LTCF feature-layer
// sync pipeline.
package types

import "time"

// GeocodeStatus records the outcome of geocoding a new facility's address.
type GeocodeStatus string

// GeocodeStatus values enumerate the geocoding outcomes for a pending insert.
const (
	GeocodePending   GeocodeStatus = ""
	GeocodeSucceeded GeocodeStatus = "succeeded"
	GeocodeFailed    GeocodeStatus = "failed"
)

// FacilityRecord is one long-term-care facility as persisted in the hosted
// feature layer. UniqueID is stable and immutable once assigned; all incoming
// batches reference a facility by it.
type FacilityRecord struct {
	ObjectID     int
	UniqueID     int
	FacilityName string
	Address      string
	City         string
	ZIPCode      string
	FacilityType string
	LHD          string

	Resolved         string // "Y" or "N"
	DateResolved     *time.Time
	NotificationDate *time.Time
	LastPosResident  *time.Time

	Longitude float64
	Latitude  float64

	PositivePatients Count
	DeceasedPatients Count
	PositiveHCWs     Count

	// Derived fields, recomputed on every reconciliation pass.
	PositivePatientsDesc DescBucket
	DashboardDisplay     string
	DashboardDisplayCat  int

	CreationDate *time.Time
	Creator      string
	EditDate     *time.Time
	Editor       string
}

// UpdateRecord is one row of the incoming spreadsheet batch. It carries the
// input-bearing facility fields plus transient geocoding state, and exists
// only for the duration of a run.
type UpdateRecord struct {
	UniqueID     int
	FacilityName string
	Address      string
	City         string
	ZIPCode      string
	FacilityType string
	LHD          string

	Resolved         string
	DateResolved     *time.Time
	NotificationDate *time.Time
	LastPosResident  *time.Time

	PositivePatients Count
	DeceasedPatients Count
	PositiveHCWs     Count

	// Transient insert-path state, never persisted.
	Status GeocodeStatus
	X      float64
	Y      float64
}

// DailySnapshot is one row of the events-by-day table: cumulative totals as of
// a calendar date plus derived deltas and rolling averages. Delta and rolling
// fields are pointers because they are undefined for early rows (no previous
// day, or fewer than seven points in the window).
type DailySnapshot struct {
	ObjectID int
	Date     time.Time

	TotalInvestigations    int
	TotalOutbreaks         int
	TotalOutbreaksResolved int
	TotalPositiveResidents int
	TotalDeceasedResidents int
	TotalPositiveHCWs      int

	TodayFacilitiesActiveCases int
	TodayCountMoreThan20       int
	TodayCount11To20           int
	TodayCount5To10            int
	TodayCount1To4             int
	TodayCountNoResCases       int

	// Same-day deltas derived from the cumulative series, clamped at zero.
	TodayInvestigations    *int
	TodayOutbreaks         *int
	TodayOutbreaksResolved *int
	TodayPositiveResidents *int
	TodayDeceasedResidents *int
	TodayPositiveHCWs      *int

	// Seven-day rolling averages.
	TodayFacActiveCases7DayAvg *float64
	TodayOutbreaks7DayAvg      *float64
	TodayOutbreaksRes7DayAvg   *float64
	TotalPositiveRes7DayAvg    *float64
	TotalDeceasedRes7DayAvg    *float64
	TotalPositiveHCWs7DayAvg   *float64
	TodayPositiveRes7DayAvg    *float64
	TodayDeceasedRes7DayAvg    *float64
	TodayPositiveHCWs7DayAvg   *float64
	FacMoreThan207DayAvg       *float64
	Fac11To207DayAvg           *float64
	Fac5To107DayAvg            *float64
	Fac1To47DayAvg             *float64
	FacNoResCases7DayAvg       *float64

	// Case-fatality fields, populated by the joiner step.
	UTCumulativeCases        *int
	UTCumulativeDeaths       *int
	ResidentCumulativeDeaths *int
	LTCFDeathRatio           *float64
	UTDeathRatio             *float64
}

// Day reduces a timestamp to its calendar date, pinned to UTC midnight.
// Snapshot rows are keyed by calendar date, and every other date source in
// the pipeline (parsed spreadsheet cells, epoch-millis round trips through
// the feature service) already lands on UTC midnight; keying local midnights
// would make same-day rows unequal on any non-UTC machine.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
