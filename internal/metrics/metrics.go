// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	GeocodeRequests     = expvar.NewInt("geocode_requests")
	GeocodeFailures     = expvar.NewInt("geocode_failures")
	RecordsInserted     = expvar.NewInt("records_inserted")
	FieldChanges        = expvar.NewInt("field_changes")
	RecordsSkipped      = expvar.NewInt("records_skipped")
	DataQualityWarnings = expvar.NewInt("data_quality_warnings")
	SnapshotsAppended   = expvar.NewInt("snapshots_appended")
	SnapshotUpdates     = expvar.NewInt("snapshot_updates")
	CaseFatalityUpdates = expvar.NewInt("case_fatality_updates")
	RunsAborted         = expvar.NewInt("runs_aborted")
)
