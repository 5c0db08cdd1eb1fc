// Package provider defines the storage backend interfaces for the persisted
// facility layer and the events-by-day table.
package provider

import (
	"context"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// FacilityStore is the persisted facility feature layer. The pipeline reads
// the full extent at run start and writes back record-by-record at the
// relevant step; there is no streaming model.
type FacilityStore interface {
	// Facilities returns the full current extent.
	Facilities(ctx context.Context) ([]types.FacilityRecord, error)

	// AddFacilities appends new facility records. Audit fields are populated
	// by the caller before the append.
	AddFacilities(ctx context.Context, recs []types.FacilityRecord) error

	// UpdateFacilities applies field-level updates to existing records,
	// matched by UniqueID.
	UpdateFacilities(ctx context.Context, recs []types.FacilityRecord) error
}

// SnapshotStore is the persisted events-by-day table, keyed by calendar date
// with at most one row per date.
type SnapshotStore interface {
	// Snapshots returns the full history.
	Snapshots(ctx context.Context) ([]types.DailySnapshot, error)

	// AppendSnapshot adds the row for a new date.
	AppendSnapshot(ctx context.Context, snap types.DailySnapshot) error

	// UpdateSnapshots rewrites derived and case-fatality fields on existing
	// rows, matched by date.
	UpdateSnapshots(ctx context.Context, snaps []types.DailySnapshot) error
}

// Store combines both backends plus a connectivity check.
type Store interface {
	FacilityStore
	SnapshotStore
	Ping(ctx context.Context) error
}
