// Package memory implements the store interfaces in process memory. It backs
// tests and dry runs, where a mutation pass must be observable without
// touching a live feature service.
package memory

import (
	"context"
	"sync"

	"github.com/ugrc/ltcfsync/internal/provider"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// Compile-time interface satisfaction check.
var _ provider.Store = (*Store)(nil)

// Store is an in-memory provider.Store.
type Store struct {
	mu         sync.Mutex
	nextOID    int
	facilities map[int]types.FacilityRecord // keyed by UniqueID
	snapshots  map[int64]types.DailySnapshot
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextOID:    1,
		facilities: make(map[int]types.FacilityRecord),
		snapshots:  make(map[int64]types.DailySnapshot),
	}
}

// Seed loads facilities without going through AddFacilities, preserving the
// records' own object IDs and audit fields.
func (s *Store) Seed(recs []types.FacilityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if rec.ObjectID >= s.nextOID {
			s.nextOID = rec.ObjectID + 1
		}
		s.facilities[rec.UniqueID] = rec
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Facilities returns a copy of every facility record.
func (s *Store) Facilities(_ context.Context) ([]types.FacilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]types.FacilityRecord, 0, len(s.facilities))
	for _, rec := range s.facilities {
		recs = append(recs, rec)
	}
	return recs, nil
}

// AddFacilities inserts records, assigning object IDs.
func (s *Store) AddFacilities(_ context.Context, recs []types.FacilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		rec.ObjectID = s.nextOID
		s.nextOID++
		s.facilities[rec.UniqueID] = rec
	}
	return nil
}

// UpdateFacilities overwrites records matched by UniqueID. Unknown IDs are
// ignored, mirroring the feature service's behavior for stale edits.
func (s *Store) UpdateFacilities(_ context.Context, recs []types.FacilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if _, ok := s.facilities[rec.UniqueID]; ok {
			s.facilities[rec.UniqueID] = rec
		}
	}
	return nil
}

// Snapshots returns a copy of every daily snapshot row.
func (s *Store) Snapshots(_ context.Context) ([]types.DailySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := make([]types.DailySnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// AppendSnapshot inserts the row for a new date.
func (s *Store) AppendSnapshot(_ context.Context, snap types.DailySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.ObjectID = s.nextOID
	s.nextOID++
	s.snapshots[snap.Date.Unix()] = snap
	return nil
}

// UpdateSnapshots overwrites rows matched by date.
func (s *Store) UpdateSnapshots(_ context.Context, snaps []types.DailySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		if cur, ok := s.snapshots[snap.Date.Unix()]; ok {
			snap.ObjectID = cur.ObjectID
			s.snapshots[snap.Date.Unix()] = snap
		}
	}
	return nil
}
