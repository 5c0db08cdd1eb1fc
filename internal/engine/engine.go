// Package engine orchestrates a full reconciliation run: normalize the
// incoming batch, detect and geocode new facilities, confirm, insert,
// reconcile existing records, and roll the daily snapshot forward.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ugrc/ltcfsync/internal/aggregate"
	"github.com/ugrc/ltcfsync/internal/casefatality"
	"github.com/ugrc/ltcfsync/internal/geocode"
	"github.com/ugrc/ltcfsync/internal/metrics"
	"github.com/ugrc/ltcfsync/internal/normalize"
	"github.com/ugrc/ltcfsync/internal/provider"
	"github.com/ugrc/ltcfsync/internal/reconcile"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// Confirmer gates mutation phases on operator approval. "No" aborts the run
// before anything is written.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// AutoConfirmer approves every prompt. Used by --yes and by tests.
type AutoConfirmer struct{}

// Confirm always approves.
func (AutoConfirmer) Confirm(string) (bool, error) { return true, nil }

// ErrAborted reports an operator-declined confirmation. The store has not
// been mutated when this is returned.
var ErrAborted = fmt.Errorf("run aborted by operator")

// RunReport summarizes a completed (or aborted) run for the operator.
type RunReport struct {
	RunID   string
	Started time.Time
	Elapsed time.Duration

	BatchSize int
	NewCount  int

	Inserted        []types.UpdateRecord
	GeocodeFailures []types.UpdateRecord

	Changelog *reconcile.Changelog
	Updated   int

	Snapshot types.DailySnapshot
}

// Engine wires the pipeline stages together over a store.
type Engine struct {
	store    provider.Store
	pool     *geocode.Pool
	confirm  Confirmer
	logger   *slog.Logger
	identity string
	schema   types.SchemaConfig

	// now is replaceable for tests.
	now func() time.Time
}

// New creates an engine. A nil confirmer auto-approves.
func New(store provider.Store, pool *geocode.Pool, confirm Confirmer, identity string, schema types.SchemaConfig, logger *slog.Logger) *Engine {
	if confirm == nil {
		confirm = AutoConfirmer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		pool:     pool,
		confirm:  confirm,
		logger:   logger,
		identity: identity,
		schema:   schema,
		now:      time.Now,
	}
}

// Run executes the full pipeline against the CSV batch at path. Input
// malformation fails the run before any store access; an operator decline
// returns ErrAborted with zero store mutation.
func (e *Engine) Run(ctx context.Context, csvPath string) (*RunReport, error) {
	started := e.now()
	report := &RunReport{
		RunID:   newRunID(started),
		Started: started,
	}
	logger := e.logger.With("run_id", report.RunID)

	updates, err := normalize.LoadCSV(csvPath, e.schema)
	if err != nil {
		return nil, fmt.Errorf("loading batch: %w", err)
	}
	report.BatchSize = len(updates)
	logger.Info("batch loaded", "records", len(updates))

	persisted, err := e.store.Facilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying facility layer: %w", err)
	}

	newRecs, existing := reconcile.DetectNew(updates, persisted)
	report.NewCount = len(newRecs)

	if len(newRecs) > 0 {
		if err := e.insertNew(ctx, logger, report, newRecs); err != nil {
			return report, err
		}
	} else {
		ok, err := e.confirm.Confirm("No new facilities found. Continue to change detection?")
		if err != nil {
			return report, fmt.Errorf("reading confirmation: %w", err)
		}
		if !ok {
			metrics.RunsAborted.Add(1)
			return report, ErrAborted
		}
	}

	mutated, changelog := reconcile.Reconcile(persisted, existing, e.schema, logger)
	report.Changelog = changelog
	report.Updated = len(mutated)

	if len(mutated) > 0 {
		e.stampEdits(mutated)
		if err := e.store.UpdateFacilities(ctx, mutated); err != nil {
			return report, fmt.Errorf("writing reconciled records: %w", err)
		}
		logger.Info("records reconciled", "updated", len(mutated), "field_changes", changelog.Total)
	} else {
		logger.Info("no field changes detected")
	}

	if err := e.rollSnapshot(ctx, logger, report); err != nil {
		return report, err
	}

	report.Elapsed = e.now().Sub(started)
	logger.Info("run complete", "elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// insertNew geocodes the pending inserts, gates on confirmation, and writes
// the successes. Failures stay in the report for manual follow-up.
func (e *Engine) insertNew(ctx context.Context, logger *slog.Logger, report *RunReport, newRecs []types.UpdateRecord) error {
	logger.Info("new facilities detected", "count", len(newRecs))

	geocoded, err := e.pool.GeocodeAll(ctx, newRecs)
	if err != nil {
		return fmt.Errorf("geocoding new facilities: %w", err)
	}

	var pending []types.UpdateRecord
	for _, rec := range geocoded {
		if rec.Status == types.GeocodeFailed {
			report.GeocodeFailures = append(report.GeocodeFailures, rec)
			continue
		}
		pending = append(pending, rec)
	}

	prompt := fmt.Sprintf("Insert %d new facilities (%d geocode failures will be skipped)?",
		len(pending), len(report.GeocodeFailures))
	ok, err := e.confirm.Confirm(prompt)
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		metrics.RunsAborted.Add(1)
		return ErrAborted
	}

	if len(pending) == 0 {
		logger.Warn("no geocoded facilities to insert")
		return nil
	}

	now := e.now()
	recs := make([]types.FacilityRecord, 0, len(pending))
	for _, upd := range pending {
		recs = append(recs, e.newFacility(upd, now, logger))
	}
	if err := e.store.AddFacilities(ctx, recs); err != nil {
		return fmt.Errorf("inserting new facilities: %w", err)
	}
	metrics.RecordsInserted.Add(int64(len(recs)))
	report.Inserted = pending
	logger.Info("new facilities inserted", "count", len(recs))
	return nil
}

// newFacility builds the persisted record for a geocoded insert, with derived
// fields computed and the audit trail stamped.
func (e *Engine) newFacility(upd types.UpdateRecord, now time.Time, logger *slog.Logger) types.FacilityRecord {
	rec := types.FacilityRecord{
		UniqueID:         upd.UniqueID,
		FacilityName:     upd.FacilityName,
		Address:          upd.Address,
		City:             upd.City,
		ZIPCode:          upd.ZIPCode,
		FacilityType:     upd.FacilityType,
		LHD:              upd.LHD,
		Resolved:         upd.Resolved,
		DateResolved:     upd.DateResolved,
		NotificationDate: upd.NotificationDate,
		Longitude:        upd.X,
		Latitude:         upd.Y,
		PositivePatients: upd.PositivePatients.OrZero(),
		DeceasedPatients: upd.DeceasedPatients.OrZero(),
		PositiveHCWs:     upd.PositiveHCWs.OrZero(),
		CreationDate:     &now,
		Creator:          e.auditName(),
		EditDate:         &now,
		Editor:           e.auditName(),
	}
	if e.schema.LastPosResident {
		rec.LastPosResident = upd.LastPosResident
	}

	if bucket, ok := types.BucketFor(rec.PositivePatients, rec.PositiveHCWs); ok {
		rec.PositivePatientsDesc = bucket
		rec.DashboardDisplayCat = bucket.Rank()
	} else {
		metrics.DataQualityWarnings.Add(1)
		logger.Warn("unclassifiable case counts on insert", "unique_id", rec.UniqueID)
	}
	rec.DashboardDisplay = types.DashboardDisplay(rec.FacilityType, rec.PositivePatients, rec.PositiveHCWs, rec.Resolved)
	return rec
}

// rollSnapshot appends today's row, recomputes the derived series, and writes
// today's derived fields back.
func (e *Engine) rollSnapshot(ctx context.Context, logger *slog.Logger, report *RunReport) error {
	persisted, err := e.store.Facilities(ctx)
	if err != nil {
		return fmt.Errorf("querying facility layer for snapshot: %w", err)
	}

	today := types.Day(e.now())
	snap := aggregate.BuildSnapshot(persisted, today)
	if err := e.store.AppendSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("appending daily snapshot: %w", err)
	}
	metrics.SnapshotsAppended.Add(1)

	series, err := e.store.Snapshots(ctx)
	if err != nil {
		return fmt.Errorf("querying snapshot series: %w", err)
	}
	recomputed := aggregate.Recompute(series)

	for _, s := range recomputed {
		if s.Date.Equal(today) {
			if err := e.store.UpdateSnapshots(ctx, []types.DailySnapshot{s}); err != nil {
				return fmt.Errorf("writing derived snapshot fields: %w", err)
			}
			metrics.SnapshotUpdates.Add(1)
			report.Snapshot = s
			break
		}
	}
	logger.Info("daily snapshot rolled",
		"date", today.Format("2006-01-02"),
		"investigations", report.Snapshot.TotalInvestigations,
		"outbreaks", report.Snapshot.TotalOutbreaks)
	return nil
}

// CaseFatality loads the two-sheet workbook at path, joins the statewide and
// resident series, and writes the case-fatality fields onto every snapshot
// row with a matching date.
func (e *Engine) CaseFatality(ctx context.Context, workbookPath string) (int, error) {
	statewide, resident, err := casefatality.LoadWorkbook(workbookPath)
	if err != nil {
		return 0, fmt.Errorf("loading case-fatality workbook: %w", err)
	}
	joined := casefatality.Join(statewide, resident)

	series, err := e.store.Snapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("querying snapshot series: %w", err)
	}

	updated := casefatality.Apply(series, joined)
	if len(updated) == 0 {
		e.logger.Info("no snapshot rows matched the workbook dates")
		return 0, nil
	}

	if err := e.store.UpdateSnapshots(ctx, updated); err != nil {
		return 0, fmt.Errorf("writing case-fatality fields: %w", err)
	}
	metrics.CaseFatalityUpdates.Add(int64(len(updated)))
	e.logger.Info("case-fatality fields written", "rows", len(updated))
	return len(updated), nil
}

// Backfill rewrites derived fields for every snapshot row, repairing history
// appended before the derived series existed.
func (e *Engine) Backfill(ctx context.Context) (int, error) {
	series, err := e.store.Snapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("querying snapshot series: %w", err)
	}
	if len(series) == 0 {
		return 0, nil
	}

	recomputed := aggregate.Recompute(series)
	if err := e.store.UpdateSnapshots(ctx, recomputed); err != nil {
		return 0, fmt.Errorf("writing derived snapshot fields: %w", err)
	}
	metrics.SnapshotUpdates.Add(int64(len(recomputed)))
	return len(recomputed), nil
}

func (e *Engine) stampEdits(recs []types.FacilityRecord) {
	now := e.now()
	for i := range recs {
		recs[i].EditDate = &now
		recs[i].Editor = e.auditName()
	}
}

func (e *Engine) auditName() string {
	return "ltcfsync " + e.identity
}

// SortedByDate returns the snapshot series in ascending date order without
// mutating the input.
func SortedByDate(series []types.DailySnapshot) []types.DailySnapshot {
	out := make([]types.DailySnapshot, len(series))
	copy(out, series)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func newRunID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
