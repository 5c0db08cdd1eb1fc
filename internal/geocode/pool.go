package geocode

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ugrc/ltcfsync/internal/metrics"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// Pool geocodes a batch of pending inserts with bounded concurrency. One
// record's failure never blocks the rest of the batch: the failed record is
// marked and surfaced, and the run decides what to do with it.
type Pool struct {
	locator Locator
	limit   int
	logger  *slog.Logger
}

// NewPool creates a worker pool over the given locator. A limit below one
// falls back to two workers.
func NewPool(locator Locator, limit int, logger *slog.Logger) *Pool {
	if limit < 1 {
		limit = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{locator: locator, limit: limit, logger: logger}
}

// GeocodeAll geocodes every record, attaching coordinates and a succeeded or
// failed status. Only context cancellation aborts the batch; service errors
// for individual addresses mark that record failed with a zero coordinate
// pair.
func (p *Pool) GeocodeAll(ctx context.Context, recs []types.UpdateRecord) ([]types.UpdateRecord, error) {
	out := make([]types.UpdateRecord, len(recs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			metrics.GeocodeRequests.Add(1)
			res, err := p.locator.Locate(ctx, rec.Address, rec.City)
			switch {
			case err == nil:
				rec.X = res.X
				rec.Y = res.Y
				rec.Status = types.GeocodeSucceeded
				p.logger.Debug("geocode match",
					"uniqueID", rec.UniqueID,
					"score", res.Score,
					"matchAddress", res.MatchAddress,
				)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				// No match, breaker open, or service error: per-record
				// failure, surfaced for manual follow-up.
				metrics.GeocodeFailures.Add(1)
				rec.X = 0
				rec.Y = 0
				rec.Status = types.GeocodeFailed
				p.logger.Warn("geocode failed",
					"uniqueID", rec.UniqueID,
					"address", rec.Address,
					"city", rec.City,
					"error", err,
				)
			}
			out[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
