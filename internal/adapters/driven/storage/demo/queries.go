// Package demo provides a ProfileQueries decorator that answers from a
// built-in sample dataset when the underlying store fails.
package demo

import (
	"context"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure Queries implements the interface.
var _ driven.ProfileQueries = (*Queries)(nil)

// Queries wraps a driven.ProfileQueries. Every failed call is logged and
// answered from the sample dataset instead; callers that track samples via
// driven.WithSampleTracking are told the data is not real.
type Queries struct {
	next   driven.ProfileQueries
	sample *memory.ProfileStore
}

// NewQueries wraps next with the sample fallback.
func NewQueries(next driven.ProfileQueries) *Queries {
	sample := memory.NewProfileStore()
	if _, err := sample.InsertProfiles(context.Background(), SampleProfiles(), 0); err != nil {
		// SampleProfiles is static and valid.
		panic(err)
	}
	return &Queries{next: next, sample: sample}
}

func (q *Queries) substitute(ctx context.Context, op string, err error) {
	logger.Warn("profile store query failed, serving sample data", "query", op, "error", err)
	driven.MarkSampleServed(ctx)
}

// AverageMeasurement averages every stored value of a measurement array.
func (q *Queries) AverageMeasurement(ctx context.Context, m domain.Measurement) (domain.Aggregate, error) {
	agg, err := q.next.AverageMeasurement(ctx, m)
	if err == nil {
		return agg, nil
	}
	q.substitute(ctx, "average_measurement", err)
	return q.sample.AverageMeasurement(ctx, m)
}

// LatestProfiles returns the most recent profiles, newest first.
func (q *Queries) LatestProfiles(ctx context.Context, limit int) ([]domain.ProfileSummary, error) {
	profiles, err := q.next.LatestProfiles(ctx, limit)
	if err == nil {
		return profiles, nil
	}
	q.substitute(ctx, "latest_profiles", err)
	return q.sample.LatestProfiles(ctx, limit)
}

// DeepestFloats returns floats ordered by maximum pressure, deepest first.
func (q *Queries) DeepestFloats(ctx context.Context, limit int) ([]domain.FloatDepth, error) {
	depths, err := q.next.DeepestFloats(ctx, limit)
	if err == nil {
		return depths, nil
	}
	q.substitute(ctx, "deepest_floats", err)
	return q.sample.DeepestFloats(ctx, limit)
}

// CountProfiles counts distinct floats and profiles observed at or after since.
func (q *Queries) CountProfiles(ctx context.Context, since time.Time) (domain.Counts, error) {
	counts, err := q.next.CountProfiles(ctx, since)
	if err == nil {
		return counts, nil
	}
	q.substitute(ctx, "count_profiles", err)
	return q.sample.CountProfiles(ctx, since)
}

// LatestPositions returns one row per known float with its newest position.
func (q *Queries) LatestPositions(ctx context.Context) ([]domain.FloatPosition, error) {
	positions, err := q.next.LatestPositions(ctx)
	if err == nil {
		return positions, nil
	}
	q.substitute(ctx, "latest_positions", err)
	return q.sample.LatestPositions(ctx)
}

// ProfilesByInstrument returns every profile of a float, oldest first.
func (q *Queries) ProfilesByInstrument(ctx context.Context, instrumentID int64) ([]domain.Profile, error) {
	profiles, err := q.next.ProfilesByInstrument(ctx, instrumentID)
	if err == nil {
		return profiles, nil
	}
	q.substitute(ctx, "profiles_by_instrument", err)
	return q.sample.ProfilesByInstrument(ctx, instrumentID)
}
