package driven

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// ProfileParser decodes one binary profile file.
type ProfileParser interface {
	// Parse returns one raw record per profile in the file.
	// A file that cannot be used at all returns a *domain.ParseError.
	Parse(ctx context.Context, file domain.SourceFile) ([]domain.RawProfile, error)
}

// ProfileStore persists normalised profiles.
// The store is append-only: there is no update or delete path.
type ProfileStore interface {
	// InsertProfiles appends profiles in chunks of batchSize rows.
	// All rows are committed together or none are.
	InsertProfiles(ctx context.Context, profiles []domain.Profile, batchSize int) (int, error)

	// Close releases resources.
	Close() error
}

// ProfileQueries runs the read-only queries behind the router templates
// and the float catalogue.
type ProfileQueries interface {
	// AverageMeasurement averages every stored value of a measurement array.
	AverageMeasurement(ctx context.Context, m domain.Measurement) (domain.Aggregate, error)

	// LatestProfiles returns the most recent profiles, newest first.
	LatestProfiles(ctx context.Context, limit int) ([]domain.ProfileSummary, error)

	// DeepestFloats returns floats ordered by maximum pressure, deepest first.
	DeepestFloats(ctx context.Context, limit int) ([]domain.FloatDepth, error)

	// CountProfiles counts distinct floats and profiles observed at or after since.
	// A zero since counts everything.
	CountProfiles(ctx context.Context, since time.Time) (domain.Counts, error)

	// LatestPositions returns one row per known float with its newest position,
	// ordered by instrument id.
	LatestPositions(ctx context.Context) ([]domain.FloatPosition, error)

	// ProfilesByInstrument returns every profile of a float, oldest first.
	ProfilesByInstrument(ctx context.Context, instrumentID int64) ([]domain.Profile, error)
}

// Ledger is the durable record of successfully processed source files.
type Ledger interface {
	// Load returns every recorded file name.
	Load(ctx context.Context) (map[string]struct{}, error)

	// Append records a file name. Recording a name twice is a no-op.
	Append(ctx context.Context, name string) error
}

type sampleTrackerKey struct{}

// WithSampleTracking returns a context in which a ProfileQueries decorator can
// report that it served built-in sample data instead of store contents.
// The returned function reports whether any query in ctx did so.
func WithSampleTracking(ctx context.Context) (context.Context, func() bool) {
	served := new(atomic.Bool)
	return context.WithValue(ctx, sampleTrackerKey{}, served), served.Load
}

// MarkSampleServed records that sample data answered a query in ctx.
// It is a no-op when ctx carries no tracker.
func MarkSampleServed(ctx context.Context) {
	if served, ok := ctx.Value(sampleTrackerKey{}).(*atomic.Bool); ok {
		served.Store(true)
	}
}
