package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// DefaultBatchSize is the number of rows queued per batch round trip.
const DefaultBatchSize = 1000

// ProfileStore implements driven.ProfileStore and driven.ProfileQueries.
type ProfileStore struct {
	pool *pgxpool.Pool
}

var (
	_ driven.ProfileStore   = (*ProfileStore)(nil)
	_ driven.ProfileQueries = (*ProfileStore)(nil)
)

const insertProfile = `
	INSERT INTO argo_profiles (instrument_id, cycle_number, observed_at, time_source,
		latitude, longitude, pressure, temperature, salinity, geom, source_file)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, ST_SetSRID(ST_MakePoint($6, $5), 4326), $10)
`

var measurementColumns = map[domain.Measurement]string{
	domain.MeasurementPressure:    "pressure",
	domain.MeasurementTemperature: "temperature",
	domain.MeasurementSalinity:    "salinity",
}

// InsertProfiles sends profiles in batches of batchSize inside one transaction.
func (s *ProfileStore) InsertProfiles(ctx context.Context, profiles []domain.Profile, batchSize int) (int, error) {
	if len(profiles) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for i := range profiles {
		if err := profiles[i].Validate(); err != nil {
			return 0, fmt.Errorf("profile %d from %s: %w", i, profiles[i].SourceFile, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", classify(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for start := 0; start < len(profiles); start += batchSize {
		chunk := profiles[start:min(start+batchSize, len(profiles))]
		if err := sendChunk(ctx, tx, chunk); err != nil {
			return 0, fmt.Errorf("inserting profiles %d-%d: %w", start, start+len(chunk)-1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing profiles: %w", classify(err))
	}
	return len(profiles), nil
}

func sendChunk(ctx context.Context, tx pgx.Tx, chunk []domain.Profile) error {
	batch := &pgx.Batch{}
	for i := range chunk {
		p := &chunk[i]
		batch.Queue(insertProfile,
			nullInstrument(p.InstrumentID), p.CycleNumber, p.Timestamp.UTC(), string(p.TimeSource),
			p.Latitude, p.Longitude, p.Pressure, p.Temperature, p.Salinity, p.SourceFile)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunk {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return classify(err)
		}
	}
	return classify(results.Close())
}

// Close is a no-op; the owning Store closes the pool.
func (s *ProfileStore) Close() error {
	return nil
}

// AverageMeasurement averages every element of a measurement array.
func (s *ProfileStore) AverageMeasurement(ctx context.Context, m domain.Measurement) (domain.Aggregate, error) {
	col, ok := measurementColumns[m]
	if !ok {
		return domain.Aggregate{}, fmt.Errorf("%w: measurement %q", domain.ErrInvalidInput, m)
	}

	agg := domain.Aggregate{Measurement: m}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(v), COALESCE(AVG(v), 0) FROM argo_profiles, unnest(`+col+`) AS v`,
	).Scan(&agg.Samples, &agg.Mean)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("averaging %s: %w", m, classify(err))
	}
	return agg, nil
}

// LatestProfiles returns the newest profiles.
func (s *ProfileStore) LatestProfiles(ctx context.Context, limit int) ([]domain.ProfileSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT instrument_id, cycle_number, observed_at, time_source, latitude, longitude
		FROM argo_profiles
		ORDER BY observed_at DESC, id DESC
		LIMIT $1
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying latest profiles: %w", classify(err))
	}
	defer rows.Close()

	var out []domain.ProfileSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ps domain.ProfileSummary
		var instrument *int64
		var source string
		if err := rows.Scan(&instrument, &ps.CycleNumber, &ps.Timestamp, &source, &ps.Latitude, &ps.Longitude); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		if instrument != nil {
			ps.InstrumentID = *instrument
		}
		ps.Timestamp = ps.Timestamp.UTC()
		ps.TimeSource = domain.TimeSource(source)
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", classify(err))
	}
	return out, nil
}

// DeepestFloats returns known floats by maximum pressure.
func (s *ProfileStore) DeepestFloats(ctx context.Context, limit int) ([]domain.FloatDepth, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT instrument_id, MAX(v) AS max_depth
		FROM argo_profiles, unnest(pressure) AS v
		WHERE instrument_id IS NOT NULL
		GROUP BY instrument_id
		ORDER BY max_depth DESC, instrument_id ASC
		LIMIT $1
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying deepest floats: %w", classify(err))
	}
	defer rows.Close()

	var out []domain.FloatDepth //nolint:prealloc // size unknown from query
	for rows.Next() {
		var d domain.FloatDepth
		if err := rows.Scan(&d.InstrumentID, &d.MaxPressure); err != nil {
			return nil, fmt.Errorf("scanning float depth: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating float depths: %w", classify(err))
	}
	return out, nil
}

// CountProfiles counts profiles observed at or after since and their distinct floats.
func (s *ProfileStore) CountProfiles(ctx context.Context, since time.Time) (domain.Counts, error) {
	query := `SELECT COUNT(DISTINCT instrument_id), COUNT(*) FROM argo_profiles`
	var args []any
	if !since.IsZero() {
		query += ` WHERE observed_at >= $1`
		args = append(args, since.UTC())
	}

	var c domain.Counts
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&c.Floats, &c.Profiles); err != nil {
		return domain.Counts{}, fmt.Errorf("counting profiles: %w", classify(err))
	}
	return c, nil
}

// LatestPositions returns the newest position of each known float.
func (s *ProfileStore) LatestPositions(ctx context.Context) ([]domain.FloatPosition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (instrument_id) instrument_id, latitude, longitude, observed_at
		FROM argo_profiles
		WHERE instrument_id IS NOT NULL
		ORDER BY instrument_id, observed_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest positions: %w", classify(err))
	}
	defer rows.Close()

	var out []domain.FloatPosition //nolint:prealloc // size unknown from query
	for rows.Next() {
		var pos domain.FloatPosition
		if err := rows.Scan(&pos.InstrumentID, &pos.Latitude, &pos.Longitude, &pos.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		pos.Timestamp = pos.Timestamp.UTC()
		out = append(out, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating positions: %w", classify(err))
	}
	return out, nil
}

// ProfilesByInstrument returns every profile of a float, oldest first.
func (s *ProfileStore) ProfilesByInstrument(ctx context.Context, instrumentID int64) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, instrument_id, cycle_number, observed_at, time_source,
			latitude, longitude, pressure, temperature, salinity, source_file
		FROM argo_profiles
		WHERE instrument_id = $1
		ORDER BY observed_at ASC, id ASC
	`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("querying profiles of %d: %w", instrumentID, classify(err))
	}
	defer rows.Close()

	var out []domain.Profile //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Profile
		var source string
		if err := rows.Scan(&p.ID, &p.InstrumentID, &p.CycleNumber, &p.Timestamp, &source,
			&p.Latitude, &p.Longitude, &p.Pressure, &p.Temperature, &p.Salinity, &p.SourceFile); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		p.Timestamp = p.Timestamp.UTC()
		p.TimeSource = domain.TimeSource(source)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", classify(err))
	}
	return out, nil
}

func nullInstrument(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// sqlLimit maps a non-positive limit to NULL, which postgres reads as no limit.
func sqlLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
