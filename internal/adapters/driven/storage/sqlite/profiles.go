package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 1000

// ProfileStore implements driven.ProfileStore and driven.ProfileQueries
// over the argo_profiles table.
type ProfileStore struct {
	store *Store
}

var (
	_ driven.ProfileStore   = (*ProfileStore)(nil)
	_ driven.ProfileQueries = (*ProfileStore)(nil)
)

const profileColumns = `instrument_id, cycle_number, observed_at, time_source,
	latitude, longitude, pressure, temperature, salinity, geom, source_file`

// measurementColumns whitelists the array columns a query may aggregate.
var measurementColumns = map[domain.Measurement]string{
	domain.MeasurementPressure:    "pressure",
	domain.MeasurementTemperature: "temperature",
	domain.MeasurementSalinity:    "salinity",
}

// InsertProfiles writes profiles in multi-row INSERT statements of batchSize
// rows inside a single transaction.
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

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(profiles); start += batchSize {
		chunk := profiles[start:min(start+batchSize, len(profiles))]
		query, args, err := insertStatement(chunk)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("inserting profiles %d-%d: %w", start, start+len(chunk)-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing profiles: %w", err)
	}
	return len(profiles), nil
}

func insertStatement(chunk []domain.Profile) (string, []any, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO argo_profiles (")
	b.WriteString(profileColumns)
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(chunk)*11)
	for i := range chunk {
		p := &chunk[i]
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		pres, err := json.Marshal(p.Pressure)
		if err != nil {
			return "", nil, fmt.Errorf("encoding pressure: %w", err)
		}
		temp, err := json.Marshal(p.Temperature)
		if err != nil {
			return "", nil, fmt.Errorf("encoding temperature: %w", err)
		}
		sal, err := json.Marshal(p.Salinity)
		if err != nil {
			return "", nil, fmt.Errorf("encoding salinity: %w", err)
		}

		args = append(args,
			nullInstrument(p.InstrumentID), p.CycleNumber, formatTime(p.Timestamp), string(p.TimeSource),
			p.Latitude, p.Longitude, string(pres), string(temp), string(sal), p.Location(), p.SourceFile)
	}
	return b.String(), args, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *ProfileStore) Close() error {
	return nil
}

// AverageMeasurement averages every element of a measurement array across all profiles.
func (s *ProfileStore) AverageMeasurement(ctx context.Context, m domain.Measurement) (domain.Aggregate, error) {
	col, ok := measurementColumns[m]
	if !ok {
		return domain.Aggregate{}, fmt.Errorf("%w: measurement %q", domain.ErrInvalidInput, m)
	}

	agg := domain.Aggregate{Measurement: m}
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(j.value), COALESCE(AVG(j.value), 0)
		FROM argo_profiles p, json_each(p.`+col+`) j
	`)
	if err := row.Scan(&agg.Samples, &agg.Mean); err != nil {
		return domain.Aggregate{}, fmt.Errorf("averaging %s: %w", m, err)
	}
	return agg, nil
}

// LatestProfiles returns the newest profiles, ties broken by highest id.
func (s *ProfileStore) LatestProfiles(ctx context.Context, limit int) ([]domain.ProfileSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT instrument_id, cycle_number, observed_at, time_source, latitude, longitude
		FROM argo_profiles
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying latest profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.ProfileSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ps domain.ProfileSummary
		var instrument sql.NullInt64
		var observed, source string
		if err := rows.Scan(&instrument, &ps.CycleNumber, &observed, &source, &ps.Latitude, &ps.Longitude); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		ps.InstrumentID = instrument.Int64
		ps.TimeSource = domain.TimeSource(source)
		if ps.Timestamp, err = parseTime(observed); err != nil {
			return nil, fmt.Errorf("parsing observed_at %q: %w", observed, err)
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return out, nil
}

// DeepestFloats returns known floats by maximum pressure, deepest first.
func (s *ProfileStore) DeepestFloats(ctx context.Context, limit int) ([]domain.FloatDepth, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT p.instrument_id, MAX(j.value) AS max_depth
		FROM argo_profiles p, json_each(p.pressure) j
		WHERE p.instrument_id IS NOT NULL
		GROUP BY p.instrument_id
		ORDER BY max_depth DESC, p.instrument_id ASC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying deepest floats: %w", err)
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
		return nil, fmt.Errorf("iterating float depths: %w", err)
	}
	return out, nil
}

// CountProfiles counts profiles observed at or after since and their distinct floats.
func (s *ProfileStore) CountProfiles(ctx context.Context, since time.Time) (domain.Counts, error) {
	query := `SELECT COUNT(DISTINCT instrument_id), COUNT(*) FROM argo_profiles`
	var args []any
	if !since.IsZero() {
		query += ` WHERE observed_at >= ?`
		args = append(args, formatTime(since))
	}

	var c domain.Counts
	if err := s.store.db.QueryRowContext(ctx, query, args...).Scan(&c.Floats, &c.Profiles); err != nil {
		return domain.Counts{}, fmt.Errorf("counting profiles: %w", err)
	}
	return c, nil
}

// LatestPositions returns the newest position of each known float.
func (s *ProfileStore) LatestPositions(ctx context.Context) ([]domain.FloatPosition, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT instrument_id, latitude, longitude, observed_at FROM (
			SELECT instrument_id, latitude, longitude, observed_at,
				ROW_NUMBER() OVER (PARTITION BY instrument_id ORDER BY observed_at DESC, id DESC) AS rn
			FROM argo_profiles
			WHERE instrument_id IS NOT NULL
		) WHERE rn = 1
		ORDER BY instrument_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest positions: %w", err)
	}
	defer rows.Close()

	var out []domain.FloatPosition //nolint:prealloc // size unknown from query
	for rows.Next() {
		var pos domain.FloatPosition
		var observed string
		if err := rows.Scan(&pos.InstrumentID, &pos.Latitude, &pos.Longitude, &observed); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		if pos.Timestamp, err = parseTime(observed); err != nil {
			return nil, fmt.Errorf("parsing observed_at %q: %w", observed, err)
		}
		out = append(out, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating positions: %w", err)
	}
	return out, nil
}

// ProfilesByInstrument returns every profile of a float, oldest first.
func (s *ProfileStore) ProfilesByInstrument(ctx context.Context, instrumentID int64) ([]domain.Profile, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, `+profileColumns+`
		FROM argo_profiles
		WHERE instrument_id = ?
		ORDER BY observed_at ASC, id ASC
	`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("querying profiles of %d: %w", instrumentID, err)
	}
	defer rows.Close()

	var out []domain.Profile //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return out, nil
}

func scanProfile(rows *sql.Rows) (domain.Profile, error) {
	var p domain.Profile
	var instrument sql.NullInt64
	var observed, source, pres, temp, sal, geom string
	if err := rows.Scan(&p.ID, &instrument, &p.CycleNumber, &observed, &source,
		&p.Latitude, &p.Longitude, &pres, &temp, &sal, &geom, &p.SourceFile); err != nil {
		return domain.Profile{}, fmt.Errorf("scanning profile: %w", err)
	}
	p.InstrumentID = instrument.Int64
	p.TimeSource = domain.TimeSource(source)

	var err error
	if p.Timestamp, err = parseTime(observed); err != nil {
		return domain.Profile{}, fmt.Errorf("parsing observed_at %q: %w", observed, err)
	}
	for _, field := range []struct {
		raw string
		dst *[]float64
	}{{pres, &p.Pressure}, {temp, &p.Temperature}, {sal, &p.Salinity}} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return domain.Profile{}, fmt.Errorf("decoding measurements of profile %d: %w", p.ID, err)
		}
	}
	return p, nil
}

// nullInstrument stores unknown instruments as NULL.
func nullInstrument(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
