package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure ProfileStore implements the interfaces.
var (
	_ driven.ProfileStore   = (*ProfileStore)(nil)
	_ driven.ProfileQueries = (*ProfileStore)(nil)
)

// ProfileStore is an in-memory implementation of driven.ProfileStore and
// driven.ProfileQueries. Query semantics match the SQL stores.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles []domain.Profile
	nextID   int64
}

// NewProfileStore creates an empty in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{nextID: 1}
}

// InsertProfiles validates every profile first and appends all or none.
func (s *ProfileStore) InsertProfiles(ctx context.Context, profiles []domain.Profile, _ int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for i := range profiles {
		if err := profiles[i].Validate(); err != nil {
			return 0, fmt.Errorf("profile %d from %s: %w", i, profiles[i].SourceFile, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range profiles {
		p.ID = s.nextID
		s.nextID++
		s.profiles = append(s.profiles, cloneProfile(p))
	}
	return len(profiles), nil
}

// Len returns the number of stored profiles.
func (s *ProfileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// All returns a copy of every stored profile in insertion order.
func (s *ProfileStore) All() []domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Profile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = cloneProfile(p)
	}
	return out
}

// Close is a no-op.
func (s *ProfileStore) Close() error {
	return nil
}

// AverageMeasurement averages every stored value of the measurement.
func (s *ProfileStore) AverageMeasurement(_ context.Context, m domain.Measurement) (domain.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := domain.Aggregate{Measurement: m}
	var sum float64
	for i := range s.profiles {
		values, err := measurementValues(&s.profiles[i], m)
		if err != nil {
			return domain.Aggregate{}, err
		}
		for _, v := range values {
			sum += v
			agg.Samples++
		}
	}
	if agg.Samples > 0 {
		agg.Mean = sum / float64(agg.Samples)
	}
	return agg, nil
}

// LatestProfiles returns the newest profiles, ties broken by highest id.
func (s *ProfileStore) LatestProfiles(_ context.Context, limit int) ([]domain.ProfileSummary, error) {
	s.mu.RLock()
	sorted := make([]domain.Profile, len(s.profiles))
	copy(sorted, s.profiles)
	s.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return newer(&sorted[i], &sorted[j])
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]domain.ProfileSummary, len(sorted))
	for i := range sorted {
		out[i] = summarise(&sorted[i])
	}
	return out, nil
}

// DeepestFloats returns known floats by maximum pressure, deepest first.
func (s *ProfileStore) DeepestFloats(_ context.Context, limit int) ([]domain.FloatDepth, error) {
	s.mu.RLock()
	deepest := make(map[int64]float64)
	for _, p := range s.profiles {
		if !p.HasInstrument() || len(p.Pressure) == 0 {
			continue
		}
		maxP := p.Pressure[0]
		for _, v := range p.Pressure[1:] {
			maxP = max(maxP, v)
		}
		if cur, ok := deepest[p.InstrumentID]; !ok || maxP > cur {
			deepest[p.InstrumentID] = maxP
		}
	}
	s.mu.RUnlock()

	out := make([]domain.FloatDepth, 0, len(deepest))
	for id, p := range deepest {
		out = append(out, domain.FloatDepth{InstrumentID: id, MaxPressure: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxPressure != out[j].MaxPressure {
			return out[i].MaxPressure > out[j].MaxPressure
		}
		return out[i].InstrumentID < out[j].InstrumentID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountProfiles counts profiles observed at or after since and their distinct floats.
func (s *ProfileStore) CountProfiles(_ context.Context, since time.Time) (domain.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	floats := make(map[int64]struct{})
	var counts domain.Counts
	for _, p := range s.profiles {
		if !since.IsZero() && p.Timestamp.Before(since) {
			continue
		}
		counts.Profiles++
		if p.HasInstrument() {
			floats[p.InstrumentID] = struct{}{}
		}
	}
	counts.Floats = int64(len(floats))
	return counts, nil
}

// LatestPositions returns the newest position of each known float, by instrument id.
func (s *ProfileStore) LatestPositions(_ context.Context) ([]domain.FloatPosition, error) {
	s.mu.RLock()
	latest := make(map[int64]*domain.Profile)
	for i := range s.profiles {
		p := &s.profiles[i]
		if !p.HasInstrument() {
			continue
		}
		if cur, ok := latest[p.InstrumentID]; !ok || newer(p, cur) {
			latest[p.InstrumentID] = p
		}
	}
	out := make([]domain.FloatPosition, 0, len(latest))
	for id, p := range latest {
		out = append(out, domain.FloatPosition{
			InstrumentID: id,
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			Timestamp:    p.Timestamp,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out, nil
}

// ProfilesByInstrument returns every profile of a float, oldest first.
func (s *ProfileStore) ProfilesByInstrument(_ context.Context, instrumentID int64) ([]domain.Profile, error) {
	s.mu.RLock()
	var out []domain.Profile
	for _, p := range s.profiles {
		if p.InstrumentID == instrumentID && instrumentID != 0 {
			out = append(out, cloneProfile(p))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// newer orders profiles by timestamp, then by insertion id.
func newer(a, b *domain.Profile) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func summarise(p *domain.Profile) domain.ProfileSummary {
	return domain.ProfileSummary{
		InstrumentID: p.InstrumentID,
		CycleNumber:  p.CycleNumber,
		Timestamp:    p.Timestamp,
		TimeSource:   p.TimeSource,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
	}
}

func measurementValues(p *domain.Profile, m domain.Measurement) ([]float64, error) {
	switch m {
	case domain.MeasurementPressure:
		return p.Pressure, nil
	case domain.MeasurementTemperature:
		return p.Temperature, nil
	case domain.MeasurementSalinity:
		return p.Salinity, nil
	default:
		return nil, fmt.Errorf("%w: measurement %q", domain.ErrInvalidInput, m)
	}
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.Pressure = append([]float64(nil), p.Pressure...)
	p.Temperature = append([]float64(nil), p.Temperature...)
	p.Salinity = append([]float64(nil), p.Salinity...)
	return p
}
