package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// Ensure FloatService implements the interface.
var _ driving.FloatService = (*FloatService)(nil)

// dailyWindow is the window for FloatStats.DailyProfiles.
const dailyWindow = 24 * time.Hour

// FloatService exposes per-float data straight from the profile store.
type FloatService struct {
	queries driven.ProfileQueries
	now     func() time.Time
}

// NewFloatService creates a new float service. A nil clock uses time.Now.
func NewFloatService(queries driven.ProfileQueries, now func() time.Time) *FloatService {
	if now == nil {
		now = time.Now
	}
	return &FloatService{queries: queries, now: now}
}

// Profiles returns every profile of a float, oldest first.
func (s *FloatService) Profiles(ctx context.Context, instrumentID int64) ([]domain.Profile, error) {
	if instrumentID <= 0 {
		return nil, fmt.Errorf("%w: float id %d", domain.ErrInvalidInput, instrumentID)
	}
	profiles, err := s.queries.ProfilesByInstrument(ctx, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("profiles for float %d: %w", instrumentID, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles for float %d: %w", instrumentID, domain.ErrNotFound)
	}
	return profiles, nil
}

// Locations returns the latest position of every float.
func (s *FloatService) Locations(ctx context.Context) ([]domain.FloatPosition, error) {
	positions, err := s.queries.LatestPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("float locations: %w", err)
	}
	return positions, nil
}

// Stats counts active floats, profiles from the last day and all profiles.
func (s *FloatService) Stats(ctx context.Context) (domain.FloatStats, error) {
	total, err := s.queries.CountProfiles(ctx, time.Time{})
	if err != nil {
		return domain.FloatStats{}, fmt.Errorf("count profiles: %w", err)
	}
	daily, err := s.queries.CountProfiles(ctx, s.now().Add(-dailyWindow))
	if err != nil {
		return domain.FloatStats{}, fmt.Errorf("count daily profiles: %w", err)
	}
	return domain.FloatStats{
		ActiveFloats:  total.Floats,
		DailyProfiles: daily.Profiles,
		TotalProfiles: total.Profiles,
	}, nil
}
