package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var base = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func profile(id int64, at time.Time, lat, lon float64, pres ...float64) domain.Profile {
	temp := make([]float64, len(pres))
	sal := make([]float64, len(pres))
	for i := range pres {
		temp[i] = 20 - float64(i)
		sal[i] = 35
	}
	return domain.Profile{
		InstrumentID: id,
		CycleNumber:  1,
		Timestamp:    at,
		TimeSource:   domain.TimeSourceObserved,
		Latitude:     lat,
		Longitude:    lon,
		Pressure:     pres,
		Temperature:  temp,
		Salinity:     sal,
		SourceFile:   "test.nc",
	}
}

func seeded(t *testing.T) *ProfileStore {
	t.Helper()
	s := NewProfileStore()
	n, err := s.InsertProfiles(context.Background(), []domain.Profile{
		profile(1902672, base, -10, 70, 5, 1000),
		profile(1902672, base.Add(48*time.Hour), -11, 71, 5, 1500),
		profile(5904, base.Add(24*time.Hour), 12, -40, 10, 2000),
		profile(0, base.Add(72*time.Hour), 0, 0, 3000),
	}, 2)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return s
}

func TestProfileStore_InsertAssignsIDs(t *testing.T) {
	s := seeded(t)
	all := s.All()
	require.Len(t, all, 4)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(4), all[3].ID)
}

func TestProfileStore_InsertIsAllOrNothing(t *testing.T) {
	s := NewProfileStore()
	bad := profile(1, base, 95, 0, 1)

	_, err := s.InsertProfiles(context.Background(), []domain.Profile{profile(1, base, 0, 0, 1), bad}, 1000)

	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
	assert.Equal(t, 0, s.Len())
}

func TestProfileStore_AverageMeasurement(t *testing.T) {
	s := seeded(t)

	agg, err := s.AverageMeasurement(context.Background(), domain.MeasurementPressure)
	require.NoError(t, err)
	assert.Equal(t, int64(7), agg.Samples)
	assert.InDelta(t, (5+1000+5+1500+10+2000+3000)/7.0, agg.Mean, 1e-9)

	_, err = s.AverageMeasurement(context.Background(), domain.Measurement("oxygen"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	empty, err := NewProfileStore().AverageMeasurement(context.Background(), domain.MeasurementTemperature)
	require.NoError(t, err)
	assert.Zero(t, empty.Samples)
}

func TestProfileStore_LatestProfiles(t *testing.T) {
	s := seeded(t)

	latest, err := s.LatestProfiles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(0), latest[0].InstrumentID)
	assert.Equal(t, int64(1902672), latest[1].InstrumentID)
	assert.Equal(t, -11.0, latest[1].Latitude)
}

func TestProfileStore_DeepestFloats(t *testing.T) {
	s := seeded(t)

	depths, err := s.DeepestFloats(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.FloatDepth{
		{InstrumentID: 5904, MaxPressure: 2000},
		{InstrumentID: 1902672, MaxPressure: 1500},
	}, depths, "unknown instruments are excluded")
}

func TestProfileStore_CountProfiles(t *testing.T) {
	s := seeded(t)

	all, err := s.CountProfiles(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Profiles)
	assert.Equal(t, int64(2), all.Floats)

	recent, err := s.CountProfiles(context.Background(), base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent.Profiles)
	assert.Equal(t, int64(1), recent.Floats)
}

func TestProfileStore_LatestPositions(t *testing.T) {
	s := seeded(t)

	positions, err := s.LatestPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, domain.FloatPosition{InstrumentID: 5904, Latitude: 12, Longitude: -40, Timestamp: base.Add(24 * time.Hour)}, positions[0])
	assert.Equal(t, int64(1902672), positions[1].InstrumentID)
	assert.Equal(t, -11.0, positions[1].Latitude)
}

func TestProfileStore_LatestPositions_TieBrokenByID(t *testing.T) {
	s := NewProfileStore()
	_, err := s.InsertProfiles(context.Background(), []domain.Profile{
		profile(7, base, 1, 1, 5),
		profile(7, base, 2, 2, 5),
	}, 10)
	require.NoError(t, err)

	positions, err := s.LatestPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 2.0, positions[0].Latitude)
}

func TestProfileStore_ProfilesByInstrument(t *testing.T) {
	s := seeded(t)

	profiles, err := s.ProfilesByInstrument(context.Background(), 1902672)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.True(t, profiles[0].Timestamp.Before(profiles[1].Timestamp))

	none, err := s.ProfilesByInstrument(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, none)

	unknown, err := s.ProfilesByInstrument(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestProfileStore_ReturnsCopies(t *testing.T) {
	s := seeded(t)
	profiles, err := s.ProfilesByInstrument(context.Background(), 5904)
	require.NoError(t, err)
	profiles[0].Pressure[0] = -1

	again, err := s.ProfilesByInstrument(context.Background(), 5904)
	require.NoError(t, err)
	assert.Equal(t, 10.0, again[0].Pressure[0])
}
