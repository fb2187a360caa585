package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var base = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func testProfile(id int64, at time.Time, lat, lon float64, pres ...float64) domain.Profile {
	temp := make([]float64, len(pres))
	sal := make([]float64, len(pres))
	for i := range pres {
		temp[i] = 20 - float64(i)
		sal[i] = 35
	}
	return domain.Profile{
		InstrumentID: id,
		CycleNumber:  7,
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

func seededProfiles(t *testing.T) (*ProfileStore, func()) {
	t.Helper()
	store, cleanup := setupTestStore(t)
	profiles := store.Profiles()

	n, err := profiles.InsertProfiles(context.Background(), []domain.Profile{
		testProfile(1902672, base, -10, 70, 5, 1000),
		testProfile(1902672, base.Add(48*time.Hour), -11, 71, 5, 1500),
		testProfile(5904, base.Add(24*time.Hour), 12, -40, 10, 2000),
		testProfile(0, base.Add(72*time.Hour), 0, 0, 3000),
	}, 3)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return profiles, cleanup
}

func countRows(t *testing.T, s *ProfileStore) int {
	t.Helper()
	var n int
	require.NoError(t, s.store.db.QueryRow("SELECT COUNT(*) FROM argo_profiles").Scan(&n))
	return n
}

func TestProfileStore_InsertChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	s := store.Profiles()

	var batch []domain.Profile
	for i := 0; i < 5; i++ {
		batch = append(batch, testProfile(int64(100+i), base.Add(time.Duration(i)*time.Hour), 1, 1, 10))
	}

	n, err := s.InsertProfiles(context.Background(), batch, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, countRows(t, s))
}

func TestProfileStore_InsertEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	n, err := store.Profiles().InsertProfiles(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProfileStore_InsertIsAllOrNothing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	s := store.Profiles()

	_, err := s.InsertProfiles(context.Background(), []domain.Profile{
		testProfile(1, base, 0, 0, 1),
		testProfile(2, base, 95, 0, 1),
	}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
	assert.Zero(t, countRows(t, s))
}

func TestProfileStore_InsertCancelled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	s := store.Profiles()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.InsertProfiles(ctx, []domain.Profile{testProfile(1, base, 0, 0, 1)}, 10)
	assert.Error(t, err)
	assert.Zero(t, countRows(t, s))
}

func TestProfileStore_StoresUnknownInstrumentAsNull(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()

	var nulls int
	require.NoError(t, s.store.db.QueryRow(
		"SELECT COUNT(*) FROM argo_profiles WHERE instrument_id IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)

	var geom string
	require.NoError(t, s.store.db.QueryRow(
		"SELECT geom FROM argo_profiles WHERE instrument_id = 5904").Scan(&geom))
	assert.Equal(t, "POINT(-40 12)", geom)
}

func TestProfileStore_AverageMeasurement(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()
	ctx := context.Background()

	agg, err := s.AverageMeasurement(ctx, domain.MeasurementPressure)
	require.NoError(t, err)
	assert.Equal(t, domain.MeasurementPressure, agg.Measurement)
	assert.Equal(t, int64(7), agg.Samples)
	assert.InDelta(t, (5+1000+5+1500+10+2000+3000)/7.0, agg.Mean, 1e-9)

	sal, err := s.AverageMeasurement(ctx, domain.MeasurementSalinity)
	require.NoError(t, err)
	assert.InDelta(t, 35.0, sal.Mean, 1e-9)

	_, err = s.AverageMeasurement(ctx, domain.Measurement("oxygen"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProfileStore_AverageMeasurement_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	agg, err := store.Profiles().AverageMeasurement(context.Background(), domain.MeasurementTemperature)
	require.NoError(t, err)
	assert.Zero(t, agg.Samples)
	assert.Zero(t, agg.Mean)
}

func TestProfileStore_LatestProfiles(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()

	latest, err := s.LatestProfiles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(0), latest[0].InstrumentID)
	assert.True(t, latest[0].Timestamp.Equal(base.Add(72*time.Hour)))
	assert.Equal(t, int64(1902672), latest[1].InstrumentID)
	assert.Equal(t, 7, latest[1].CycleNumber)
	assert.Equal(t, domain.TimeSourceObserved, latest[1].TimeSource)

	all, err := s.LatestProfiles(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestProfileStore_LatestProfiles_TieBreaksOnID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	s := store.Profiles()

	_, err := s.InsertProfiles(context.Background(), []domain.Profile{
		testProfile(1, base, 0, 0, 1),
		testProfile(2, base, 0, 0, 1),
	}, 10)
	require.NoError(t, err)

	latest, err := s.LatestProfiles(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, int64(2), latest[0].InstrumentID)
}

func TestProfileStore_DeepestFloats(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()

	depths, err := s.DeepestFloats(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.FloatDepth{
		{InstrumentID: 5904, MaxPressure: 2000},
		{InstrumentID: 1902672, MaxPressure: 1500},
	}, depths)
}

func TestProfileStore_CountProfiles(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()
	ctx := context.Background()

	all, err := s.CountProfiles(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Floats)
	assert.Equal(t, int64(4), all.Profiles)

	recent, err := s.CountProfiles(ctx, base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent.Profiles)
	assert.Equal(t, int64(1), recent.Floats)
}

func TestProfileStore_LatestPositions(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()

	positions, err := s.LatestPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, int64(5904), positions[0].InstrumentID)
	assert.Equal(t, int64(1902672), positions[1].InstrumentID)
	assert.Equal(t, -11.0, positions[1].Latitude)
	assert.Equal(t, 71.0, positions[1].Longitude)
	assert.True(t, positions[1].Timestamp.Equal(base.Add(48*time.Hour)))
}

func TestProfileStore_ProfilesByInstrument(t *testing.T) {
	s, cleanup := seededProfiles(t)
	defer cleanup()
	ctx := context.Background()

	profiles, err := s.ProfilesByInstrument(ctx, 1902672)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.True(t, profiles[0].Timestamp.Before(profiles[1].Timestamp))
	assert.Equal(t, []float64{5, 1500}, profiles[1].Pressure)
	assert.Equal(t, []float64{20, 19}, profiles[1].Temperature)
	assert.Equal(t, "test.nc", profiles[1].SourceFile)
	assert.NotZero(t, profiles[0].ID)

	none, err := s.ProfilesByInstrument(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, none)
}
