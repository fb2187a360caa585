package services

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerfile "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/ledger/file"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var ingestNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func rawProfile(file, platform string, levels int) domain.RawProfile {
	raw := domain.RawProfile{
		SourceFile:     file,
		PlatformNumber: platform,
		CycleNumber:    1,
		Latitude:       -12.5,
		Longitude:      75.25,
		JulianDay:      27000.5,
		HasJulianDay:   true,
		ReferenceTime:  time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < levels; i++ {
		raw.Pressure = append(raw.Pressure, float64(10*(i+1)))
		raw.Temperature = append(raw.Temperature, 20-float64(i))
		raw.Salinity = append(raw.Salinity, 35)
	}
	return raw
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o600))
	}
}

type ingestFixture struct {
	dir    string
	parser *mockParser
	store  *memory.ProfileStore
	ledger *memory.Ledger
	svc    *IngestionService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	fx := &ingestFixture{
		dir:    t.TempDir(),
		parser: newMockParser(),
		store:  memory.NewProfileStore(),
		ledger: memory.NewLedger(),
	}
	fx.svc = NewIngestionService(IngestConfig{
		SourceDir:           fx.dir,
		RequireInstrumentID: true,
		Now:                 func() time.Time { return ingestNow },
	}, fx.parser, fx.store, fx.ledger)
	return fx
}

func TestIngestionService_Run(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "b.nc", "a.NC", "notes.txt", ".hidden.nc")
	require.NoError(t, os.Mkdir(filepath.Join(fx.dir, "sub.nc"), 0o700))
	fx.parser.records["a.NC"] = []domain.RawProfile{rawProfile("a.NC", "1902672", 3), rawProfile("a.NC", "1902672", 2)}
	fx.parser.records["b.nc"] = []domain.RawProfile{rawProfile("b.nc", "5904", 1)}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, ingestNow, report.StartedAt)
	assert.Equal(t, []string{"a.NC", "b.nc"}, fx.parser.Calls())
	assert.Equal(t, []string{"a.NC", "b.nc"}, fx.ledger.Entries())
	assert.Equal(t, 3, fx.store.Len())
	assert.Equal(t, fx.dir, fx.svc.SourceDir())
}

func TestIngestionService_RunIsIdempotent(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "a.nc")
	fx.parser.records["a.nc"] = []domain.RawProfile{rawProfile("a.nc", "1902672", 3)}

	_, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	second, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Loaded)
	assert.Equal(t, 1, fx.store.Len())
	assert.Len(t, fx.ledger.Entries(), 1)
	assert.Len(t, fx.parser.Calls(), 1)
}

func TestIngestionService_FileLedgerKeepsNamesExact(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, " padded.nc")
	ledger, err := ledgerfile.NewLedger(filepath.Join(t.TempDir(), "ingested_files.log"))
	require.NoError(t, err)
	store := memory.NewProfileStore()
	parser := newMockParser()
	parser.records[" padded.nc"] = []domain.RawProfile{rawProfile(" padded.nc", "1902672", 2)}

	cfg := IngestConfig{SourceDir: dir, RequireInstrumentID: true, Now: func() time.Time { return ingestNow }}
	first, err := NewIngestionService(cfg, parser, store, ledger).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Loaded)

	// A fresh service sees only the ledger, as after a restart.
	second, err := NewIngestionService(cfg, parser, store, ledger).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Loaded)
	assert.Equal(t, 1, store.Len())
	assert.Len(t, parser.Calls(), 1)
}

func TestIngestionService_SkipsLedgeredFiles(t *testing.T) {
	fx := newIngestFixture(t)
	require.NoError(t, fx.ledger.Append(context.Background(), "old.nc"))
	touch(t, fx.dir, "old.nc")

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, fx.parser.Calls())
}

func TestIngestionService_ParseRejection(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "bad.nc", "good.nc")
	fx.parser.errs["bad.nc"] = &domain.ParseError{File: "bad.nc", Err: domain.ErrMissingCoordinates}
	fx.parser.records["good.nc"] = []domain.RawProfile{rawProfile("good.nc", "1902672", 1)}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, []string{"good.nc"}, fx.ledger.Entries())
	assert.Equal(t, 1, fx.store.Len())
}

func TestIngestionService_EmptyProfiles(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "mixed.nc", "empty.nc")
	fx.parser.records["mixed.nc"] = []domain.RawProfile{rawProfile("mixed.nc", "1", 2), rawProfile("mixed.nc", "1", 0)}
	fx.parser.records["empty.nc"] = []domain.RawProfile{rawProfile("empty.nc", "2", 0)}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.EmptyProfiles)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, []string{"mixed.nc"}, fx.ledger.Entries())
}

func TestIngestionService_NonFiniteMeasurementsAreLedgered(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "inf.nc")
	raw := rawProfile("inf.nc", "1902672", 3)
	raw.Temperature[0] = math.Inf(1)
	fx.parser.records["inf.nc"] = []domain.RawProfile{raw}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []string{"inf.nc"}, fx.ledger.Entries())

	stored := fx.store.All()
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].Levels())
	for _, x := range stored[0].Temperature {
		assert.False(t, math.IsInf(x, 0))
	}

	report, err = fx.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, fx.store.Len())
}

func TestIngestionService_RequiredInstrumentID(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "noid.nc")
	fx.parser.records["noid.nc"] = []domain.RawProfile{rawProfile("noid.nc", "ABC", 2)}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rejected)
	assert.Empty(t, fx.ledger.Entries())
	assert.Equal(t, 0, fx.store.Len())
}

func TestIngestionService_OptionalInstrumentID(t *testing.T) {
	fx := newIngestFixture(t)
	fx.svc.cfg.RequireInstrumentID = false
	touch(t, fx.dir, "noid.nc")
	fx.parser.records["noid.nc"] = []domain.RawProfile{rawProfile("noid.nc", "", 2)}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Loaded)
	require.Equal(t, 1, fx.store.Len())
	assert.Equal(t, int64(0), fx.store.All()[0].InstrumentID)
}

func TestIngestionService_IngestionTimeFallback(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "nojuld.nc")
	raw := rawProfile("nojuld.nc", "7", 1)
	raw.HasJulianDay = false
	fx.parser.records["nojuld.nc"] = []domain.RawProfile{raw}

	report, err := fx.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.IngestionTimeFallbacks)
	stored := fx.store.All()
	require.Len(t, stored, 1)
	assert.Equal(t, domain.TimeSourceIngestion, stored[0].TimeSource)
	assert.True(t, stored[0].Timestamp.Equal(ingestNow))
}

func TestIngestionService_StoreFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.nc", "b.nc")
	parser := newMockParser()
	parser.records["a.nc"] = []domain.RawProfile{rawProfile("a.nc", "1", 1)}
	parser.records["b.nc"] = []domain.RawProfile{rawProfile("b.nc", "2", 1)}
	ledger := memory.NewLedger()

	svc := NewIngestionService(IngestConfig{SourceDir: dir}, parser,
		&failingStore{err: domain.ErrStoreUnavailable}, ledger)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Loaded)
	assert.Empty(t, ledger.Entries())
}

func TestIngestionService_LedgerAppendFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.nc")
	parser := newMockParser()
	parser.records["a.nc"] = []domain.RawProfile{rawProfile("a.nc", "1", 1)}

	svc := NewIngestionService(IngestConfig{SourceDir: dir}, parser, memory.NewProfileStore(),
		&failingLedger{appendErr: errors.New("disk full")})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 0, report.Loaded)
}

func TestIngestionService_LedgerLoadFailure(t *testing.T) {
	svc := NewIngestionService(IngestConfig{SourceDir: t.TempDir()}, newMockParser(),
		memory.NewProfileStore(), &failingLedger{loadErr: errors.New("permission denied")})

	_, err := svc.Run(context.Background())
	assert.ErrorContains(t, err, "load ledger")
}

func TestIngestionService_MissingSourceDir(t *testing.T) {
	svc := NewIngestionService(IngestConfig{SourceDir: filepath.Join(t.TempDir(), "missing")},
		newMockParser(), memory.NewProfileStore(), memory.NewLedger())

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestionService_CancelledContext(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "a.nc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fx.ledger.Entries())
}

func TestIngestionService_ConcurrentRunsShareExecution(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "a.nc")
	fx.parser.records["a.nc"] = []domain.RawProfile{rawProfile("a.nc", "1902672", 2)}
	fx.parser.block = make(chan struct{})

	var wg sync.WaitGroup
	reports := make([]domain.IngestReport, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := fx.svc.Run(context.Background())
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}

	// Give both callers time to join the flight before releasing the parser.
	time.Sleep(100 * time.Millisecond)
	close(fx.parser.block)
	wg.Wait()

	assert.Len(t, fx.parser.Calls(), 1)
	assert.Equal(t, 1, fx.store.Len())
	assert.Equal(t, 1, reports[0].Loaded)
	assert.Equal(t, reports[0], reports[1])
}

func TestIngestionService_IngestFile(t *testing.T) {
	fx := newIngestFixture(t)
	touch(t, fx.dir, "a.nc")
	fx.parser.records["a.nc"] = []domain.RawProfile{rawProfile("a.nc", "1902672", 2)}
	path := filepath.Join(fx.dir, "a.nc")

	report, err := fx.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Loaded)

	again, err := fx.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
	assert.Equal(t, 1, fx.store.Len())

	runReport, err := fx.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, runReport.Skipped)
}

func TestIngestionService_IngestFileWrongExtension(t *testing.T) {
	fx := newIngestFixture(t)

	_, err := fx.svc.IngestFile(context.Background(), filepath.Join(fx.dir, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
