package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestConfig configures an IngestionService.
type IngestConfig struct {
	// SourceDir is the directory scanned for profile files.
	SourceDir string

	// Extension filters source files, compared case-insensitively.
	Extension string

	// BatchSize is the number of rows per insert statement.
	BatchSize int

	// RequireInstrumentID rejects files whose platform number does not parse.
	RequireInstrumentID bool

	// Now supplies timestamps. Defaults to time.Now.
	Now func() time.Time
}

// IngestionService discovers, parses, normalises and loads profile files.
// A file is recorded in the ledger only after all its rows are committed,
// so every file is loaded at most once.
type IngestionService struct {
	cfg    IngestConfig
	parser driven.ProfileParser
	store  driven.ProfileStore
	ledger driven.Ledger

	group singleflight.Group

	// mu serialises per-file work between Run and IngestFile.
	mu     sync.Mutex
	loaded map[string]struct{}
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	cfg IngestConfig,
	parser driven.ProfileParser,
	store driven.ProfileStore,
	ledger driven.Ledger,
) *IngestionService {
	if cfg.Extension == "" {
		cfg.Extension = ".nc"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &IngestionService{
		cfg:    cfg,
		parser: parser,
		store:  store,
		ledger: ledger,
		loaded: make(map[string]struct{}),
	}
}

// SourceDir returns the directory scanned by Run.
func (s *IngestionService) SourceDir() string {
	return s.cfg.SourceDir
}

// Run processes every file in the source directory that the ledger has not
// recorded. Concurrent calls share one execution and its report.
func (s *IngestionService) Run(ctx context.Context) (domain.IngestReport, error) {
	v, err, shared := s.group.Do(s.cfg.SourceDir, func() (any, error) {
		return s.run(ctx)
	})
	if shared {
		logger.Debug("joined in-flight ingestion run", "dir", s.cfg.SourceDir)
	}
	report, _ := v.(domain.IngestReport)
	return report, err
}

func (s *IngestionService) run(ctx context.Context) (domain.IngestReport, error) {
	report := domain.IngestReport{StartedAt: s.cfg.Now()}
	defer func() { report.EndedAt = s.cfg.Now() }()

	logger.Section("Ingest")

	files, err := s.discover()
	if err != nil {
		return report, err
	}
	report.Discovered = len(files)

	seen, err := s.ledger.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load ledger: %w", err)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := seen[file.Name]; ok {
			report.Skipped++
			continue
		}
		r, err := s.ingestLocked(ctx, file)
		report.Merge(r)
		if err != nil {
			return report, err
		}
	}

	logger.Info("ingestion complete",
		"dir", s.cfg.SourceDir,
		"discovered", report.Discovered,
		"skipped", report.Skipped,
		"loaded", report.Loaded,
		"rejected", report.Rejected,
		"failed", report.Failed,
		"rows", report.Rows)
	return report, nil
}

// IngestFile processes a single file through the same path as Run.
func (s *IngestionService) IngestFile(ctx context.Context, path string) (domain.IngestReport, error) {
	report := domain.IngestReport{StartedAt: s.cfg.Now()}
	defer func() { report.EndedAt = s.cfg.Now() }()

	file := domain.SourceFile{Path: path, Name: filepath.Base(path)}
	if !s.matches(file.Name) {
		return report, fmt.Errorf("%w: %s does not match extension %s", domain.ErrInvalidInput, file.Name, s.cfg.Extension)
	}
	report.Discovered = 1

	seen, err := s.ledger.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load ledger: %w", err)
	}
	if _, ok := seen[file.Name]; ok {
		report.Skipped = 1
		return report, nil
	}

	r, err := s.ingestLocked(ctx, file)
	report.Merge(r)
	return report, err
}

// discover lists matching regular files, sorted by name.
func (s *IngestionService) discover() ([]domain.SourceFile, error) {
	entries, err := os.ReadDir(s.cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("list source directory: %w", err)
	}

	var files []domain.SourceFile
	for _, e := range entries {
		if e.IsDir() || !s.matches(e.Name()) {
			continue
		}
		if strings.ContainsAny(e.Name(), "\r\n") {
			logger.Warn("skipping source file with a line break in its name", "file", e.Name())
			continue
		}
		files = append(files, domain.SourceFile{
			Path: filepath.Join(s.cfg.SourceDir, e.Name()),
			Name: e.Name(),
		})
	}
	return files, nil
}

func (s *IngestionService) matches(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), s.cfg.Extension)
}

// ingestLocked loads one file unless this process already loaded it.
// Only context cancellation is returned as an error; per-file failures
// are counted in the report.
func (s *IngestionService) ingestLocked(ctx context.Context, file domain.SourceFile) (domain.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report domain.IngestReport
	if _, ok := s.loaded[file.Name]; ok {
		report.Skipped++
		return report, nil
	}

	raws, err := s.parser.Parse(ctx, file)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		// The parser logs the rejection reason.
		report.Rejected++
		return report, nil
	}

	profiles, err := s.normalise(file, raws, &report)
	if err != nil {
		logger.Warn("rejected file", "file", file.Name, "error", err)
		report.Rejected++
		return report, nil
	}
	if len(profiles) == 0 {
		logger.Warn("rejected file", "file", file.Name, "reason", "no valid profiles")
		report.Rejected++
		return report, nil
	}

	n, err := s.store.InsertProfiles(ctx, profiles, s.cfg.BatchSize)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		logger.Error("failed to load file", "file", file.Name, "error", err)
		report.Failed++
		return report, nil
	}
	report.Rows += n

	if err := s.ledger.Append(ctx, file.Name); err != nil {
		// The rows are committed; without a ledger entry the next run loads them again.
		logger.Error("failed to record file in ledger", "file", file.Name, "rows", n, "error", err)
		report.Failed++
		return report, nil
	}

	s.loaded[file.Name] = struct{}{}
	report.Loaded++
	logger.Debug("loaded file", "file", file.Name, "rows", n)
	return report, nil
}

// normalise converts raw records into profiles. Records with no usable
// levels or coordinates are dropped individually; an unparseable required
// instrument id rejects the whole file.
func (s *IngestionService) normalise(file domain.SourceFile, raws []domain.RawProfile, report *domain.IngestReport) ([]domain.Profile, error) {
	opts := NormaliseOptions{RequireInstrumentID: s.cfg.RequireInstrumentID, Now: s.cfg.Now}

	profiles := make([]domain.Profile, 0, len(raws))
	for _, raw := range raws {
		p, err := NormaliseProfile(raw, opts)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrEmptyProfile):
			logger.Warn("dropped empty profile", "file", file.Name, "row", raw.Index)
			report.EmptyProfiles++
			continue
		case errors.Is(err, domain.ErrInvalidCoordinates):
			logger.Warn("dropped profile", "file", file.Name, "row", raw.Index, "reason", err.Error())
			continue
		default:
			return nil, &domain.ParseError{File: file.Name, Reason: fmt.Sprintf("row %d", raw.Index), Err: err}
		}
		if p.TimeSource == domain.TimeSourceIngestion {
			report.IngestionTimeFallbacks++
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
