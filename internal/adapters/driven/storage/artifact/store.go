package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// File names inside the artifact directory.
const (
	CurrentFile = "CURRENT"
	IndexFile   = "index.bin"
	MappingFile = "mapping.csv"

	generationPrefix = "gen-"
)

// DefaultKeep is the number of generations left on disk after a publish.
const DefaultKeep = 2

// Ensure Store implements the interface.
var _ driven.IndexArtifactStore = (*Store)(nil)

// Store is a directory of index generations.
type Store struct {
	dir  string
	keep int
	now  func() time.Time

	// mu serialises publishers within the process.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKeep sets how many generations survive pruning. Values below 1 are ignored.
func WithKeep(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.keep = n
		}
	}
}

// WithClock sets the clock used for BuiltAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates the artifact directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty artifact directory", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	s := &Store{dir: dir, keep: DefaultKeep, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Publish writes the snapshot as a new generation and points CURRENT at it.
func (s *Store) Publish(ctx context.Context, snapshot *domain.IndexSnapshot) (domain.IndexMeta, error) {
	if snapshot == nil || snapshot.Meta.Dimensions <= 0 {
		return domain.IndexMeta{}, fmt.Errorf("%w: snapshot without dimensions", domain.ErrInvalidInput)
	}
	if err := snapshot.Validate(); err != nil {
		return domain.IndexMeta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta := snapshot.Meta
	meta.Generation = generationPrefix + uuid.NewString()
	meta.BuiltAt = s.now().UTC()

	index, err := encodeIndex(meta, snapshot.Vectors)
	if err != nil {
		return domain.IndexMeta{}, err
	}
	var mapping bytes.Buffer
	if err := writeMapping(&mapping, snapshot.Mapping); err != nil {
		return domain.IndexMeta{}, fmt.Errorf("encoding mapping: %w", err)
	}

	genDir := filepath.Join(s.dir, meta.Generation)
	if err := os.Mkdir(genDir, 0o700); err != nil {
		return domain.IndexMeta{}, fmt.Errorf("creating generation: %w", err)
	}
	if err := s.writeGeneration(ctx, genDir, index, mapping.Bytes()); err != nil {
		_ = os.RemoveAll(genDir)
		return domain.IndexMeta{}, err
	}

	if err := writeFileAtomic(filepath.Join(s.dir, CurrentFile), []byte(meta.Generation+"\n")); err != nil {
		_ = os.RemoveAll(genDir)
		return domain.IndexMeta{}, fmt.Errorf("activating %s: %w", meta.Generation, err)
	}
	logger.Info("published index generation", "generation", meta.Generation,
		"model", meta.Model, "count", meta.Count)

	if err := s.prune(meta.Generation); err != nil {
		logger.Warn("pruning index generations failed", "error", err)
	}
	return meta, nil
}

func (s *Store) writeGeneration(ctx context.Context, genDir string, index, mapping []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileSync(filepath.Join(genDir, IndexFile), index); err != nil {
		return fmt.Errorf("writing %s: %w", IndexFile, err)
	}
	if err := writeFileSync(filepath.Join(genDir, MappingFile), mapping); err != nil {
		return fmt.Errorf("writing %s: %w", MappingFile, err)
	}
	return syncDir(genDir)
}

// Open loads the active generation.
func (s *Store) Open(ctx context.Context) (*domain.IndexSnapshot, error) {
	gen, err := s.current()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	genDir := filepath.Join(s.dir, gen)
	data, err := os.ReadFile(filepath.Join(genDir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s of %s: %w", domain.ErrIndexCorrupt, IndexFile, gen, err)
	}
	meta, vectors, err := decodeIndex(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", gen, err)
	}
	meta.Generation = gen

	f, err := os.Open(filepath.Join(genDir, MappingFile))
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s of %s: %w", domain.ErrIndexCorrupt, MappingFile, gen, err)
	}
	defer f.Close()
	ids, err := readMapping(f)
	if err != nil {
		return nil, fmt.Errorf("reading mapping of %s: %w", gen, err)
	}

	snapshot := &domain.IndexSnapshot{Meta: meta, Vectors: vectors, Mapping: ids}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Active returns the active generation's header.
func (s *Store) Active(_ context.Context) (domain.IndexMeta, error) {
	gen, err := s.current()
	if err != nil {
		return domain.IndexMeta{}, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, gen, IndexFile))
	if err != nil {
		return domain.IndexMeta{}, fmt.Errorf("%w: reading %s of %s: %w", domain.ErrIndexCorrupt, IndexFile, gen, err)
	}
	meta, _, err := decodeHeader(data)
	if err != nil {
		return domain.IndexMeta{}, err
	}
	meta.Generation = gen
	return meta, nil
}

// current reads the generation name from CURRENT.
func (s *Store) current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, CurrentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.dir)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", CurrentFile, err)
	}

	gen := strings.TrimSpace(string(data))
	if !strings.HasPrefix(gen, generationPrefix) || strings.ContainsAny(gen, `/\`) || gen == generationPrefix {
		return "", fmt.Errorf("%w: %s names %q", domain.ErrIndexCorrupt, CurrentFile, gen)
	}
	return gen, nil
}

// prune removes generations beyond the newest keep, never the active one.
func (s *Store) prune(active string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	type generation struct {
		name    string
		modTime time.Time
	}
	var others []generation
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), generationPrefix) || e.Name() == active {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		others = append(others, generation{name: e.Name(), modTime: info.ModTime()})
	}
	sort.Slice(others, func(i, j int) bool {
		return others[i].modTime.After(others[j].modTime)
	})

	var errs []error
	for i, g := range others {
		if i < s.keep-1 {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, g.name)); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Debug("removed index generation", "generation", g.name)
	}
	return errors.Join(errs...)
}

// writeFileSync writes data and fsyncs before closing.
func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeFileAtomic replaces path through a synced temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := writeFileSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Some filesystems refuse to fsync a directory; the rename is still atomic.
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		logger.Debug("directory sync failed", "dir", dir, "error", err)
	}
	return nil
}
