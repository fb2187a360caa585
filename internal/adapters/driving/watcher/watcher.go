// Package watcher ingests profile files as they appear in the source directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 2 * time.Second

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher: closed")

// IngestFunc observes each ingestion the watcher triggers.
type IngestFunc func(path string, report domain.IngestReport, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtension restricts ingestion to files with the given extension.
func WithExtension(ext string) Option {
	return func(w *Watcher) {
		if ext != "" {
			w.ext = ext
		}
	}
}

// OnIngest registers a callback run after every triggered ingestion.
func OnIngest(fn IngestFunc) Option {
	return func(w *Watcher) {
		w.onIngest = fn
	}
}

// pendingFile is one debounce timer. Identity distinguishes a timer that has
// already fired from its replacement.
type pendingFile struct {
	timer *time.Timer
}

// Watcher calls IngestionService.IngestFile for files created or written in
// the source directory. Bursts of events for one file collapse into a single
// ingestion once the file has been quiet for the debounce period.
type Watcher struct {
	ingest   driving.IngestionService
	dir      string
	ext      string
	debounce time.Duration
	onIngest IngestFunc

	mu      sync.Mutex
	pending map[string]*pendingFile
	closed  bool
	wg      sync.WaitGroup
}

// New creates a watcher over the ingestion service's source directory.
func New(ingest driving.IngestionService, opts ...Option) *Watcher {
	w := &Watcher{
		ingest:   ingest,
		dir:      ingest.SourceDir(),
		ext:      ".nc",
		debounce: DefaultDebounce,
		pending:  make(map[string]*pendingFile),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled, then waits for in-flight ingestions.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.mu.Unlock()

	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source directory: %s is not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching source directory", "dir", w.dir, "extension", w.ext, "debounce", w.debounce)

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleEvent(event); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "dir", w.dir, "error", err)
		}
	}
}

// Close stops pending ingestions. A running Watch returns when its context ends.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.drain()
	return nil
}

// handleEvent reports whether an event should trigger ingestion of its file.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), w.ext) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.debounce)
		return
	}

	p := &pendingFile{}
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == p {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.run(ctx, path)
	})
	w.pending[path] = p
}

func (w *Watcher) run(ctx context.Context, path string) {
	report, err := w.ingest.IngestFile(ctx, path)
	switch {
	case err != nil:
		logger.Warn("watched file ingestion failed", "file", path, "error", err)
	case report.Loaded > 0:
		logger.Info("ingested watched file", "file", path, "rows", report.Rows)
	default:
		logger.Debug("watched file not loaded", "file", path,
			"skipped", report.Skipped, "rejected", report.Rejected, "failed", report.Failed)
	}
	if w.onIngest != nil {
		w.onIngest(path, report, err)
	}
}

// drain cancels timers that have not fired and waits for running ingestions.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
