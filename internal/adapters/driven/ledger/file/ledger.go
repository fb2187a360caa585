// Package file implements the ingestion ledger as an append-only text file.
//
// Each line holds one source file name, stored byte for byte; only a
// trailing carriage return is removed when reading. A name is appended only after the
// file's profiles are committed, so a crash between commit and append can
// at worst cause a file to be reloaded, never skipped.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.Ledger = (*Ledger)(nil)

// Ledger is a newline-delimited record of processed file names.
type Ledger struct {
	mu   sync.Mutex
	path string
}

// NewLedger creates a ledger at path. The parent directory is created if needed;
// the file itself is created on first append.
func NewLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	return &Ledger{path: path}, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Load returns every recorded name. A missing file is an empty ledger.
func (l *Ledger) Load(ctx context.Context) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Ledger) load(ctx context.Context) (map[string]struct{}, error) {
	entries := make(map[string]struct{})

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if name := strings.TrimSuffix(scanner.Text(), "\r"); name != "" {
			entries[name] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return entries, nil
}

// Append durably records name. Recording a name already present is a no-op.
func (l *Ledger) Append(ctx context.Context, name string) error {
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("invalid ledger entry %q", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := existing[name]; ok {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening ledger for append: %w", err)
	}
	if _, err := f.WriteString(name + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("appending to ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing ledger: %w", err)
	}
	return f.Close()
}
