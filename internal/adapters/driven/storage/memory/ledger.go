package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.Ledger = (*Ledger)(nil)

// Ledger is an in-memory implementation of driven.Ledger.
type Ledger struct {
	mu      sync.Mutex
	entries []string
	seen    map[string]struct{}
}

// NewLedger creates a ledger pre-populated with names.
func NewLedger(names ...string) *Ledger {
	l := &Ledger{seen: make(map[string]struct{})}
	for _, n := range names {
		_ = l.Append(context.Background(), n)
	}
	return l
}

// Load returns every recorded name.
func (l *Ledger) Load(_ context.Context) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]struct{}, len(l.seen))
	for k := range l.seen {
		out[k] = struct{}{}
	}
	return out, nil
}

// Append records a name once.
func (l *Ledger) Append(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[name]; ok {
		return nil
	}
	l.seen[name] = struct{}{}
	l.entries = append(l.entries, name)
	return nil
}

// Entries returns recorded names in append order.
func (l *Ledger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}
