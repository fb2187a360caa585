package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// mockParser returns canned records per file name.
type mockParser struct {
	mu      sync.Mutex
	records map[string][]domain.RawProfile
	errs    map[string]error
	calls   []string
	block   chan struct{}
}

func newMockParser() *mockParser {
	return &mockParser{
		records: make(map[string][]domain.RawProfile),
		errs:    make(map[string]error),
	}
}

func (m *mockParser) Parse(ctx context.Context, file domain.SourceFile) ([]domain.RawProfile, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, file.Name)
	if err, ok := m.errs[file.Name]; ok {
		return nil, err
	}
	return m.records[file.Name], nil
}

func (m *mockParser) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// failingStore fails every insert.
type failingStore struct {
	err error
}

func (f *failingStore) InsertProfiles(context.Context, []domain.Profile, int) (int, error) {
	return 0, f.err
}

func (f *failingStore) Close() error { return nil }

// failingLedger fails appends.
type failingLedger struct {
	loadErr   error
	appendErr error
}

func (f *failingLedger) Load(context.Context) (map[string]struct{}, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return map[string]struct{}{}, nil
}

func (f *failingLedger) Append(context.Context, string) error { return f.appendErr }

// mockQueries is a scripted driven.ProfileQueries.
type mockQueries struct {
	agg       map[domain.Measurement]domain.Aggregate
	latest    []domain.ProfileSummary
	depths    []domain.FloatDepth
	counts    domain.Counts
	positions []domain.FloatPosition
	profiles  map[int64][]domain.Profile
	err       error

	mu        sync.Mutex
	since     []time.Time
	limits    []int
	positionN int
}

func (m *mockQueries) AverageMeasurement(_ context.Context, meas domain.Measurement) (domain.Aggregate, error) {
	if m.err != nil {
		return domain.Aggregate{}, m.err
	}
	return m.agg[meas], nil
}

func (m *mockQueries) LatestProfiles(_ context.Context, limit int) ([]domain.ProfileSummary, error) {
	m.mu.Lock()
	m.limits = append(m.limits, limit)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.latest) {
		return m.latest[:limit], nil
	}
	return m.latest, nil
}

func (m *mockQueries) DeepestFloats(_ context.Context, limit int) ([]domain.FloatDepth, error) {
	m.mu.Lock()
	m.limits = append(m.limits, limit)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.depths, nil
}

func (m *mockQueries) CountProfiles(_ context.Context, since time.Time) (domain.Counts, error) {
	m.mu.Lock()
	m.since = append(m.since, since)
	m.mu.Unlock()
	if m.err != nil {
		return domain.Counts{}, m.err
	}
	return m.counts, nil
}

func (m *mockQueries) LatestPositions(context.Context) ([]domain.FloatPosition, error) {
	m.mu.Lock()
	m.positionN++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.positions, nil
}

func (m *mockQueries) ProfilesByInstrument(_ context.Context, id int64) ([]domain.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profiles[id], nil
}

// mockEmbeddingService embeds text via a lookup table, falling back to a
// length-based vector.
type mockEmbeddingService struct {
	dims    int
	model   string
	vectors map[string][]float32
	err     error

	mu    sync.Mutex
	calls int
}

func newMockEmbeddingService(dims int) *mockEmbeddingService {
	return &mockEmbeddingService{dims: dims, model: "mock-embed", vectors: make(map[string][]float32)}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, m.dims)
	v[0] = float32(len(text))
	return v, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return m.dims }
func (m *mockEmbeddingService) ModelName() string { return m.model }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error { return nil }

func (m *mockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLMService records prompts and returns a scripted reply.
type mockLLMService struct {
	reply string
	err   error
	delay time.Duration

	mu      sync.Mutex
	prompts []string
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages")
	}
	return m.Generate(ctx, messages[len(messages)-1].Content, driven.GenerateOptions{})
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error { return nil }

func (m *mockLLMService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}
