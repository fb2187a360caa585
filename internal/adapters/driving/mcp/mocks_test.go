package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	answer domain.Answer
	asked  []string
}

func (m *mockRetrievalService) Ask(_ context.Context, query string) domain.Answer {
	m.asked = append(m.asked, query)
	a := m.answer
	a.Query = query
	return a
}

// mockRouter is a mock implementation of driving.QueryRouter.
type mockRouter struct {
	route  domain.Route
	result *domain.QueryResult
	err    error
}

func (m *mockRouter) Classify(_ string) domain.Route {
	return m.route
}

func (m *mockRouter) Execute(_ context.Context, _ domain.Route) (*domain.QueryResult, error) {
	return m.result, m.err
}

func (m *mockRouter) Retrieve(_ context.Context, _ string) (domain.Route, *domain.QueryResult, error) {
	return m.route, m.result, m.err
}

// mockFloatService is a mock implementation of driving.FloatService.
type mockFloatService struct {
	profiles  []domain.Profile
	positions []domain.FloatPosition
	stats     domain.FloatStats
	err       error
}

func (m *mockFloatService) Profiles(_ context.Context, _ int64) ([]domain.Profile, error) {
	return m.profiles, m.err
}

func (m *mockFloatService) Locations(_ context.Context) ([]domain.FloatPosition, error) {
	return m.positions, m.err
}

func (m *mockFloatService) Stats(_ context.Context) (domain.FloatStats, error) {
	return m.stats, m.err
}

// mockVectorSearch is a mock implementation of driving.VectorSearchService.
type mockVectorSearch struct {
	matches []domain.FloatMatch
	lastK   int
}

func (m *mockVectorSearch) Search(ctx context.Context, query string, k int) []int64 {
	var ids []int64
	for _, match := range m.Nearest(ctx, query, k) {
		ids = append(ids, match.InstrumentID)
	}
	return ids
}

func (m *mockVectorSearch) Nearest(_ context.Context, _ string, k int) []domain.FloatMatch {
	m.lastK = k
	if k < len(m.matches) {
		return m.matches[:k]
	}
	return m.matches
}

func (m *mockVectorSearch) Meta() domain.IndexMeta {
	return domain.IndexMeta{}
}

// newTestServer builds a server with the given optional ports and default mocks for the required ones.
func newTestServer(floats *mockFloatService, search *mockVectorSearch) (*Server, error) {
	ports := &Ports{
		Retrieval: &mockRetrievalService{},
		Router:    &mockRouter{},
	}
	if floats != nil {
		ports.Floats = floats
	}
	if search != nil {
		ports.Search = search
	}
	return NewServer(ports)
}

func testProfile(cycle int, pressure ...float64) domain.Profile {
	n := len(pressure)
	return domain.Profile{
		InstrumentID: 1902672,
		CycleNumber:  cycle,
		Timestamp:    time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC),
		TimeSource:   domain.TimeSourceObserved,
		Latitude:     -10,
		Longitude:    70,
		Pressure:     pressure,
		Temperature:  make([]float64, n),
		Salinity:     make([]float64, n),
		SourceFile:   "nodc_1902672_prof.nc",
	}
}
