package cli

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

type mockIngestService struct {
	report domain.IngestReport
	err    error
	files  []string
	runs   int
}

func (m *mockIngestService) Run(_ context.Context) (domain.IngestReport, error) {
	m.runs++
	return m.report, m.err
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (domain.IngestReport, error) {
	m.files = append(m.files, path)
	return m.report, m.err
}

func (m *mockIngestService) SourceDir() string {
	return "/data/argo"
}

type mockIndexService struct {
	meta     domain.IndexMeta
	buildErr error
	statErr  error
	builds   int
}

func (m *mockIndexService) Build(_ context.Context) (domain.IndexMeta, error) {
	m.builds++
	return m.meta, m.buildErr
}

func (m *mockIndexService) Status(_ context.Context) (domain.IndexMeta, error) {
	return m.meta, m.statErr
}

type mockSearchService struct {
	matches []domain.FloatMatch
	query   string
	k       int
}

func (m *mockSearchService) Search(ctx context.Context, query string, k int) []int64 {
	var ids []int64
	for _, match := range m.Nearest(ctx, query, k) {
		ids = append(ids, match.InstrumentID)
	}
	return ids
}

func (m *mockSearchService) Nearest(_ context.Context, query string, k int) []domain.FloatMatch {
	m.query, m.k = query, k
	return m.matches
}

func (m *mockSearchService) Meta() domain.IndexMeta {
	return domain.IndexMeta{}
}

type mockRouter struct {
	route domain.Route
	query string
}

func (m *mockRouter) Classify(query string) domain.Route {
	m.query = query
	return m.route
}

func (m *mockRouter) Execute(_ context.Context, _ domain.Route) (*domain.QueryResult, error) {
	return &domain.QueryResult{Intent: m.route.Intent}, nil
}

func (m *mockRouter) Retrieve(ctx context.Context, query string) (domain.Route, *domain.QueryResult, error) {
	route := m.Classify(query)
	result, err := m.Execute(ctx, route)
	return route, result, err
}

type mockRetrievalService struct {
	answer domain.Answer
	query  string
}

func (m *mockRetrievalService) Ask(_ context.Context, query string) domain.Answer {
	m.query = query
	return m.answer
}

type mockFloatService struct {
	profiles  []domain.Profile
	positions []domain.FloatPosition
	stats     domain.FloatStats
	err       error
	asked     int64
}

func (m *mockFloatService) Profiles(_ context.Context, id int64) ([]domain.Profile, error) {
	m.asked = id
	return m.profiles, m.err
}

func (m *mockFloatService) Locations(_ context.Context) ([]domain.FloatPosition, error) {
	return m.positions, m.err
}

func (m *mockFloatService) Stats(_ context.Context) (domain.FloatStats, error) {
	return m.stats, m.err
}

type mockScheduler struct {
	ran     []string
	err     error
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

func (m *mockScheduler) RunNow(_ context.Context, taskID string) error {
	m.ran = append(m.ran, taskID)
	return m.err
}

type mockSettingsService struct {
	settings  domain.AppSettings
	values    map[string]any
	setErr    error
	validErr  error
	embedErr  error
	llmErr    error
	embedSet  []string
	llmSet    []string
	scheduler domain.SchedulerConfig
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings:  domain.DefaultAppSettings("/home/test/.oceanai"),
		values:    make(map[string]any),
		scheduler: domain.DefaultSchedulerConfig(),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedSet = []string{string(provider), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmSet = []string{string(provider), model, apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validErr
}

func (m *mockSettingsService) ValidateEmbeddingConfig(_ context.Context) error {
	return m.embedErr
}

func (m *mockSettingsService) ValidateLLMConfig(_ context.Context) error {
	return m.llmErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings("/home/test/.oceanai")
}

func (m *mockSettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	return m.scheduler
}

func (m *mockSettingsService) ConfigPath() string {
	return "/home/test/.oceanai/config.toml"
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings  *mockSettingsService
	ingest    *mockIngestService
	index     *mockIndexService
	search    *mockSearchService
	router    *mockRouter
	retrieval *mockRetrievalService
	floats    *mockFloatService
	scheduler *mockScheduler
}

// setupTestServices installs fresh mocks and returns them with a cleanup
// that restores the previous services and flag values.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		settings:  newMockSettingsService(),
		ingest:    &mockIngestService{},
		index:     &mockIndexService{},
		search:    &mockSearchService{},
		router:    &mockRouter{},
		retrieval: &mockRetrievalService{},
		floats:    &mockFloatService{},
		scheduler: &mockScheduler{},
	}

	old := Services{
		Settings:  settingsService,
		Ingest:    ingestService,
		Index:     indexService,
		Search:    searchService,
		SearchErr: searchInitErr,
		Router:    queryRouter,
		Retrieval: retrievalService,
		Floats:    floatService,
		Scheduler: schedulerService,
	}
	oldInput := settingsInput

	SetServices(&Services{
		Settings:  ts.settings,
		Ingest:    ts.ingest,
		Index:     ts.index,
		Search:    ts.search,
		Router:    ts.router,
		Retrieval: ts.retrieval,
		Floats:    ts.floats,
		Scheduler: ts.scheduler,
	})

	return ts, func() {
		SetServices(&old)
		settingsInput = oldInput
		searchLimit, searchJSON = 5, false
		askJSON, askContext = false, false
		floatsJSON = false
		ingestWatch = false
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// withInput makes interactive commands read the given lines.
func withInput(lines ...string) {
	settingsInput = strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func fixedTime() time.Time {
	return time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
}
