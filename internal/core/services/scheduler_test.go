package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
	pruned   []int
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, keep)
	return m.pruneErr
}

func (m *mockSchedulerStore) task(id string) domain.ScheduledTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tasks[id]; ok {
		return *t
	}
	return domain.ScheduledTask{}
}

func (m *mockSchedulerStore) history(id string) []domain.TaskResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TaskResult(nil), m.results[id]...)
}

// mockIngestion implements driving.IngestionService for testing.
type mockIngestion struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (m *mockIngestion) Run(ctx context.Context) (domain.IngestReport, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.IngestReport{}, ctx.Err()
		}
	}
	return domain.IngestReport{Loaded: 2}, m.err
}

func (m *mockIngestion) IngestFile(context.Context, string) (domain.IngestReport, error) {
	return domain.IngestReport{}, nil
}

func (m *mockIngestion) SourceDir() string { return "" }

// mockIndexer implements driving.IndexService for testing.
type mockIndexer struct {
	calls atomic.Int32
	err   error
}

func (m *mockIndexer) Build(context.Context) (domain.IndexMeta, error) {
	m.calls.Add(1)
	if m.err != nil {
		return domain.IndexMeta{}, m.err
	}
	return domain.IndexMeta{Count: 12}, nil
}

func (m *mockIndexer) Status(context.Context) (domain.IndexMeta, error) {
	return domain.IndexMeta{}, nil
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.IngestionService = (*mockIngestion)(nil)
var _ driving.IndexService = (*mockIndexer)(nil)

var schedulerNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestScheduler(store *mockSchedulerStore, ingest driving.IngestionService, index driving.IndexService) *Scheduler {
	config := domain.DefaultSchedulerConfig()
	return NewScheduler(config, store, ingest, index, WithSchedulerClock(func() time.Time { return schedulerNow }))
}

// ==================== Scheduler Tests ====================

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockIngestion{}, &mockIndexer{})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())
	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), nil, nil)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_Disabled(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	config.Enabled = false
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	assert.NoError(t, scheduler.Start(context.Background()))

	cancel()
	scheduler.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(store, nil, nil)

	require.NoError(t, scheduler.initialiseTasks(context.Background()))

	ingest := store.task(domain.TaskIDArgoIngest)
	assert.Equal(t, "ARGO Ingest", ingest.Name)
	assert.True(t, ingest.Enabled)
	assert.Equal(t, 6*time.Hour, ingest.Interval)
	assert.Equal(t, schedulerNow.Add(6*time.Hour), ingest.NextRun)

	rebuild := store.task(domain.TaskIDIndexRebuild)
	assert.Equal(t, "Index Rebuild", rebuild.Name)
	assert.Equal(t, 24*time.Hour, rebuild.Interval)
}

func TestScheduler_EnsureTask_UpdateInterval(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(store, nil, nil)
	ctx := context.Background()

	taskCfg := domain.TaskConfig{Enabled: true, Interval: time.Hour}
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", taskCfg))

	taskCfg.Interval = 2 * time.Hour
	taskCfg.Enabled = false
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", taskCfg))

	task := store.task("test-task")
	assert.Equal(t, 2*time.Hour, task.Interval)
	assert.Equal(t, schedulerNow.Add(2*time.Hour), task.NextRun)
	assert.False(t, task.Enabled)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{}
	index := &mockIndexer{}
	scheduler := newTestScheduler(store, ingest, index)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDArgoIngest,
		Interval: time.Hour,
		NextRun:  schedulerNow.Add(-time.Minute),
		Enabled:  true,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDIndexRebuild,
		Interval: time.Hour,
		NextRun:  schedulerNow.Add(time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, int32(1), ingest.calls.Load())
	assert.Equal(t, int32(0), index.calls.Load())

	task := store.task(domain.TaskIDArgoIngest)
	assert.Equal(t, schedulerNow, task.LastRun)
	assert.Equal(t, schedulerNow, task.LastSuccess)
	assert.Equal(t, schedulerNow.Add(time.Hour), task.NextRun)
	assert.Empty(t, task.LastError)

	history := store.history(domain.TaskIDArgoIngest)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 2, history[0].ItemsProcessed)
	assert.Contains(t, store.pruned, 100)
}

func TestScheduler_DisabledTaskNotRun(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{}
	scheduler := newTestScheduler(store, ingest, nil)

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:      domain.TaskIDArgoIngest,
		NextRun: schedulerNow.Add(-time.Minute),
	}))

	scheduler.checkAndRunDueTasks(context.Background())
	scheduler.wg.Wait()
	assert.Equal(t, int32(0), ingest.calls.Load())
}

func TestScheduler_Misfire(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{}
	scheduler := newTestScheduler(store, ingest, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDArgoIngest,
		Interval: 6 * time.Hour,
		NextRun:  schedulerNow.Add(-3 * 6 * time.Hour),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, int32(0), ingest.calls.Load())

	task := store.task(domain.TaskIDArgoIngest)
	assert.Equal(t, domain.TaskErrMisfire, task.LastError)
	assert.Equal(t, schedulerNow.Add(6*time.Hour), task.NextRun, "missed intervals coalesce")

	history := store.history(domain.TaskIDArgoIngest)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Equal(t, "misfire", history[0].Error)
}

func TestScheduler_LateWithinGraceRuns(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{}
	scheduler := newTestScheduler(store, ingest, nil)

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDArgoIngest,
		Interval: time.Hour,
		NextRun:  schedulerNow.Add(-9 * time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(context.Background())
	scheduler.wg.Wait()
	assert.Equal(t, int32(1), ingest.calls.Load())
}

func TestScheduler_FailedRunRecorded(t *testing.T) {
	store := newMockSchedulerStore()
	index := &mockIndexer{err: domain.ErrNoDocuments}
	scheduler := newTestScheduler(store, nil, index)

	err := scheduler.RunNow(context.Background(), domain.TaskIDIndexRebuild)
	assert.ErrorIs(t, err, domain.ErrNoDocuments)

	task := store.task(domain.TaskIDIndexRebuild)
	assert.Equal(t, domain.ErrNoDocuments.Error(), task.LastError)
	assert.True(t, task.LastSuccess.IsZero())

	history := store.history(domain.TaskIDIndexRebuild)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestScheduler_RunNow(t *testing.T) {
	store := newMockSchedulerStore()
	index := &mockIndexer{}
	scheduler := newTestScheduler(store, nil, index)

	require.NoError(t, scheduler.RunNow(context.Background(), domain.TaskIDIndexRebuild))
	assert.Equal(t, int32(1), index.calls.Load())

	history := store.history(domain.TaskIDIndexRebuild)
	require.Len(t, history, 1)
	assert.Equal(t, 12, history[0].ItemsProcessed)
}

func TestScheduler_RunNowUnknownTask(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), nil, nil)

	err := scheduler.RunNow(context.Background(), "document-sync")
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
}

func TestScheduler_RunNowNilServices(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), nil, nil)

	assert.NoError(t, scheduler.RunNow(context.Background(), domain.TaskIDArgoIngest))
	assert.NoError(t, scheduler.RunNow(context.Background(), domain.TaskIDIndexRebuild))
}

func TestScheduler_SingleFlight(t *testing.T) {
	store := newMockSchedulerStore()
	ingest := &mockIngestion{delay: 100 * time.Millisecond}
	scheduler := newTestScheduler(store, ingest, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, scheduler.RunNow(context.Background(), domain.TaskIDArgoIngest))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ingest.calls.Load())
	assert.Len(t, store.history(domain.TaskIDArgoIngest), 1)
}

func TestScheduler_StoreErrorsDoNotFailTask(t *testing.T) {
	store := newMockSchedulerStore()
	store.saveErr = errors.New("disk full")
	store.pruneErr = errors.New("disk full")
	scheduler := newTestScheduler(store, &mockIngestion{}, nil)

	assert.NoError(t, scheduler.RunNow(context.Background(), domain.TaskIDArgoIngest))
}

func TestScheduler_ListErrorSkipsTick(t *testing.T) {
	store := newMockSchedulerStore()
	store.listErr = errors.New("locked")
	ingest := &mockIngestion{}
	scheduler := newTestScheduler(store, ingest, nil)

	scheduler.checkAndRunDueTasks(context.Background())
	scheduler.wg.Wait()
	assert.Equal(t, int32(0), ingest.calls.Load())
}
