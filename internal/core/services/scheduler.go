package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// taskHandler runs one task and reports how many items it processed.
type taskHandler func(ctx context.Context) (int, error)

// Scheduler runs periodic ingestion and index rebuilds.
// Task state lives in the SchedulerStore so schedules survive restarts.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	handlers map[string]taskHandler
	names    map[string]string
	now      func() time.Time
	flight   singleflight.Group

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock sets the clock used for due and misfire checks.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a scheduler with configuration.
// The ingestion and index services are optional; a nil service makes its task a no-op.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	ingest driving.IngestionService,
	index driving.IndexService,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config: config,
		store:  store,
		now:    time.Now,
		active: make(map[string]bool),
		names: map[string]string{
			domain.TaskIDArgoIngest:   "ARGO Ingest",
			domain.TaskIDIndexRebuild: "Index Rebuild",
		},
	}
	s.handlers = map[string]taskHandler{
		domain.TaskIDArgoIngest: func(ctx context.Context) (int, error) {
			if ingest == nil {
				return 0, nil
			}
			report, err := ingest.Run(ctx)
			return report.Loaded, err
		},
		domain.TaskIDIndexRebuild: func(ctx context.Context) (int, error) {
			if index == nil {
				return 0, nil
			}
			meta, err := index.Build(ctx)
			return meta.Count, err
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler failed to initialise tasks", "error", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for in-flight tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// RunNow executes a task immediately and waits for it to finish.
// A run already in flight for the same task is joined, not repeated.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) error {
	if _, ok := s.handlers[taskID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTask, taskID)
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task == nil {
		cfg := s.config.GetTaskConfig(taskID)
		task = &domain.ScheduledTask{
			ID:       taskID,
			Name:     s.names[taskID],
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	}
	return s.execute(ctx, task)
}

// initialiseTasks ensures every built-in task exists in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, id := range []string{domain.TaskIDArgoIngest, domain.TaskIDIndexRebuild} {
		if err := s.ensureTask(ctx, id, s.names[id], s.config.GetTaskConfig(id)); err != nil {
			return fmt.Errorf("ensure task %s: %w", id, err)
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  now.Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = now.Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	tick := s.config.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks starts every enabled task whose NextRun has passed.
// Tasks that are later than the misfire grace are skipped and rescheduled.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler failed to list tasks", "error", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled || task.NextRun.After(now) || s.isActive(task.ID) {
			continue
		}
		if grace := s.config.MisfireGrace; grace > 0 && !task.NextRun.IsZero() && now.Sub(task.NextRun) > grace {
			s.misfire(ctx, &task, now)
			continue
		}
		s.runTask(ctx, &task)
	}
}

func (s *Scheduler) isActive(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[taskID]
}

// misfire records a skipped run and moves NextRun past now.
func (s *Scheduler) misfire(ctx context.Context, task *domain.ScheduledTask, now time.Time) {
	logger.Warn("scheduled task misfired, skipping run",
		"task", task.ID, "due", task.NextRun, "late", now.Sub(task.NextRun))

	task.LastError = domain.TaskErrMisfire
	task.NextRun = now.Add(task.Interval)
	s.persist(ctx, task, &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: now,
		EndedAt:   now,
		Error:     domain.TaskErrMisfire,
	})
}

// runTask executes a single task in the background.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.execute(ctx, task); err != nil {
			logger.Warn("scheduled task failed", "task", task.ID, "error", err)
		}
	}()
}

// execute runs a task through the single-flight group and persists its outcome.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) error {
	handler, ok := s.handlers[task.ID]
	if !ok {
		logger.Warn("scheduler has no handler for task", "task", task.ID)
		return fmt.Errorf("%w: %s", domain.ErrUnknownTask, task.ID)
	}

	_, err, _ := s.flight.Do(task.ID, func() (any, error) {
		s.mu.Lock()
		s.active[task.ID] = true
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.active, task.ID)
			s.mu.Unlock()
		}()

		logger.Info("running scheduled task", "task", task.ID)
		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: s.now(),
		}

		items, err := handler(ctx)

		result.EndedAt = s.now()
		result.ItemsProcessed = items
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)
		s.persist(ctx, task, result)

		logger.Info("scheduled task finished", "task", task.ID, "success", result.Success,
			"items", items, "elapsed", result.EndedAt.Sub(result.StartedAt))
		return nil, err
	})
	return err
}

// persist saves task state, records the result and prunes history.
// Store failures are logged; they never fail the task itself.
func (s *Scheduler) persist(ctx context.Context, task *domain.ScheduledTask, result *domain.TaskResult) {
	// The run's own context may already be cancelled.
	ctx = context.WithoutCancel(ctx)

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Error("scheduler failed to save task", "task", task.ID, "error", err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Error("scheduler failed to record result", "task", task.ID, "error", err)
	}
	if err := s.store.PruneHistory(ctx, historyRetention); err != nil {
		logger.Error("scheduler failed to prune history", "error", err)
	}
}
