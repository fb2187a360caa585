package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const taskColumns = `id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// GetTask retrieves a scheduled task by ID.
// Returns nil and no error if the task does not exist.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns all scheduled tasks ordered by ID.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask //nolint:prealloc // size unknown from query
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled tasks: %w", err)
	}
	return tasks, nil
}

// SaveTask creates or updates a task.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`, task.ID, task.Name, int64(task.Interval/time.Second),
		nullTime(task.LastRun), nullTime(task.NextRun),
		nullString(task.LastError), nullTime(task.LastSuccess),
		task.Enabled)
	if err != nil {
		return fmt.Errorf("saving scheduled task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask removes a task. Its history is kept.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, taskID); err != nil {
		return fmt.Errorf("deleting scheduled task %s: %w", taskID, err)
	}
	return nil
}

// RecordResult appends a task execution result.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil || result.TaskID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.TaskID, formatTime(result.StartedAt), formatTime(result.EndedAt),
		result.Success, nullString(result.Error), result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("recording result for %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns recent results for a task, most recent first.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, started_at, ended_at, success, error, items_processed
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, taskID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying history of %s: %w", taskID, err)
	}
	defer rows.Close()

	var results []domain.TaskResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.TaskResult
		var started, ended string
		var errMsg sql.NullString
		if err := rows.Scan(&r.TaskID, &started, &ended, &r.Success, &errMsg, &r.ItemsProcessed); err != nil {
			return nil, fmt.Errorf("scanning task result: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		if r.EndedAt, err = parseTime(ended); err != nil {
			return nil, fmt.Errorf("parsing ended_at %q: %w", ended, err)
		}
		r.Error = errMsg.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task history: %w", err)
	}
	return results, nil
}

// PruneHistory keeps the most recent keep results per task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_results
			) WHERE rn > ?
		)
	`, max(keep, 0))
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	var intervalSeconds int64
	var lastRun, nextRun, lastError, lastSuccess sql.NullString

	if err := row.Scan(&task.ID, &task.Name, &intervalSeconds,
		&lastRun, &nextRun, &lastError, &lastSuccess, &task.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning scheduled task: %w", err)
	}

	task.Interval = time.Duration(intervalSeconds) * time.Second
	task.LastError = lastError.String
	for _, f := range []struct {
		raw sql.NullString
		dst *time.Time
	}{{lastRun, &task.LastRun}, {nextRun, &task.NextRun}, {lastSuccess, &task.LastSuccess}} {
		if !f.raw.Valid {
			continue
		}
		t, err := parseTime(f.raw.String)
		if err != nil {
			return nil, fmt.Errorf("parsing time of task %s: %w", task.ID, err)
		}
		*f.dst = t
	}
	return &task, nil
}

// nullTime stores the zero time as NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// nullString stores the empty string as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
