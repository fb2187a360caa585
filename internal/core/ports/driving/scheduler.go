package driving

import "context"

// Scheduler runs periodic ingestion and index rebuilds.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// RunNow executes a task immediately and waits for it to finish.
	RunNow(ctx context.Context, taskID string) error
}
