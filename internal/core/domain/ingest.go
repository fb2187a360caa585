package domain

import "time"

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// StartedAt is when the run began.
	StartedAt time.Time

	// EndedAt is when the run finished.
	EndedAt time.Time

	// Discovered is the number of matching files found in the source directory.
	Discovered int

	// Skipped is the number of files already recorded in the ledger.
	Skipped int

	// Loaded is the number of files persisted and added to the ledger.
	Loaded int

	// Rejected is the number of files that failed parsing or yielded no valid profile.
	Rejected int

	// Failed is the number of files whose store write failed. They are retried next run.
	Failed int

	// Rows is the number of profiles inserted.
	Rows int

	// EmptyProfiles is the number of individual records dropped for having no usable levels.
	EmptyProfiles int

	// IngestionTimeFallbacks counts profiles stored with TimeSourceIngestion.
	IngestionTimeFallbacks int
}

// Merge adds the counters of other into r. Timestamps are left untouched.
func (r *IngestReport) Merge(other IngestReport) {
	r.Discovered += other.Discovered
	r.Skipped += other.Skipped
	r.Loaded += other.Loaded
	r.Rejected += other.Rejected
	r.Failed += other.Failed
	r.Rows += other.Rows
	r.EmptyProfiles += other.EmptyProfiles
	r.IngestionTimeFallbacks += other.IngestionTimeFallbacks
}
