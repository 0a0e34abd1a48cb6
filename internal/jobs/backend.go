package jobs

import "context"

// Backend mirrors the store for restart recovery.
type Backend interface {
	// LoadJobs returns persisted jobs and the last id ever issued.
	LoadJobs(ctx context.Context) ([]*Job, uint64, error)
	// InsertJob persists job and records its id as issued.
	InsertJob(ctx context.Context, job *Job) error
	DeleteJob(ctx context.Context, id uint64) error
	DeleteAllJobs(ctx context.Context) error
}
