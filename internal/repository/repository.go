// Package repository defines where job and submission records are kept.
//
// # Why Repository Exists
//
// Jobs and submissions live in the orchestrator's memory while a run is in
// progress. Their records are also written through a Store so that they can be
// inspected after the process finishes (see the `jobs` command) and so that
// the status server can answer for entities the orchestrator already deleted.
//
// Stores only hold flat records (job.Record, submission.Record). They never
// hold live entities, so a record read back is a snapshot, not a handle.
//
// # Implementations
//
//   - memory: sync.Map backed, for tests and runs without --store.
//   - badger: BadgerDB backed, msgpack-encoded, persistent across runs.
package repository

import (
	"context"
	"sort"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/submission"
)

// Store persists job and submission records. Implementations must be safe for
// concurrent use. Lookups of unknown IDs return ok == false and no error.
type Store interface {
	SaveJob(ctx context.Context, rec job.Record) error
	Job(ctx context.Context, id string) (rec job.Record, ok bool, err error)
	Jobs(ctx context.Context) ([]job.Record, error)
	DeleteJob(ctx context.Context, id string) error

	SaveSubmission(ctx context.Context, rec submission.Record) error
	Submission(ctx context.Context, id string) (rec submission.Record, ok bool, err error)
	Submissions(ctx context.Context) ([]submission.Record, error)
	DeleteSubmission(ctx context.Context, id string) error

	Close() error
}

// SortJobs orders records by creation date, then ID.
func SortJobs(recs []job.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreationDate.Equal(recs[j].CreationDate) {
			return recs[i].CreationDate.Before(recs[j].CreationDate)
		}
		return recs[i].ID < recs[j].ID
	})
}

// SortSubmissions orders records by creation date, then ID.
func SortSubmissions(recs []submission.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreationDate.Equal(recs[j].CreationDate) {
			return recs[i].CreationDate.Before(recs[j].CreationDate)
		}
		return recs[i].ID < recs[j].ID
	})
}
