// Package memory provides an ephemeral, thread-safe, in-memory implementation
// of repository.Store.
//
// Records are kept in two sync.Maps. Each key is written independently by
// status-change hooks running on different goroutines, which is the access
// pattern sync.Map is built for.
package memory

import (
	"context"
	"sync"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/submission"
)

// Store is an in-memory repository.Store.
type Store struct {
	jobs        sync.Map // Key: job ID, Value: job.Record
	submissions sync.Map // Key: submission ID, Value: submission.Record
}

var _ repository.Store = (*Store)(nil)

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) SaveJob(_ context.Context, rec job.Record) error {
	s.jobs.Store(rec.ID, rec)
	return nil
}

func (s *Store) Job(_ context.Context, id string) (job.Record, bool, error) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return job.Record{}, false, nil
	}
	return v.(job.Record), true, nil
}

func (s *Store) Jobs(_ context.Context) ([]job.Record, error) {
	var out []job.Record
	s.jobs.Range(func(_, v any) bool {
		out = append(out, v.(job.Record))
		return true
	})
	repository.SortJobs(out)
	return out, nil
}

func (s *Store) DeleteJob(_ context.Context, id string) error {
	s.jobs.Delete(id)
	return nil
}

func (s *Store) SaveSubmission(_ context.Context, rec submission.Record) error {
	s.submissions.Store(rec.ID, rec)
	return nil
}

func (s *Store) Submission(_ context.Context, id string) (submission.Record, bool, error) {
	v, ok := s.submissions.Load(id)
	if !ok {
		return submission.Record{}, false, nil
	}
	return v.(submission.Record), true, nil
}

func (s *Store) Submissions(_ context.Context) ([]submission.Record, error) {
	var out []submission.Record
	s.submissions.Range(func(_, v any) bool {
		out = append(out, v.(submission.Record))
		return true
	})
	repository.SortSubmissions(out)
	return out, nil
}

func (s *Store) DeleteSubmission(_ context.Context, id string) error {
	s.submissions.Delete(id)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
