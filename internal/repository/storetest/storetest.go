// Package storetest holds the behaviour every repository.Store must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/submission"
)

var epoch = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

// Run exercises store. The store must be empty.
func Run(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("jobs", func(t *testing.T) {
		_, ok, err := store.Job(ctx, "JOB_missing")
		require.NoError(t, err)
		assert.False(t, ok)

		late := job.Record{ID: "JOB_b", TaskConfigID: "t2", Status: job.StatusPending, CreationDate: epoch.Add(time.Second)}
		early := job.Record{
			ID: "JOB_a", TaskConfigID: "t1", SubmitID: "SUB_1", Status: job.StatusFailed,
			Stacktrace: []string{"boom"}, CreationDate: epoch,
		}
		require.NoError(t, store.SaveJob(ctx, late))
		require.NoError(t, store.SaveJob(ctx, early))

		got, ok, err := store.Job(ctx, "JOB_a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "SUB_1", got.SubmitID)
		assert.Equal(t, job.StatusFailed, got.Status)
		assert.Equal(t, []string{"boom"}, got.Stacktrace)
		assert.True(t, epoch.Equal(got.CreationDate))

		all, err := store.Jobs(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "JOB_a", all[0].ID)
		assert.Equal(t, "JOB_b", all[1].ID)

		late.Status = job.StatusCompleted
		require.NoError(t, store.SaveJob(ctx, late))
		got, _, err = store.Job(ctx, "JOB_b")
		require.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, got.Status)

		require.NoError(t, store.DeleteJob(ctx, "JOB_a"))
		_, ok, err = store.Job(ctx, "JOB_a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("submissions", func(t *testing.T) {
		rec := submission.Record{
			ID: "SUB_1", EntityID: "SCENARIO_1", EntityType: "SCENARIO", EntityConfigID: "sc",
			JobIDs: []string{"JOB_a", "JOB_b"}, Status: submission.StatusRunning,
			Properties: map[string]any{"owner": "ops"}, CreationDate: epoch,
		}
		require.NoError(t, store.SaveSubmission(ctx, rec))

		got, ok, err := store.Submission(ctx, "SUB_1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rec.JobIDs, got.JobIDs)
		assert.Equal(t, submission.StatusRunning, got.Status)
		assert.Equal(t, "ops", got.Properties["owner"])

		all, err := store.Submissions(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		require.NoError(t, store.DeleteSubmission(ctx, "SUB_1"))
		_, ok, err = store.Submission(ctx, "SUB_1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
