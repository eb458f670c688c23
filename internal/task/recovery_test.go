package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/provider"
)

func newTestRecovery(
	tasks *memoryTaskStore,
	settings *memorySettings,
	selector AdapterSelector,
	pool Dispatcher,
) *Recovery {
	processor := newTestProcessor(tasks, settings, selector, newFakeClock())
	return NewRecovery(tasks, settings, selector, processor, pool, testLogger())
}

func TestRecovery_Run_ResumesTasksWithRemoteJob(t *testing.T) {
	t.Parallel()

	tasks := newMemoryTaskStore()
	settings := newMemorySettings(nil)
	adapter := &scriptedAdapter{
		queries: []provider.JobSnapshot{{Status: provider.JobCompleted, VideoURL: "https://cdn/v.mp4"}},
	}
	selector := &stubSelector{selection: &provider.Selection{Adapter: adapter}}
	pool := &inlineDispatcher{}

	interrupted := mustCreateTask(t, tasks, "interrupted", domain.TaskStatusProcessing)
	require.NoError(t, tasks.UpdateTask(context.Background(), interrupted.ID, taskRemoteID("job-r")))

	require.NoError(t, newTestRecovery(tasks, settings, selector, pool).Run(context.Background()))

	got := tasks.mustGet(interrupted.ID)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	// Resume path never re-creates the remote job.
	assert.Zero(t, adapter.createCount())
	assert.Equal(t, 1, adapter.queryCount())
}

func TestRecovery_Run_ResetsTasksWithoutRemoteJob(t *testing.T) {
	t.Parallel()

	tasks := newMemoryTaskStore()
	settings := newMemorySettings(nil)
	adapter := &scriptedAdapter{}
	selector := &stubSelector{selection: &provider.Selection{Adapter: adapter}}
	pool := &inlineDispatcher{}

	orphan := mustCreateTask(t, tasks, "never submitted", domain.TaskStatusProcessing)

	require.NoError(t, newTestRecovery(tasks, settings, selector, pool).Run(context.Background()))

	assert.Equal(t, domain.TaskStatusPending, tasks.mustGet(orphan.ID).Status)
	assert.Zero(t, pool.submitted)
	assert.Zero(t, adapter.queryCount())
}

func TestRecovery_Run_NoVendorResetsEverything(t *testing.T) {
	t.Parallel()

	tasks := newMemoryTaskStore()
	settings := newMemorySettings(nil)
	selector := &stubSelector{err: errors.New("missing API key for vendor dayangyu")}
	pool := &inlineDispatcher{}

	withJob := mustCreateTask(t, tasks, "had a job", domain.TaskStatusProcessing)
	require.NoError(t, tasks.UpdateTask(context.Background(), withJob.ID, taskRemoteID("job-x")))
	withoutJob := mustCreateTask(t, tasks, "no job", domain.TaskStatusProcessing)

	require.NoError(t, newTestRecovery(tasks, settings, selector, pool).Run(context.Background()))

	assert.Equal(t, domain.TaskStatusPending, tasks.mustGet(withJob.ID).Status)
	assert.Equal(t, domain.TaskStatusPending, tasks.mustGet(withoutJob.ID).Status)
	assert.Zero(t, pool.submitted)
	// The remote ID survives the reset so nothing is lost if settings
	// come back before the scanner re-claims the record.
	assert.Equal(t, "job-x", tasks.mustGet(withJob.ID).RemoteJobID)
}

func TestRecovery_Run_IgnoresSettledTasks(t *testing.T) {
	t.Parallel()

	tasks := newMemoryTaskStore()
	settings := newMemorySettings(nil)
	selector := &stubSelector{selection: &provider.Selection{Adapter: &scriptedAdapter{}}}
	pool := &inlineDispatcher{}

	pending := mustCreateTask(t, tasks, "pending", domain.TaskStatusPending)
	completed := mustCreateTask(t, tasks, "done", domain.TaskStatusCompleted)
	failed := mustCreateTask(t, tasks, "failed", domain.TaskStatusFailed)

	require.NoError(t, newTestRecovery(tasks, settings, selector, pool).Run(context.Background()))

	assert.Zero(t, pool.submitted)
	assert.Equal(t, domain.TaskStatusPending, tasks.mustGet(pending.ID).Status)
	assert.Equal(t, domain.TaskStatusCompleted, tasks.mustGet(completed.ID).Status)
	assert.Equal(t, domain.TaskStatusFailed, tasks.mustGet(failed.ID).Status)
}

func TestRecovery_Run_DispatchFailureResets(t *testing.T) {
	t.Parallel()

	tasks := newMemoryTaskStore()
	settings := newMemorySettings(nil)
	selector := &stubSelector{selection: &provider.Selection{Adapter: &scriptedAdapter{}}}
	pool := &inlineDispatcher{err: errors.New("worker pool is shut down")}

	interrupted := mustCreateTask(t, tasks, "interrupted", domain.TaskStatusProcessing)
	require.NoError(t, tasks.UpdateTask(context.Background(), interrupted.ID, taskRemoteID("job-y")))

	require.NoError(t, newTestRecovery(tasks, settings, selector, pool).Run(context.Background()))

	assert.Equal(t, domain.TaskStatusPending, tasks.mustGet(interrupted.ID).Status)
}
