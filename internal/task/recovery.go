package task

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/store"
)

// Recovery handles tasks left in the processing state by a crash or
// restart. It runs once at startup, before the scanner starts.
type Recovery struct {
	tasks     store.VideoTaskStore
	settings  store.SettingsStore
	selector  AdapterSelector
	processor *Processor
	pool      Dispatcher
	logger    *slog.Logger
}

// NewRecovery creates a Recovery.
func NewRecovery(
	tasks store.VideoTaskStore,
	settings store.SettingsStore,
	selector AdapterSelector,
	processor *Processor,
	pool Dispatcher,
	logger *slog.Logger,
) *Recovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recovery{
		tasks:     tasks,
		settings:  settings,
		selector:  selector,
		processor: processor,
		pool:      pool,
		logger:    logger,
	}
}

// Run inspects every task stuck in processing. Records with a remote
// job ID resume polling on the worker pool; records without one never
// reached the vendor, so they are reset to pending for a clean
// re-submission. When no vendor can be selected at all, every orphan is
// reset to pending and left for the scanner.
func (r *Recovery) Run(ctx context.Context) error {
	orphans, err := r.tasks.ListTasks(ctx, domain.TaskStatusProcessing)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		r.logger.Info("recovery found no interrupted tasks")
		return nil
	}

	r.logger.Info("recovering interrupted tasks", "count", len(orphans))

	snapshot, err := r.settings.GetAll(ctx)
	if err != nil {
		return err
	}
	if _, selErr := r.selector.Select(snapshot); selErr != nil {
		r.logger.Warn("no vendor configured, resetting all interrupted tasks to pending",
			"reason", selErr.Error())
		for _, t := range orphans {
			r.reset(ctx, t.ID)
		}
		return nil
	}

	for _, t := range orphans {
		if t.RemoteJobID == "" {
			// The create call never succeeded, so there is no remote
			// job to poll.
			r.logger.Info("resetting interrupted task without remote job", "task_id", t.ID)
			r.reset(ctx, t.ID)
			continue
		}

		id := t.ID
		r.logger.Info("resuming interrupted task", "task_id", id, "remote_job_id", t.RemoteJobID)
		if err := r.pool.Submit(ctx, func(ctx context.Context) {
			r.processor.ResumePolling(ctx, id)
		}); err != nil {
			r.logger.Error("failed to dispatch resumed task", "task_id", id, "error", err)
			r.reset(ctx, id)
		}
	}

	return nil
}

func (r *Recovery) reset(ctx context.Context, id uuid.UUID) {
	pending := domain.TaskStatusPending
	if err := r.tasks.UpdateTask(ctx, id, store.TaskUpdate{Status: &pending}); err != nil {
		r.logger.Error("failed to reset interrupted task to pending", "task_id", id, "error", err)
	}
}
