package task

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/provider"
	"github.com/wanmilin/glin/internal/store"
)

// Submission and polling parameters. A single job is given up on after
// pollAttempts queries, which at the default interval bounds one
// polling phase to 30 minutes; a dead job counts against the retry
// budget and is re-submitted from scratch.
const (
	defaultMaxRetry = 3
	retryBackoff    = 5 * time.Second
	pollAttempts    = 60
	pollInterval    = 30 * time.Second
)

// pollOutcome is the result of a single polling phase.
type pollOutcome int

const (
	pollCompleted pollOutcome = iota
	pollFailed
	pollTimedOut
	pollInterrupted
)

// AdapterSelector resolves a settings snapshot into a vendor adapter
// and its request parameters.
type AdapterSelector interface {
	Select(settings map[string]string) (*provider.Selection, error)
}

// Processor drives a claimed task through submission, polling and
// download. It owns no concurrency of its own; the scanner dispatches
// one Process call per claimed task onto the worker pool.
type Processor struct {
	tasks      store.VideoTaskStore
	settings   store.SettingsStore
	selector   AdapterSelector
	downloader *Downloader
	clock      Clock
	logger     *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(
	tasks store.VideoTaskStore,
	settings store.SettingsStore,
	selector AdapterSelector,
	downloader *Downloader,
	clock Clock,
	logger *slog.Logger,
) *Processor {
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		tasks:      tasks,
		settings:   settings,
		selector:   selector,
		downloader: downloader,
		clock:      clock,
		logger:     logger,
	}
}

// Process runs a freshly claimed task through the full lifecycle:
// submit to the vendor, persist the remote job ID, poll to a terminal
// state, and optionally download the artifact. A failed submission, a
// remotely failed job, or a polling timeout all consume one attempt
// and re-submit from scratch until the retry budget runs out. The
// record is expected to already be in the processing state.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) {
	logger := p.logger.With("task_id", id)

	task, err := p.tasks.GetTask(ctx, id)
	if err != nil {
		logger.Error("failed to load claimed task", "error", err)
		return
	}

	snapshot, selection, err := p.resolve(ctx)
	if err != nil {
		// A configuration problem cannot resolve itself mid-flight, so
		// the task fails instead of looping back to pending.
		logger.Error("no vendor available", "error", err)
		p.setStatus(ctx, id, domain.TaskStatusFailed, logger)
		return
	}
	logger = logger.With("vendor", selection.Adapter.Name())

	maxRetry := maxRetryFrom(snapshot)
	req := provider.CreateRequest{
		Prompt:      task.Prompt,
		ImagePath:   task.ImagePath,
		Model:       selection.Model,
		Orientation: selection.Orientation,
		Duration:    selection.Duration,
	}

	for attempt := 0; attempt <= maxRetry; attempt++ {
		if attempt > 0 {
			logger.Info("retrying task", "attempt", attempt, "max_retry", maxRetry)
			if err := p.clock.Sleep(ctx, retryBackoff); err != nil {
				// A shutdown leaves the record in processing for
				// startup recovery.
				logger.Warn("retry wait interrupted", "error", err)
				return
			}
		}

		snap := selection.Adapter.CreateJob(ctx, req)
		if snap.Status == provider.JobFailed || snap.RemoteID == "" {
			logger.Warn("submission attempt failed",
				"attempt", attempt,
				"max_retry", maxRetry,
				"error_message", snap.ErrorMessage)
			continue
		}

		// Persist the remote ID before polling so a crash resumes the
		// existing job instead of creating a duplicate.
		if err := p.tasks.UpdateTask(ctx, task.ID, store.TaskUpdate{RemoteJobID: &snap.RemoteID}); err != nil {
			logger.Error("failed to persist remote job id", "error", err)
			return
		}
		task.RemoteJobID = snap.RemoteID
		logger.Info("submitted remote job", "remote_job_id", snap.RemoteID, "attempt", attempt)

		switch p.poll(ctx, task, snapshot, selection, logger) {
		case pollCompleted, pollInterrupted:
			return
		}
		// The remote job failed or timed out; the next attempt submits
		// a fresh one.
	}

	if ctx.Err() != nil {
		return
	}
	logger.Error("task failed after all attempts", "attempts", maxRetry+1)
	p.setStatus(ctx, task.ID, domain.TaskStatusFailed, logger)
}

// ResumePolling re-enters the polling phase for a task that already has
// a remote job ID, after a restart interrupted the original Process
// call. It never re-submits: the resumed job gets this single polling
// phase and fails outright if the job is dead or the budget runs out.
func (p *Processor) ResumePolling(ctx context.Context, id uuid.UUID) {
	logger := p.logger.With("task_id", id)

	task, err := p.tasks.GetTask(ctx, id)
	if err != nil {
		logger.Error("failed to load task for resumed polling", "error", err)
		return
	}
	if task.RemoteJobID == "" {
		logger.Error("cannot resume polling without a remote job id")
		p.setStatus(ctx, id, domain.TaskStatusPending, logger)
		return
	}

	snapshot, selection, err := p.resolve(ctx)
	if err != nil {
		logger.Warn("no vendor available, returning task to pending", "error", err)
		p.setStatus(ctx, id, domain.TaskStatusPending, logger)
		return
	}
	logger = logger.With("vendor", selection.Adapter.Name())

	logger.Info("resuming polling", "remote_job_id", task.RemoteJobID)
	switch p.poll(ctx, task, snapshot, selection, logger) {
	case pollFailed, pollTimedOut:
		p.setStatus(ctx, id, domain.TaskStatusFailed, logger)
	}
}

// Download fetches the artifact for an already completed task and
// persists the local path. Used by the manual download operation; the
// automatic post-completion download goes through the same Downloader.
func (p *Processor) Download(ctx context.Context, id uuid.UUID) (string, error) {
	task, err := p.tasks.GetTask(ctx, id)
	if err != nil {
		return "", err
	}
	if task.Status != domain.TaskStatusCompleted {
		return "", fmt.Errorf("task %s is not completed", id)
	}

	snapshot, selection, err := p.resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("no vendor available for download: %w", err)
	}

	dest, err := p.downloader.Download(ctx, selection.Adapter, task, snapshot[domain.SettingDownloadPath])
	if err != nil {
		return "", err
	}

	if err := p.tasks.UpdateTask(ctx, id, store.TaskUpdate{VideoPath: &dest}); err != nil {
		return "", fmt.Errorf("failed to persist video path: %w", err)
	}
	return dest, nil
}

// resolve snapshots settings and selects the vendor adapter.
func (p *Processor) resolve(ctx context.Context) (map[string]string, *provider.Selection, error) {
	snapshot, err := p.settings.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read settings: %w", err)
	}
	selection, err := p.selector.Select(snapshot)
	if err != nil {
		return nil, nil, err
	}
	return snapshot, selection, nil
}

// poll sleeps the poll interval and queries the remote job, repeating
// until the job reaches a terminal state or the attempt budget runs
// out. The task's completion is persisted here; every other outcome is
// left to the caller.
func (p *Processor) poll(
	ctx context.Context,
	task *domain.VideoTask,
	snapshot map[string]string,
	selection *provider.Selection,
	logger *slog.Logger,
) pollOutcome {
	for attempt := 0; attempt < pollAttempts; attempt++ {
		if err := p.clock.Sleep(ctx, pollInterval); err != nil {
			logger.Warn("polling interrupted", "error", err)
			return pollInterrupted
		}

		snap := selection.Adapter.QueryJob(ctx, task.RemoteJobID)
		switch snap.Status {
		case provider.JobCompleted:
			p.complete(ctx, task, snap, snapshot, selection, logger)
			return pollCompleted

		case provider.JobFailed:
			logger.Warn("remote job failed", "error_message", snap.ErrorMessage)
			return pollFailed

		default:
			logger.Debug("remote job still running",
				"status", string(snap.Status),
				"progress", snap.Progress,
				"attempt", attempt)
		}
	}

	logger.Warn("polling budget exhausted", "attempts", pollAttempts)
	return pollTimedOut
}

// complete persists the finished job and runs the optional automatic
// download. A download failure never demotes a completed task.
func (p *Processor) complete(
	ctx context.Context,
	task *domain.VideoTask,
	snap provider.JobSnapshot,
	snapshot map[string]string,
	selection *provider.Selection,
	logger *slog.Logger,
) {
	completed := domain.TaskStatusCompleted
	update := store.TaskUpdate{Status: &completed}
	if snap.VideoURL != "" {
		update.VideoURL = &snap.VideoURL
	}
	if err := p.tasks.UpdateTask(ctx, task.ID, update); err != nil {
		logger.Error("failed to persist completed task", "error", err)
		return
	}
	task.VideoURL = snap.VideoURL
	logger.Info("task completed", "video_url", snap.VideoURL)

	if !settingEnabled(snapshot, domain.SettingAutoDownload) {
		return
	}
	dir := snapshot[domain.SettingDownloadPath]
	if dir == "" {
		logger.Warn("automatic download skipped, no download path configured")
		return
	}

	dest, err := p.downloader.Download(ctx, selection.Adapter, task, dir)
	if err != nil {
		logger.Warn("automatic download failed", "error", err)
		return
	}
	if err := p.tasks.UpdateTask(ctx, task.ID, store.TaskUpdate{VideoPath: &dest}); err != nil {
		logger.Error("failed to persist video path", "error", err)
	}
}

func (p *Processor) setStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus, logger *slog.Logger) {
	if err := p.tasks.UpdateTask(ctx, id, store.TaskUpdate{Status: &status}); err != nil {
		logger.Error("failed to update task status", "status", string(status), "error", err)
	}
}

// maxRetryFrom reads the retry budget from settings: video_max_retry
// (default 3) when auto_retry has been switched on, zero otherwise.
func maxRetryFrom(settings map[string]string) int {
	if !settingEnabled(settings, domain.SettingAutoRetry) {
		return 0
	}
	if raw := settings[domain.SettingVideoMaxRetry]; raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultMaxRetry
}

// settingEnabled reports whether a boolean setting has been switched
// on. Absent keys are off.
func settingEnabled(settings map[string]string, key string) bool {
	switch strings.ToLower(settings[key]) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}
