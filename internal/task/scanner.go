package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/store"
)

// scanInterval is how often the scanner looks for pending tasks.
const scanInterval = 5 * time.Second

// Dispatcher hands units of work to the worker pool. Submit blocks
// until a worker is free.
type Dispatcher interface {
	Submit(ctx context.Context, unit func(ctx context.Context)) error
}

// Scanner periodically claims pending tasks and dispatches them to the
// worker pool. Claiming happens through the store's conditional status
// transition, so overlapping scans or multiple dispatch attempts cannot
// process the same record twice. Vendor configuration is not checked
// here; the processor resolves it per task and fails the task when no
// vendor is usable.
type Scanner struct {
	tasks     store.VideoTaskStore
	processor *Processor
	pool      Dispatcher
	clock     Clock
	logger    *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(
	tasks store.VideoTaskStore,
	processor *Processor,
	pool Dispatcher,
	clock Clock,
	logger *slog.Logger,
) *Scanner {
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		tasks:     tasks,
		processor: processor,
		pool:      pool,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes the scan loop until ctx is cancelled. Every error inside
// a tick is logged and survived; the loop itself only exits on
// cancellation.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info("task scanner started", "interval", scanInterval.String())

	for {
		s.ScanOnce(ctx)

		if err := s.clock.Sleep(ctx, scanInterval); err != nil {
			s.logger.Info("task scanner stopped")
			return
		}
	}
}

// ScanOnce performs a single scan pass: claim each pending task and
// dispatch it to the pool.
func (s *Scanner) ScanOnce(ctx context.Context) {
	pending, err := s.tasks.ListTasks(ctx, domain.TaskStatusPending)
	if err != nil {
		s.logger.Error("scan failed to list pending tasks", "error", err)
		return
	}
	if len(pending) == 0 {
		s.logger.Debug("scan heartbeat, no pending tasks")
		return
	}

	s.logger.Info("scan found pending tasks", "count", len(pending))

	for _, t := range pending {
		if err := s.tasks.ClaimTask(ctx, t.ID, domain.TaskStatusPending, domain.TaskStatusProcessing); err != nil {
			if errors.Is(err, store.ErrClaimLost) {
				// Another pass got there first.
				continue
			}
			s.logger.Error("failed to claim pending task", "task_id", t.ID, "error", err)
			continue
		}

		id := t.ID
		if err := s.pool.Submit(ctx, func(ctx context.Context) {
			s.processor.Process(ctx, id)
		}); err != nil {
			// The pool is shutting down or the wait was cancelled. Put
			// the claim back so the next run picks the record up.
			s.logger.Warn("failed to dispatch claimed task, returning to pending",
				"task_id", id, "error", err)
			if resetErr := s.tasks.ClaimTask(ctx, id, domain.TaskStatusProcessing, domain.TaskStatusPending); resetErr != nil {
				s.logger.Error("failed to return claimed task to pending",
					"task_id", id, "error", resetErr)
			}
			return
		}
	}
}
