package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wanmilin/glin/internal/domain"
)

// TaskUpdate describes a partial update to a video task. Nil fields are
// left untouched, so callers can persist exactly the fields a state
// transition produced (e.g. the remote job ID right after submission).
type TaskUpdate struct {
	Status      *domain.TaskStatus
	RemoteJobID *string
	VideoURL    *string
	VideoPath   *string
}

// VideoTaskStore defines the interface for video task persistence.
type VideoTaskStore interface {
	// CreateTask saves a new task to the store.
	// Returns validation errors wrapped in ErrInvalidEntity if the task
	// data is invalid.
	CreateTask(ctx context.Context, task *domain.VideoTask) error

	// GetTask retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.VideoTask, error)

	// ListTasks retrieves tasks filtered by status, newest first.
	// An empty status returns all tasks.
	ListTasks(ctx context.Context, status domain.TaskStatus) ([]*domain.VideoTask, error)

	// UpdateTask applies a partial update to an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateTask(ctx context.Context, id uuid.UUID, update TaskUpdate) error

	// ClaimTask transitions a task from one status to another only if it
	// is currently in the expected status. This is the single
	// mutual-exclusion point that prevents two workers from racing on
	// the same record: the scanner claims pending→processing before
	// dispatching. Returns ErrClaimLost if the record was not in the
	// expected status, ErrTaskNotFound if it does not exist.
	ClaimTask(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error

	// DeleteTask removes a task from the store.
	// Returns ErrTaskNotFound if the task does not exist.
	DeleteTask(ctx context.Context, id uuid.UUID) error

	// DeleteAllTasks removes every task and returns the number deleted.
	DeleteAllTasks(ctx context.Context) (int64, error)
}
