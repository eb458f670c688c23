package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a video task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further automatic transitions occur
// from this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// IsKnown reports whether s is one of the defined status values.
func (s TaskStatus) IsKnown() bool {
	return isValidTaskStatus(s)
}

// Common validation errors for VideoTask
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskInput    = errors.New("task needs a prompt or an input image")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// VideoTask is the persisted unit of work tracked through its
// generation lifecycle. It is created in state pending by the
// submission API, claimed by the scanner, advanced by the task
// processor, and terminates at completed or failed.
type VideoTask struct {
	ID        uuid.UUID  `json:"id"`
	ImagePath string     `json:"image_path"`
	Prompt    string     `json:"prompt"`
	Status    TaskStatus `json:"status"`

	// RemoteJobID is the provider-assigned job identifier. It is empty
	// until a remote create call has actually succeeded.
	RemoteJobID string `json:"remote_job_id"`

	// VideoURL is the remote artifact location, set when the remote job
	// completes. VideoPath is the local file location, set only after a
	// download has finished.
	VideoURL  string    `json:"video_url"`
	VideoPath string    `json:"video_path"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVideoTask creates a new VideoTask in the pending state with a
// freshly generated ID. Returns an error if validation fails.
func NewVideoTask(imagePath, prompt string) (*VideoTask, error) {
	task := &VideoTask{
		ID:        uuid.New(),
		ImagePath: imagePath,
		Prompt:    prompt,
		Status:    TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the VideoTask has valid data.
func (t *VideoTask) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Prompt == "" && t.ImagePath == "" {
		return ErrEmptyTaskInput
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}
