package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/wanmilin/glin/internal/domain"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task submission
// endpoint. At least one of prompt and image_path must be present,
// which is enforced by domain validation rather than a struct tag.
type CreateTaskRequest struct {
	Prompt    string `json:"prompt"     validate:"max=4000"`
	ImagePath string `json:"image_path" validate:"max=1024"`
}

// TaskResponse is the JSON shape of a single task.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	ImagePath   string    `json:"image_path"`
	Prompt      string    `json:"prompt"`
	Status      string    `json:"status"`
	RemoteJobID string    `json:"remote_job_id"`
	VideoURL    string    `json:"video_url"`
	VideoPath   string    `json:"video_path"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTaskResponse(t *domain.VideoTask) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ImagePath:   t.ImagePath,
		Prompt:      t.Prompt,
		Status:      string(t.Status),
		RemoteJobID: t.RemoteJobID,
		VideoURL:    t.VideoURL,
		VideoPath:   t.VideoPath,
		CreatedAt:   t.CreatedAt,
	}
}

// TaskListResponse wraps a task listing.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// DeleteAllResponse reports the result of a bulk delete.
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// DownloadResponse reports where a manual download landed.
type DownloadResponse struct {
	VideoPath string `json:"video_path"`
}

// SettingsResponse is the JSON shape of the settings map.
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
}

// UpdateSettingsRequest defines the payload for the settings update
// endpoint. Every provided key is written; absent keys are untouched.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}
