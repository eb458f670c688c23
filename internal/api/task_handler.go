package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/store"
)

// TaskDownloader fetches the artifact of a completed task on demand.
type TaskDownloader interface {
	Download(ctx context.Context, id uuid.UUID) (string, error)
}

// TaskHandler handles task-related API requests.
type TaskHandler struct {
	tasks      store.VideoTaskStore
	downloader TaskDownloader
	validator  *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(tasks store.VideoTaskStore, downloader TaskDownloader) *TaskHandler {
	return &TaskHandler{
		tasks:      tasks,
		downloader: downloader,
		validator:  validator.New(),
	}
}

// Create handles POST /tasks. The record lands in the pending state and
// the scanner picks it up on its next pass.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := domain.NewVideoTask(req.ImagePath, req.Prompt)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid task data: "+err.Error())
		return
	}

	if err := h.tasks.CreateTask(r.Context(), task); err != nil {
		HandleStoreError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// List handles GET /tasks with an optional status filter.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.TaskStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsKnown() {
		RespondWithError(w, r, http.StatusBadRequest, "Unknown status filter")
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), status)
	if err != nil {
		HandleStoreError(w, r, err)
		return
	}

	resp := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks)), Count: len(tasks)}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(t))
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		HandleStoreError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		HandleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll handles DELETE /tasks and reports how many records went.
func (h *TaskHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.tasks.DeleteAllTasks(r.Context())
	if err != nil {
		HandleStoreError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, DeleteAllResponse{Deleted: deleted})
}

// Retry handles POST /tasks/{id}/retry. A failed task is returned to
// the pending state with its previous run's outputs cleared, so the
// scanner submits it as a fresh job.
func (h *TaskHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.ClaimTask(r.Context(), id, domain.TaskStatusFailed, domain.TaskStatusPending); err != nil {
		if errors.Is(err, store.ErrClaimLost) {
			RespondWithError(w, r, http.StatusConflict, "Only failed tasks can be retried")
			return
		}
		HandleStoreError(w, r, err)
		return
	}

	empty := ""
	if err := h.tasks.UpdateTask(r.Context(), id, store.TaskUpdate{
		RemoteJobID: &empty,
		VideoURL:    &empty,
		VideoPath:   &empty,
	}); err != nil {
		HandleStoreError(w, r, err)
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		HandleStoreError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Download handles POST /tasks/{id}/download, fetching the artifact of
// a completed task on demand.
func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	dest, err := h.downloader.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			HandleStoreError(w, r, err)
			return
		}
		RespondWithError(w, r, http.StatusConflict, "Download failed: "+err.Error())
		return
	}
	RespondWithJSON(w, r, http.StatusOK, DownloadResponse{VideoPath: dest})
}

// pathTaskID extracts and parses the {id} path parameter, writing a 400
// response on failure.
func pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}
