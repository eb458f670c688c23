package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/platform/logger"
	"github.com/wanmilin/glin/internal/store"
)

// SQLiteVideoTaskStore implements the store.VideoTaskStore interface
// using SQLite.
type SQLiteVideoTaskStore struct {
	db store.DBTX
}

// NewVideoTaskStore creates a new SQLiteVideoTaskStore.
func NewVideoTaskStore(db store.DBTX) *SQLiteVideoTaskStore {
	return &SQLiteVideoTaskStore{db: db}
}

// Ensure SQLiteVideoTaskStore implements store.VideoTaskStore.
var _ store.VideoTaskStore = (*SQLiteVideoTaskStore)(nil)

// CreateTask saves a new task to the database.
func (s *SQLiteVideoTaskStore) CreateTask(ctx context.Context, task *domain.VideoTask) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		log.Warn("rejecting invalid task", "error", err)
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO video_tasks (id, image_path, prompt, status, remote_job_id, video_url, video_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID.String(),
		task.ImagePath,
		task.Prompt,
		string(task.Status),
		task.RemoteJobID,
		task.VideoURL,
		task.VideoPath,
		task.CreatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to save task", "task_id", task.ID, "error", err)
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by its unique ID.
func (s *SQLiteVideoTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.VideoTask, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, image_path, prompt, status, remote_job_id, video_url, video_path, created_at
		FROM video_tasks
		WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, id.String())

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasks retrieves tasks filtered by status, newest first. An empty
// status returns every task.
func (s *SQLiteVideoTaskStore) ListTasks(ctx context.Context, status domain.TaskStatus) ([]*domain.VideoTask, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, image_path, prompt, status, remote_job_id, video_url, video_path, created_at
		FROM video_tasks
	`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", "status", string(status), "error", err)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.VideoTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", "error", err)
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// UpdateTask applies a partial update to an existing task. Only the
// non-nil fields of the update are written.
func (s *SQLiteVideoTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update store.TaskUpdate) error {
	log := logger.FromContext(ctx)

	var sets []string
	var args []interface{}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.RemoteJobID != nil {
		sets = append(sets, "remote_job_id = ?")
		args = append(args, *update.RemoteJobID)
	}
	if update.VideoURL != nil {
		sets = append(sets, "video_url = ?")
		args = append(args, *update.VideoURL)
	}
	if update.VideoPath != nil {
		sets = append(sets, "video_path = ?")
		args = append(args, *update.VideoPath)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE video_tasks SET %s WHERE id = ?", strings.Join(sets, ", "))
	args = append(args, id.String())

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task", "task_id", id, "error", err)
		return fmt.Errorf("failed to update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// ClaimTask transitions a task between statuses with a single
// conditional UPDATE, which is the mutual-exclusion point between the
// scanner and any concurrent pass over the same records.
func (s *SQLiteVideoTaskStore) ClaimTask(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error {
	log := logger.FromContext(ctx)

	query := `UPDATE video_tasks SET status = ? WHERE id = ? AND status = ?`
	result, err := s.db.ExecContext(ctx, query, string(to), id.String(), string(from))
	if err != nil {
		log.Error("failed to claim task", "task_id", id, "error", err)
		return fmt.Errorf("failed to claim task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a lost race from a missing record.
	if _, err := s.GetTask(ctx, id); err != nil {
		return err
	}
	return store.ErrClaimLost
}

// DeleteTask removes a task from the database.
func (s *SQLiteVideoTaskStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM video_tasks WHERE id = ?`, id.String())
	if err != nil {
		log.Error("failed to delete task", "task_id", id, "error", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// DeleteAllTasks removes every task and returns the number deleted.
func (s *SQLiteVideoTaskStore) DeleteAllTasks(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM video_tasks`)
	if err != nil {
		log.Error("failed to delete all tasks", "error", err)
		return 0, fmt.Errorf("failed to delete all tasks: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.VideoTask, error) {
	var (
		rawID     string
		task      domain.VideoTask
		rawStatus string
		createdAt time.Time
	)
	if err := row.Scan(
		&rawID,
		&task.ImagePath,
		&task.Prompt,
		&rawStatus,
		&task.RemoteJobID,
		&task.VideoURL,
		&task.VideoPath,
		&createdAt,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", rawID, err)
	}
	task.ID = id
	task.Status = domain.TaskStatus(rawStatus)
	task.CreatedAt = createdAt.UTC()
	return &task, nil
}
