package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideoTask(t *testing.T) {
	t.Parallel()

	t.Run("valid task with prompt only", func(t *testing.T) {
		t.Parallel()

		task, err := NewVideoTask("", "a cat surfing a wave")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, "a cat surfing a wave", task.Prompt)
		assert.Empty(t, task.RemoteJobID)
		assert.Empty(t, task.VideoURL)
		assert.Empty(t, task.VideoPath)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("valid task with image only", func(t *testing.T) {
		t.Parallel()

		task, err := NewVideoTask("/tmp/input.png", "")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/input.png", task.ImagePath)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		task, err := NewVideoTask("", "")
		assert.Nil(t, task)
		assert.ErrorIs(t, err, ErrEmptyTaskInput)
	})
}

func TestVideoTask_Validate(t *testing.T) {
	t.Parallel()

	valid := VideoTask{
		ID:     uuid.New(),
		Prompt: "p",
		Status: TaskStatusPending,
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		task := valid
		assert.NoError(t, task.Validate())
	})

	t.Run("empty ID", func(t *testing.T) {
		t.Parallel()
		task := valid
		task.ID = uuid.Nil
		assert.ErrorIs(t, task.Validate(), ErrEmptyTaskID)
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()
		task := valid
		task.Status = TaskStatus("archived")
		assert.ErrorIs(t, task.Validate(), ErrInvalidTaskStatus)
	})
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusProcessing.IsTerminal())
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
}
