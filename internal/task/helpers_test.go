package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/provider"
	"github.com/wanmilin/glin/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock advances instantly. Sleep records every requested duration
// so tests can assert backoff and poll cadence without real waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) sleptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

// memoryTaskStore is an in-memory VideoTaskStore with the same
// conditional-claim semantics as the SQL implementation.
type memoryTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.VideoTask
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{tasks: make(map[uuid.UUID]*domain.VideoTask)}
}

func (s *memoryTaskStore) CreateTask(ctx context.Context, task *domain.VideoTask) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *memoryTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.VideoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memoryTaskStore) ListTasks(ctx context.Context, status domain.TaskStatus) ([]*domain.VideoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.VideoTask
	for _, t := range s.tasks {
		if status == "" || t.Status == status {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update store.TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if update.Status != nil {
		t.Status = *update.Status
	}
	if update.RemoteJobID != nil {
		t.RemoteJobID = *update.RemoteJobID
	}
	if update.VideoURL != nil {
		t.VideoURL = *update.VideoURL
	}
	if update.VideoPath != nil {
		t.VideoPath = *update.VideoPath
	}
	return nil
}

func (s *memoryTaskStore) ClaimTask(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if t.Status != from {
		return store.ErrClaimLost
	}
	t.Status = to
	return nil
}

func (s *memoryTaskStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *memoryTaskStore) DeleteAllTasks(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.tasks))
	s.tasks = make(map[uuid.UUID]*domain.VideoTask)
	return n, nil
}

func (s *memoryTaskStore) mustGet(id uuid.UUID) domain.VideoTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

// memorySettings is an in-memory SettingsStore.
type memorySettings struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemorySettings(values map[string]string) *memorySettings {
	if values == nil {
		values = make(map[string]string)
	}
	return &memorySettings{values: values}
}

func (s *memorySettings) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", store.ErrSettingNotFound
	}
	return v, nil
}

func (s *memorySettings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memorySettings) GetAll(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// scriptedAdapter returns canned snapshots in order, repeating the last
// one when the script runs out.
type scriptedAdapter struct {
	mu      sync.Mutex
	creates []provider.JobSnapshot
	queries []provider.JobSnapshot

	createCalls int
	queryCalls  int
}

func (a *scriptedAdapter) Name() string { return "scripted" }

func (a *scriptedAdapter) CreateJob(ctx context.Context, req provider.CreateRequest) provider.JobSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := takeSnapshot(a.creates, a.createCalls)
	a.createCalls++
	return snap
}

func (a *scriptedAdapter) QueryJob(ctx context.Context, remoteID string) provider.JobSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := takeSnapshot(a.queries, a.queryCalls)
	a.queryCalls++
	return snap
}

func (a *scriptedAdapter) createCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.createCalls
}

func (a *scriptedAdapter) queryCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queryCalls
}

func takeSnapshot(script []provider.JobSnapshot, n int) provider.JobSnapshot {
	if len(script) == 0 {
		return provider.JobSnapshot{Status: provider.JobProcessing}
	}
	if n >= len(script) {
		return script[len(script)-1]
	}
	return script[n]
}

// fetchingAdapter adds the direct artifact fetch capability on top of a
// scripted adapter.
type fetchingAdapter struct {
	*scriptedAdapter
	data        []byte
	contentType string
	fetchErr    error
	fetchCalls  int
}

func (a *fetchingAdapter) FetchArtifact(ctx context.Context, remoteID string) ([]byte, string, error) {
	a.mu.Lock()
	a.fetchCalls++
	a.mu.Unlock()
	if a.fetchErr != nil {
		return nil, "", a.fetchErr
	}
	return a.data, a.contentType, nil
}

func (a *fetchingAdapter) fetchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetchCalls
}

// stubSelector returns a fixed selection or error.
type stubSelector struct {
	selection *provider.Selection
	err       error
}

func (s *stubSelector) Select(settings map[string]string) (*provider.Selection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.selection, nil
}

// inlineDispatcher runs each unit synchronously, so tests observe the
// full effect of a dispatch without goroutine coordination.
type inlineDispatcher struct {
	submitted int
	err       error
}

func (d *inlineDispatcher) Submit(ctx context.Context, unit func(ctx context.Context)) error {
	if d.err != nil {
		return d.err
	}
	d.submitted++
	unit(ctx)
	return nil
}

func mustCreateTask(t interface {
	Helper()
	Fatalf(string, ...any)
}, s *memoryTaskStore, prompt string, status domain.TaskStatus) *domain.VideoTask {
	t.Helper()
	task, err := domain.NewVideoTask("", prompt)
	if err != nil {
		t.Fatalf("failed to build task: %v", err)
	}
	task.Status = status
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("failed to store task: %v", err)
	}
	return task
}
