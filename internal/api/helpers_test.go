package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/store"
)

// fakeTaskStore is an in-memory VideoTaskStore for handler tests.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.VideoTask
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.VideoTask)}
}

func (s *fakeTaskStore) CreateTask(ctx context.Context, task *domain.VideoTask) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.VideoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTaskStore) ListTasks(ctx context.Context, status domain.TaskStatus) ([]*domain.VideoTask, error) {
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

func (s *fakeTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update store.TaskUpdate) error {
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

func (s *fakeTaskStore) ClaimTask(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus) error {
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

func (s *fakeTaskStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) DeleteAllTasks(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.tasks))
	s.tasks = make(map[uuid.UUID]*domain.VideoTask)
	return n, nil
}

// fakeSettingsStore is an in-memory SettingsStore for handler tests.
type fakeSettingsStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{values: make(map[string]string)}
}

func (s *fakeSettingsStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", store.ErrSettingNotFound
	}
	return v, nil
}

func (s *fakeSettingsStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *fakeSettingsStore) GetAll(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// stubDownloader records download calls and returns a canned result.
type stubDownloader struct {
	path string
	err  error
	last uuid.UUID
}

func (d *stubDownloader) Download(ctx context.Context, id uuid.UUID) (string, error) {
	d.last = id
	if d.err != nil {
		return "", d.err
	}
	return d.path, nil
}

type testEnv struct {
	router   http.Handler
	tasks    *fakeTaskStore
	settings *fakeSettingsStore
	download *stubDownloader
}

func newTestEnv() *testEnv {
	tasks := newFakeTaskStore()
	settings := newFakeSettingsStore()
	download := &stubDownloader{path: "/downloads/video.mp4"}
	router := NewRouter(
		NewTaskHandler(tasks, download),
		NewSettingsHandler(settings),
	)
	return &testEnv{router: router, tasks: tasks, settings: settings, download: download}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) seedTask(t *testing.T, prompt string, status domain.TaskStatus) *domain.VideoTask {
	t.Helper()
	task, err := domain.NewVideoTask("", prompt)
	require.NoError(t, err)
	task.Status = status
	require.NoError(t, e.tasks.CreateTask(context.Background(), task))
	return task
}
