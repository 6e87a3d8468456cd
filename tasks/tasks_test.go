package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"text2phenotype.com/hmmpos/redis"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	docs     map[string][]byte
	locked   map[string]bool
	lockErr  error
	releases int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string][]byte{}, locked: map[string]bool{}}
}

func (s *memoryStore) GetDocument(_ context.Context, key string, doc interface{}) error {
	b, ok := s.docs[key]
	if !ok {
		return redis.ErrNotFound
	}
	return json.Unmarshal(b, doc)
}

func (s *memoryStore) SaveDocument(_ context.Context, key string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[key] = b
	return nil
}

func (s *memoryStore) Lock(_ context.Context, key string) (redis.ReleaseLock, error) {
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	s.locked[key] = true
	return func() error {
		s.locked[key] = false
		s.releases++
		return nil
	}, nil
}

func (s *memoryStore) Close() error {
	return nil
}

const storedTask = `{
	"task_id": "t-1",
	"profile": "brown",
	"text_file_key": "texts/t-1.txt",
	"status": "submitted",
	"attempts": 0,
	"started_at": null,
	"completed_at": null,
	"results_file_key": "",
	"model_fingerprint": "",
	"error_messages": null,
	"owner": {"team": "nlp"}
}`

func TestTaskStatusComplete(t *testing.T) {
	complete := []TaskStatus{TaskStatusCompletedSuccess, TaskStatusCompletedFailure, TaskStatusCanceled}
	for _, s := range complete {
		assert.True(t, s.Complete(), s)
	}
	for _, s := range []TaskStatus{TaskStatusSubmitted, TaskStatusStarted, TaskStatusFailed} {
		assert.False(t, s.Complete(), s)
	}
}

func TestTagTaskKeepsUnknownFields(t *testing.T) {
	var task TagTask
	require.NoError(t, json.Unmarshal([]byte(storedTask), &task))
	assert.Equal(t, "brown", task.Profile)
	assert.Equal(t, TaskStatusSubmitted, task.Status)

	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.True(t, jsonpatch.Equal([]byte(storedTask), b), string(b))
}

func TestClientGet(t *testing.T) {
	store := newMemoryStore()
	store.docs["t-1"] = []byte(storedTask)
	client := NewWithStore(store)

	task, err := client.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "texts/t-1.txt", task.TextFileKey)

	_, err = client.Get(context.Background(), "t-2")
	assert.True(t, errors.Is(err, redis.ErrNotFound))
}

func TestClientUpdate(t *testing.T) {
	store := newMemoryStore()
	store.docs["t-1"] = []byte(storedTask)
	client := NewWithStore(store)

	err := client.Update(context.Background(), "t-1", func(task *TagTask) {
		task.Status = TaskStatusStarted
		task.Attempts++
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.releases)
	assert.False(t, store.locked["t-1"])

	task, err := client.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusStarted, task.Status)
	assert.Equal(t, 1, task.Attempts)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(store.docs["t-1"], &raw))
	assert.Equal(t, map[string]interface{}{"team": "nlp"}, raw["owner"])
}

func TestClientUpdateErrors(t *testing.T) {
	t.Run("lock", func(t *testing.T) {
		store := newMemoryStore()
		store.lockErr = errors.New("busy")
		called := false
		err := NewWithStore(store).Update(context.Background(), "t-1", func(*TagTask) { called = true })
		assert.EqualError(t, err, "busy")
		assert.False(t, called)
	})
	t.Run("missing document releases lock", func(t *testing.T) {
		store := newMemoryStore()
		err := NewWithStore(store).Update(context.Background(), "t-1", func(*TagTask) {})
		assert.True(t, errors.Is(err, redis.ErrNotFound))
		assert.Equal(t, 1, store.releases)
	})
}
