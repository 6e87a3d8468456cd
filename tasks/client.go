package tasks

import (
	"context"

	"text2phenotype.com/hmmpos/redis"
)

type documentStore interface {
	GetDocument(ctx context.Context, key string, doc interface{}) error
	SaveDocument(ctx context.Context, key string, doc interface{}) error
	Lock(ctx context.Context, key string) (redis.ReleaseLock, error)
	Close() error
}

type Client struct {
	store documentStore
}

// NewClient connects to the task redis configured in the environment.
func NewClient() (Client, error) {
	store, err := redis.NewClient()
	if err != nil {
		return Client{}, err
	}
	return Client{store: store}, nil
}

func NewWithStore(store documentStore) Client {
	return Client{store: store}
}

func (client Client) Get(ctx context.Context, key string) (*TagTask, error) {
	var task TagTask
	if err := client.store.GetDocument(ctx, key, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies updateFunc to the stored task while holding its lock.
func (client Client) Update(ctx context.Context, key string, updateFunc func(task *TagTask)) (err error) {
	releaseLock, err := client.store.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()

	var task TagTask
	if err = client.store.GetDocument(ctx, key, &task); err != nil {
		return err
	}
	updateFunc(&task)
	return client.store.SaveDocument(ctx, key, &task)
}

func (client Client) Close() error {
	return client.store.Close()
}
