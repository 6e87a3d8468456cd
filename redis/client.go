package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

const (
	maxRetries    = 6
	lockRetries   = 20
	lockKeyPrefix = "lock:"
)

var ErrNotFound = errors.New("document not found")

type DB int
type ReleaseLock func() error

type Config struct {
	LockExpirationSeconds   int     `envconfig:"HMMPOS_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"HMMPOS_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"HMMPOS_REDIS_PORT" default:"6379"`
	DB                      DB      `envconfig:"HMMPOS_REDIS_DB" default:"0"`
	HASentinelPort          string  `envconfig:"HMMPOS_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"HMMPOS_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"HMMPOS_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"HMMPOS_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"HMMPOS_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"HMMPOS_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

// Client stores JSON documents under plain keys and guards updates with
// a distributed lock on "lock:<key>".
type Client struct {
	client         redis.UniversalClient
	locker         *redislock.Client
	lockExpiration time.Duration
}

func NewClient() (*Client, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = newFailoverClient(cfg)
	} else {
		client = newClient(cfg)
	}
	return NewWithUniversalClient(client, time.Duration(cfg.LockExpirationSeconds)*time.Second), nil
}

func NewWithUniversalClient(client redis.UniversalClient, lockExpiration time.Duration) *Client {
	return &Client{
		client:         client,
		locker:         redislock.New(client),
		lockExpiration: lockExpiration,
	}
}

func newFailoverClient(cfg Config) redis.UniversalClient {
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    maxRetries,
		DB:            int(cfg.DB),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func newClient(cfg Config) redis.UniversalClient {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: maxRetries,
		DB:         int(cfg.DB),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetDocument decodes the JSON document stored at key into doc.
func (client *Client) GetDocument(ctx context.Context, key string, doc interface{}) error {
	b, err := client.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, doc)
}

func (client *Client) SaveDocument(ctx context.Context, key string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, key, b, 0).Err()
}

// Lock obtains the lock for key, retrying with linear backoff.
func (client *Client) Lock(ctx context.Context, key string) (ReleaseLock, error) {
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), lockRetries)
	lock, err := client.locker.Obtain(ctx, lockKeyPrefix+key, client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}
