package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/SuperTask/internal/domain"
)

const (
	jobPrefix = "supertask:job:"

	// DefaultTTL — время жизни результата по умолчанию.
	DefaultTTL = 24 * time.Hour
)

// ErrMiss — job нет в кэше.
var ErrMiss = errors.New("cache miss")

// Config — конфигурация кэша.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL — время жизни результата (по умолчанию DefaultTTL).
	TTL time.Duration
}

// JobCache хранит завершённые job в Redis.
// Реализует jobs.ResultCache.
type JobCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New подключается к Redis и проверяет соединение.
func New(ctx context.Context, cfg Config) (*JobCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewWithClient(client, cfg.TTL), nil
}

// NewWithClient создаёт кэш поверх готового клиента.
func NewWithClient(client *redis.Client, ttl time.Duration) *JobCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JobCache{client: client, ttl: ttl}
}

// Close закрывает соединение с Redis.
func (c *JobCache) Close() error {
	return c.client.Close()
}

// Put сохраняет job. Незавершённые job не кэшируются.
func (c *JobCache) Put(ctx context.Context, job *domain.Job) error {
	if !job.IsFinished() {
		return nil
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if err := c.client.Set(ctx, jobPrefix+job.ID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("put job: %w", err)
	}
	return nil
}

// Get возвращает job из кэша или ErrMiss.
func (c *JobCache) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	data, err := c.client.Get(ctx, jobPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// Delete удаляет job из кэша.
func (c *JobCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, jobPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}
