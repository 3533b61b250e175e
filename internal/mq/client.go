package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

// TaskPublisher публикует задачи исполнителям.
type TaskPublisher interface {
	PublishTaskSubmitted(ctx context.Context, req task.Request) error
}

// TaskStore сохраняет отправленные задачи и их результаты.
type TaskStore interface {
	Create(ctx context.Context, t *domain.Task) error
	ApplyResult(ctx context.Context, id uuid.UUID, result *domain.TaskResult) error
}

// ClientConfig — конфигурация TaskClient.
type ClientConfig struct {
	// Publisher — куда отправляются задачи (обязателен).
	Publisher TaskPublisher

	// Store — хранилище задач (опционально).
	Store TaskStore

	// Logger — логгер (по умолчанию slog.Default()).
	Logger *slog.Logger
}

// TaskClient отправляет задачи через RabbitMQ и разрешает их futures
// по ответам из очереди tasks.responses.
//
// Реализует task.Submitter.
type TaskClient struct {
	publisher TaskPublisher
	store     TaskStore
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]*task.Future
	closed  bool
}

var _ task.Submitter = (*TaskClient)(nil)

// NewTaskClient создаёт TaskClient.
func NewTaskClient(cfg ClientConfig) *TaskClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskClient{
		publisher: cfg.Publisher,
		store:     cfg.Store,
		logger:    logger,
		pending:   make(map[string]*task.Future),
	}
}

// Submit публикует задачу и возвращает future её результата.
//
// ID задачи назначается здесь; JobID берётся из контекста, если не задан.
func (c *TaskClient) Submit(ctx context.Context, req task.Request) (*task.Future, error) {
	id := uuid.New()
	req.TaskID = id.String()
	if req.JobID == "" {
		if jobID, ok := task.JobIDFromContext(ctx); ok {
			req.JobID = jobID.String()
		}
	}

	future := task.NewFuture(req.TaskID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.pending[req.TaskID] = future
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Create(ctx, newTaskRecord(id, req)); err != nil {
			c.forget(req.TaskID)
			return nil, fmt.Errorf("create task: %w", err)
		}
	}

	if err := c.publisher.PublishTaskSubmitted(ctx, req); err != nil {
		c.forget(req.TaskID)
		return nil, fmt.Errorf("publish task: %w", err)
	}

	c.logger.Debug("task submitted",
		"task_id", req.TaskID,
		"job_id", req.JobID,
		"worker_type", req.WorkerType,
		"routing_key", RouteFor(req),
	)

	return future, nil
}

// HandleResponse обрабатывает task.responded; регистрируется через
// HandlerFor для очереди tasks.responses.
func (c *TaskClient) HandleResponse(ctx context.Context, payload TaskRespondedPayload) error {
	if payload.TaskID == "" {
		return fmt.Errorf("%w: task.responded without task_id", ErrDropMessage)
	}
	c.Resolve(ctx, payload)
	return nil
}

// Routes возвращает обработчики consumer'а очереди ответов.
func (c *TaskClient) Routes() map[MessageType]Handler {
	return map[MessageType]Handler{
		MessageTypeTaskResponded: HandlerFor(c.HandleResponse),
	}
}

// Resolve применяет ответ исполнителя.
//
// PENDING и IN_PROGRESS только обновляют запись; остальные статусы
// (включая неизвестные) разрешают future. Возвращает true, если future разрешён.
func (c *TaskClient) Resolve(ctx context.Context, payload TaskRespondedPayload) bool {
	result := payload.Result()

	if c.store != nil {
		if id, err := uuid.Parse(payload.TaskID); err == nil {
			if err := c.store.ApplyResult(ctx, id, result); err != nil {
				c.logger.Error("failed to store task result", "task_id", payload.TaskID, "error", err)
			}
		}
	}

	if payload.Status == domain.TaskStatusPending || payload.Status == domain.TaskStatusInProgress {
		return false
	}

	c.mu.Lock()
	future, ok := c.pending[payload.TaskID]
	delete(c.pending, payload.TaskID)
	c.mu.Unlock()

	if !ok {
		// Ответ на уже разрешённую или чужую задачу
		c.logger.Debug("response for unknown task", "task_id", payload.TaskID, "status", payload.Status)
		return false
	}

	if payload.Error != "" {
		c.logger.Warn("task responded with error",
			"task_id", payload.TaskID,
			"status", payload.Status,
			"error", payload.Error,
		)
	}

	return future.Resolve(result)
}

// Pending возвращает число задач, ожидающих ответа.
func (c *TaskClient) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close завершает все ожидающие futures с ErrClientClosed.
// Новые Submit после Close возвращают ErrClientClosed.
func (c *TaskClient) Close() {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*task.Future)
	c.closed = true
	c.mu.Unlock()

	for _, f := range pending {
		f.Fail(ErrClientClosed)
	}

	if len(pending) > 0 {
		c.logger.Info("task client closed", "failed_pending", len(pending))
	}
}

func (c *TaskClient) forget(taskID string) {
	c.mu.Lock()
	delete(c.pending, taskID)
	c.mu.Unlock()
}

// newTaskRecord создаёт запись задачи для хранилища.
func newTaskRecord(id uuid.UUID, req task.Request) *domain.Task {
	t := &domain.Task{
		ID:         id,
		Name:       req.Name,
		WorkerType: req.WorkerType,
		Status:     domain.TaskStatusPending,
		CreatedAt:  time.Now(),
	}

	if jobID, err := uuid.Parse(req.JobID); err == nil {
		t.JobID = jobID
	}

	// Request хранится как JSON объект
	if data, err := json.Marshal(req); err == nil {
		var m map[string]any
		if json.Unmarshal(data, &m) == nil {
			t.Request = m
		}
	}

	return t
}
