package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/mq"
	"github.com/shaiso/SuperTask/internal/telemetry"
	"github.com/shaiso/SuperTask/internal/task"
)

// handleTaskSubmitted выполняет задачу из очереди и публикует ответ.
//
// Ошибка публикации возвращает задачу в очередь: она будет выполнена повторно.
func (w *Worker) handleTaskSubmitted(ctx context.Context, req task.Request) error {
	payload := w.Process(ctx, req)

	if w.publisher == nil {
		w.logger.Warn("publisher not available, skipping task.responded publish",
			"task_id", req.TaskID,
		)
		return nil
	}

	if err := w.publisher.PublishTaskResponded(ctx, payload); err != nil {
		return fmt.Errorf("publish task.responded: %w", err)
	}

	return nil
}

// routes — обработчики consumer'ов очередей задач.
func (w *Worker) routes() map[mq.MessageType]mq.Handler {
	return map[mq.MessageType]mq.Handler{
		mq.MessageTypeTaskSubmitted: mq.HandlerFor(w.handleTaskSubmitted),
	}
}

// Process выполняет задачу и формирует ответ.
//
// Ошибки executor'а превращаются в REJECTED: роутер агента
// отправит задачу повторно.
func (w *Worker) Process(ctx context.Context, req task.Request) mq.TaskRespondedPayload {
	payload := mq.TaskRespondedPayload{
		TaskID: req.TaskID,
		JobID:  req.JobID,
	}

	logger := w.logger.With("task_id", req.TaskID, "job_id", req.JobID, "name", req.Name)

	start := time.Now()
	result, err := w.execute(ctx, req)
	now := time.Now()
	payload.CompletedAt = &now

	switch {
	case err != nil:
		payload.Status = domain.TaskStatusRejected
		payload.Error = err.Error()
		logger.Warn("task rejected", "error", err)

	case result.Error != "":
		payload.Status = domain.TaskStatusRejected
		payload.Error = result.Error
		logger.Warn("task rejected", "error", result.Error)

	default:
		payload.Status = domain.TaskStatusCompleted
		payload.Values = result.Values
		logger.Info("task completed", "explicit_id", req.ExplicitID)
	}

	telemetry.BotTasks.WithLabelValues(string(payload.Status)).Inc()
	telemetry.BotTaskDuration.Observe(now.Sub(start).Seconds())

	return payload
}

// execute выбирает executor и выполняет задачу.
func (w *Worker) execute(ctx context.Context, req task.Request) (*ExecutionResult, error) {
	executor, err := w.registry.Get(req)
	if err != nil {
		return nil, err
	}

	result, err := executor.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &ExecutionResult{}
	}

	return result, nil
}
