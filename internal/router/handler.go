package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
	"github.com/shaiso/SuperTask/internal/telemetry"
)

// HandlerConfig — параметры TaskHandler.
type HandlerConfig struct {
	// Name — имя SuperTask (имя задачи на бэкенде).
	Name string

	// Index — позиция исполнителя в списке workers.
	Index int

	Worker domain.Worker
	Input  map[string]any
	Output map[string]any

	Submitter task.Submitter

	// BackOff — пауза перед повтором. По умолчанию AttemptJitterBackOff.
	BackOff backoff.BackOff

	Logger *slog.Logger
}

// TaskHandler ведёт задачу одного исполнителя: отправка,
// проверка готовности, повторы по политике onTimeout.
//
// Не потокобезопасен: принадлежит одному выполнению SuperTask.
type TaskHandler struct {
	name      string
	index     int
	worker    domain.Worker
	input     map[string]any
	output    map[string]any
	submitter task.Submitter
	backoff   backoff.BackOff
	logger    *slog.Logger

	state       HandlerState
	retriesDone int
	future      *task.Future
}

// NewTaskHandler создаёт handler в состоянии PENDING.
func NewTaskHandler(cfg HandlerConfig) *TaskHandler {
	if cfg.BackOff == nil {
		cfg.BackOff = NewAttemptJitterBackOff(DefaultBackoffMin, DefaultBackoffMax)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &TaskHandler{
		name:      cfg.Name,
		index:     cfg.Index,
		worker:    cfg.Worker,
		input:     cfg.Input,
		output:    cfg.Output,
		submitter: cfg.Submitter,
		backoff:   cfg.BackOff,
		logger: cfg.Logger.With(
			"worker", cfg.Worker.Name,
			"worker_kind", cfg.Worker.Kind.String(),
			"index", cfg.Index,
		),
		state: StatePending,
	}
}

// Index возвращает позицию исполнителя.
func (h *TaskHandler) Index() int { return h.index }

// Worker возвращает конфигурацию исполнителя.
func (h *TaskHandler) Worker() domain.Worker { return h.worker }

// State возвращает текущее состояние.
func (h *TaskHandler) State() HandlerState { return h.state }

// RetriesDone возвращает число выполненных повторов.
func (h *TaskHandler) RetriesDone() int { return h.retriesDone }

// Future возвращает текущую задачу (nil до SubmitTask).
func (h *TaskHandler) Future() *task.Future { return h.future }

// SubmitTask отправляет задачу и сохраняет её Future.
//
// Для idempotent исполнителя задача не отправляется: Future сразу
// завершён, а результат равен выходным данным без изменений.
func (h *TaskHandler) SubmitTask(ctx context.Context) error {
	var future *task.Future

	if h.worker.Kind == domain.WorkerKindIdempotent {
		future = task.Resolved(uuid.NewString(), &domain.TaskResult{
			Status:   domain.TaskStatusCompleted,
			Response: domain.TaskResponse{Values: h.output},
		})
	} else {
		req, err := task.BuildRequest(h.name, h.worker, h.input, h.output)
		if err != nil {
			h.fail("invalid_constraints")
			return err
		}

		future, err = h.submitter.Submit(ctx, req)
		if err != nil {
			h.fail("submit_error")
			return fmt.Errorf("submit task for worker %q: %w", h.worker.Name, err)
		}
	}

	next, err := transition(h.state, eventSubmit)
	if err != nil {
		return err
	}

	future.SetIndex(h.index)
	h.future = future
	h.state = next

	telemetry.TaskSubmissions.WithLabelValues(h.worker.Kind.String()).Inc()
	h.logger.Debug("task submitted", "task_id", future.TaskID(), "attempt", h.retriesDone+1)

	return nil
}

// IsFutureDone — неблокирующая проверка завершения текущей задачи.
func (h *TaskHandler) IsFutureDone() bool {
	return h.future != nil && h.future.IsDone()
}

// IsResultReady блокируется до результата задачи и сообщает, можно ли его использовать.
//
// EXPIRED и REJECTED дают false. COMPLETED без values даёт false
// с предупреждением. Любой другой статус — ErrUnknownTaskStatus.
// Idempotent исполнитель всегда готов.
func (h *TaskHandler) IsResultReady(ctx context.Context) (bool, error) {
	if h.worker.Kind == domain.WorkerKindIdempotent {
		return h.markReady()
	}

	if h.future == nil {
		return false, ErrNotSubmitted
	}

	result, err := h.future.Result(ctx)
	if err != nil {
		h.fail("transport_error")
		return false, err
	}

	switch result.Status {
	case domain.TaskStatusCompleted:
		if len(result.Response.Values) == 0 {
			h.logger.Warn("task completed without values", "task_id", h.future.TaskID())
			return false, nil
		}
		return h.markReady()

	case domain.TaskStatusExpired, domain.TaskStatusRejected:
		h.logger.Info("task not ready", "task_id", h.future.TaskID(), "status", string(result.Status))
		return false, nil

	default:
		h.fail("unknown_status")
		return false, fmt.Errorf("%w: %q (worker %q)", ErrUnknownTaskStatus, result.Status, h.worker.Name)
	}
}

// RetryFuture отправляет задачу заново после паузы.
//
// Повтор разрешён только при onTimeout.action = retry и пока
// retriesDone < maxRetries; иначе ErrTaskExpiredMaxRetries.
// Пауза прерывается отменой ctx.
func (h *TaskHandler) RetryFuture(ctx context.Context) error {
	policy := h.worker.OnTimeout
	if policy.Action != domain.TimeoutActionRetry || h.retriesDone >= policy.RetryBudget() {
		return h.exhausted()
	}

	wait := h.backoff.NextBackOff()
	if wait == backoff.Stop {
		return h.exhausted()
	}

	next, err := transition(h.state, eventRetry)
	if err != nil {
		return err
	}
	h.state = next
	h.retriesDone++

	telemetry.TaskRetries.WithLabelValues(h.worker.Kind.String()).Inc()
	h.logger.Info("retrying task",
		"retry", h.retriesDone,
		"max_retries", policy.RetryBudget(),
		"backoff", wait.String(),
	)

	if err := sleep(ctx, wait); err != nil {
		h.fail("canceled")
		return err
	}

	return h.SubmitTask(ctx)
}

func (h *TaskHandler) markReady() (bool, error) {
	next, err := transition(h.state, eventReady)
	if err != nil {
		return false, err
	}
	h.state = next
	return true, nil
}

func (h *TaskHandler) exhausted() error {
	if next, err := transition(h.state, eventExhausted); err == nil {
		h.state = next
	}
	telemetry.HandlerFailures.WithLabelValues("max_retries").Inc()

	h.logger.Warn("task retries exhausted",
		"retries_done", h.retriesDone,
		"action", string(h.worker.OnTimeout.Action),
	)

	return fmt.Errorf("%w: worker %q (index %d), %d retries done",
		ErrTaskExpiredMaxRetries, h.worker.Name, h.index, h.retriesDone)
}

func (h *TaskHandler) fail(reason string) {
	if next, err := transition(h.state, eventError); err == nil {
		h.state = next
	}
	telemetry.HandlerFailures.WithLabelValues(reason).Inc()
}
