package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/jobs"
	"github.com/shaiso/SuperTask/internal/router"
	"github.com/shaiso/SuperTask/internal/task"
	"github.com/shaiso/SuperTask/internal/telemetry"
)

// JobExecutor запускает дочерний job.
type JobExecutor interface {
	Execute(ctx context.Context, req jobs.Request) (*jobs.JobFuture, error)
}

// Response — результат SuperTask для родительского job.
type Response struct {
	JobID    uuid.UUID      `json:"job_id"`
	FormData map[string]any `json:"form_data"`
}

// Config — конфигурация SuperTaskWorkflow.
type Config struct {
	// Model — тип SuperTask.
	Model domain.SuperTaskModel

	// Executor — исполнитель дочерних job (нужен для Schedule).
	Executor JobExecutor

	// Submitter — транспорт задач (нужен для ExecuteWorkflow).
	Submitter task.Submitter

	// Routers — пользовательские роутеры (опционально).
	Routers *router.Registry

	// BackOff — фабрика паузы между повторами (по умолчанию router.DefaultBackOff).
	BackOff func() backoff.BackOff

	Logger *slog.Logger
}

// SuperTaskWorkflow — workflow дочернего job одного типа SuperTask.
type SuperTaskWorkflow struct {
	model     domain.SuperTaskModel
	executor  JobExecutor
	submitter task.Submitter
	routers   *router.Registry
	backoff   func() backoff.BackOff
	logger    *slog.Logger
}

// New создаёт SuperTaskWorkflow. Модель валидируется.
func New(cfg Config) (*SuperTaskWorkflow, error) {
	if cfg.Model.Config.Params.Strategy == "" {
		cfg.Model.Config.Params.Strategy = domain.StrategyFirstCompleted
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if cfg.BackOff == nil {
		cfg.BackOff = router.DefaultBackOff()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SuperTaskWorkflow{
		model:     cfg.Model,
		executor:  cfg.Executor,
		submitter: cfg.Submitter,
		routers:   cfg.Routers,
		backoff:   cfg.BackOff,
		logger:    telemetry.WithSuperTask(cfg.Logger, cfg.Model.Name),
	}, nil
}

// Name реализует jobs.Workflow.
func (w *SuperTaskWorkflow) Name() string {
	return w.model.Name
}

// Model возвращает тип SuperTask.
func (w *SuperTaskWorkflow) Model() domain.SuperTaskModel {
	return w.model
}

// Schedule запускает SuperTask как дочерний job и ждёт его завершения.
//
// FAILED → ErrChildJobFailed, EXPIRED → ErrChildJobExpired,
// CANCELED → ErrChildJobCancelled, прочие статусы → ErrChildJobInternalError.
// Все ошибки имеют тип *ChildJobError.
func (w *SuperTaskWorkflow) Schedule(ctx context.Context, input, output, superTaskParams map[string]any) (*Response, error) {
	if w.executor == nil {
		return nil, ErrNoExecutor
	}

	parentID, _ := task.JobIDFromContext(ctx)

	future, err := w.executor.Execute(ctx, jobs.Request{
		Name:            w.model.Name,
		ParentID:        parentID,
		Params:          domain.JobParams{Input: input, Output: output},
		SuperTaskParams: superTaskParams,
	})
	if err != nil {
		return nil, fmt.Errorf("execute child job: %w", err)
	}

	w.logger.Info("child job scheduled", "job_id", future.JobID(), "parent_id", parentID)

	// Контекст дочернего job наследует ctx: при отмене родителя ждём
	// терминальный статус CANCELED, а не возвращаем голый ctx.Err().
	job, err := future.Result(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	if err := childJobError(job); err != nil {
		w.logger.Warn("child job did not complete", "job_id", job.ID, "status", string(job.Status))
		return nil, err
	}

	return &Response{JobID: job.ID, FormData: job.Response}, nil
}

// ExecuteWorkflow реализует jobs.Workflow: выполняется внутри дочернего job.
//
// configs — конфигурация SuperTask из параметров job. Если она пуста,
// используется конфигурация модели.
func (w *SuperTaskWorkflow) ExecuteWorkflow(ctx context.Context, params domain.JobParams, configs map[string]any) (map[string]any, error) {
	cfg := w.model.Config
	if len(configs) > 0 {
		parsed, err := domain.SuperTaskConfigFromMap(configs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		cfg = *parsed
	}

	logger := telemetry.FromContext(ctx).With("supertask", w.model.Name)

	r, err := w.routers.Build(w.model.Router, router.Config{
		Name:      w.model.Name,
		SuperTask: cfg,
		Submitter: w.submitter,
		BackOff:   w.backoff,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	d, err := r.Map(ctx, params.Input, params.Output)
	if err != nil {
		return nil, err
	}

	return r.Reduce(d)
}

// ClassifyError — jobs.Classifier для SuperTask: исчерпанные повторы
// дают EXPIRED, остальное как jobs.DefaultClassifier.
func ClassifyError(err error) domain.JobStatus {
	if errors.Is(err, router.ErrTaskExpiredMaxRetries) {
		return domain.JobStatusExpired
	}
	return jobs.DefaultClassifier(err)
}
