package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
	"github.com/shaiso/SuperTask/internal/telemetry"
)

// Workflow — тип дочернего job.
type Workflow interface {
	// Name возвращает имя, под которым workflow регистрируется.
	Name() string

	// ExecuteWorkflow выполняется внутри дочернего job.
	ExecuteWorkflow(ctx context.Context, params domain.JobParams, superTaskParams map[string]any) (map[string]any, error)
}

// JobStore — хранилище job.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
}

// ResultCache — кэш завершённых job.
type ResultCache interface {
	Put(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
}

// Classifier выбирает терминальный статус job по ошибке workflow.
type Classifier func(err error) domain.JobStatus

// DefaultClassifier: отмена → CANCELED, дедлайн → EXPIRED,
// паника → INTERNAL_ERROR, остальное → FAILED.
func DefaultClassifier(err error) domain.JobStatus {
	switch {
	case errors.Is(err, context.Canceled):
		return domain.JobStatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return domain.JobStatusExpired
	case errors.Is(err, ErrWorkflowPanic):
		return domain.JobStatusInternalError
	default:
		return domain.JobStatusFailed
	}
}

// Request — запрос на запуск дочернего job.
type Request struct {
	// Name — имя зарегистрированного workflow.
	Name string

	// ParentID — родительский job (uuid.Nil, если нет).
	ParentID uuid.UUID

	Params          domain.JobParams
	AppParams       map[string]any
	SuperTaskParams map[string]any

	// Timeout — ограничение времени job. 0 — значение Executor.
	Timeout time.Duration
}

// Config — конфигурация Executor.
type Config struct {
	// Store — хранилище job (опционально).
	Store JobStore

	// Cache — кэш результатов (опционально).
	Cache ResultCache

	// Classifier — по умолчанию DefaultClassifier.
	Classifier Classifier

	// Timeout — ограничение времени job по умолчанию (0 — без ограничения).
	Timeout time.Duration

	Logger *slog.Logger
}

// Executor запускает дочерние job в процессе.
type Executor struct {
	store    JobStore
	cache    ResultCache
	classify Classifier
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	workflows map[string]Workflow
	running   map[uuid.UUID]*runningJob
	stopped   bool

	wg sync.WaitGroup
}

type runningJob struct {
	job    *domain.Job
	cancel context.CancelFunc
	future *JobFuture
}

// New создаёт Executor.
func New(cfg Config) *Executor {
	if cfg.Classifier == nil {
		cfg.Classifier = DefaultClassifier
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Executor{
		store:     cfg.Store,
		cache:     cfg.Cache,
		classify:  cfg.Classifier,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
		workflows: make(map[string]Workflow),
		running:   make(map[uuid.UUID]*runningJob),
	}
}

// Register регистрирует workflow. Workflow с тем же именем перезаписывается.
func (e *Executor) Register(w Workflow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workflows[w.Name()] = w
}

// Has проверяет, зарегистрирован ли workflow.
func (e *Executor) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.workflows[name]
	return ok
}

// Execute создаёт job и запускает workflow асинхронно.
//
// Отмена ctx отменяет дочерний job.
func (e *Executor) Execute(ctx context.Context, req Request) (*JobFuture, error) {
	e.mu.RLock()
	wf, ok := e.workflows[req.Name]
	stopped := e.stopped
	e.mu.RUnlock()

	if stopped {
		return nil, ErrExecutorStopped
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, req.Name)
	}

	job := domain.NewJob(req.Name, req.ParentID, req.Params)
	job.AppParams = req.AppParams
	job.SuperTaskParams = req.SuperTaskParams

	if e.store != nil {
		if err := e.store.Create(ctx, job); err != nil {
			return nil, fmt.Errorf("create job: %w", err)
		}
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = e.timeout
	}

	runCtx, cancel := context.WithCancel(ctx)
	if timeout > 0 {
		runCtx, cancel = withTimeout(runCtx, cancel, timeout)
	}

	future := newJobFuture(job.ID)

	// Проверка stopped, регистрация и wg.Add — под одной блокировкой с Stop.
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		cancel()
		job.MarkFinished(domain.JobStatusCanceled, ErrExecutorStopped.Error())
		e.persist(context.WithoutCancel(ctx), job)
		return nil, ErrExecutorStopped
	}
	e.running[job.ID] = &runningJob{job: job, cancel: cancel, future: future}
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(runCtx, cancel, wf, job, future)

	return future, nil
}

func withTimeout(ctx context.Context, parentCancel context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, func() {
		cancel()
		parentCancel()
	}
}

func (e *Executor) run(ctx context.Context, cancel context.CancelFunc, wf Workflow, job *domain.Job, future *JobFuture) {
	defer e.wg.Done()
	defer cancel()

	logger := telemetry.WithJobID(e.logger, job.ID.String()).With("workflow", job.Name)
	ctx = telemetry.WithLogger(task.WithJobID(ctx, job.ID), logger)

	e.mu.Lock()
	job.MarkRunning()
	params := job.Params
	superTaskParams := job.SuperTaskParams
	e.mu.Unlock()

	// Сохранение не должно зависеть от отмены job.
	storeCtx := context.WithoutCancel(ctx)
	e.persist(storeCtx, job)
	logger.Info("job started")

	values, err := e.safeExecute(ctx, wf, params, superTaskParams)

	e.mu.Lock()
	if err == nil {
		job.MarkCompleted(values)
	} else {
		job.MarkFinished(e.classify(err), err.Error())
	}
	snapshot := *job
	delete(e.running, job.ID)
	e.mu.Unlock()

	telemetry.JobsTotal.WithLabelValues(string(snapshot.Status)).Inc()
	telemetry.JobDuration.Observe(snapshot.Duration().Seconds())

	if err != nil {
		logger.Warn("job finished", "status", string(snapshot.Status), "error", err)
	} else {
		logger.Info("job finished", "status", string(snapshot.Status), "duration", snapshot.Duration().String())
	}

	e.persist(storeCtx, &snapshot)
	if e.cache != nil {
		if err := e.cache.Put(storeCtx, &snapshot); err != nil {
			logger.Warn("failed to cache job result", "error", err)
		}
	}

	future.resolve(&snapshot)
}

func (e *Executor) safeExecute(ctx context.Context, wf Workflow, params domain.JobParams, superTaskParams map[string]any) (values map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkflowPanic, r)
		}
	}()
	return wf.ExecuteWorkflow(ctx, params, superTaskParams)
}

func (e *Executor) persist(ctx context.Context, job *domain.Job) {
	if e.store == nil {
		return
	}

	e.mu.RLock()
	snapshot := *job
	e.mu.RUnlock()

	if err := e.store.Update(ctx, &snapshot); err != nil {
		e.logger.Error("failed to update job", "job_id", job.ID, "error", err)
	}
}

// Get возвращает job: сначала выполняющиеся, затем хранилище, затем кэш.
func (e *Executor) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	e.mu.RLock()
	if rj, ok := e.running[id]; ok {
		snapshot := *rj.job
		e.mu.RUnlock()
		return &snapshot, nil
	}
	e.mu.RUnlock()

	// Завершённые job сначала ищем в кэше
	if e.cache != nil {
		job, err := e.cache.Get(ctx, id)
		if err == nil {
			return job, nil
		}
	}

	if e.store != nil {
		job, err := e.store.GetByID(ctx, id)
		if err == nil {
			return job, nil
		}
		e.logger.Debug("job store lookup failed", "job_id", id, "error", err)
	}

	return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

// Cancel отменяет выполняющийся job.
func (e *Executor) Cancel(id uuid.UUID) error {
	e.mu.RLock()
	rj, ok := e.running[id]
	e.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	rj.cancel()
	return nil
}

// Running возвращает число выполняющихся job.
func (e *Executor) Running() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.running)
}

// Stop отменяет все job и ждёт их завершения.
func (e *Executor) Stop() {
	e.mu.Lock()
	e.stopped = true
	for _, rj := range e.running {
		rj.cancel()
	}
	e.mu.Unlock()

	e.logger.Info("stopping job executor...")
	e.wg.Wait()
	e.logger.Info("job executor stopped")
}
