package router

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

// Router превращает вход SuperTask в один результат.
type Router interface {
	// Map отправляет задачи исполнителям и ждёт, пока выполнится
	// условие стратегии (включая все нужные повторы).
	Map(ctx context.Context, input, output map[string]any) (*Dispatch, error)

	// Reduce выбирает итоговый результат из Dispatch.
	Reduce(d *Dispatch) (map[string]any, error)
}

// Dispatch — состояние одного выполнения SuperTask.
type Dispatch struct {
	// Handlers — handler'ы в порядке объявления исполнителей.
	Handlers []*TaskHandler

	// Result — итог последнего ожидания.
	Result task.WaitResult
}

// Config — параметры TaskRouter.
type Config struct {
	// Name — имя SuperTask.
	Name string

	// SuperTask — исполнители и стратегия.
	SuperTask domain.SuperTaskConfig

	// Submitter — транспорт отправки задач.
	Submitter task.Submitter

	// BackOff — фабрика политики паузы, по одной на handler.
	// По умолчанию DefaultBackOff().
	BackOff func() backoff.BackOff

	Logger *slog.Logger
}

// TaskRouter — стандартный Router.
//
// Хранит только конфигурацию: Map и Reduce не меняют состояние роутера,
// поэтому один TaskRouter можно использовать для нескольких выполнений.
type TaskRouter struct {
	cfg    Config
	logger *slog.Logger
}

// New создаёт TaskRouter.
func New(cfg Config) *TaskRouter {
	if cfg.BackOff == nil {
		cfg.BackOff = DefaultBackOff()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SuperTask.Params.Strategy == "" {
		cfg.SuperTask.Params.Strategy = domain.StrategyFirstCompleted
	}

	return &TaskRouter{
		cfg:    cfg,
		logger: cfg.Logger.With("supertask", cfg.Name),
	}
}

// Strategy возвращает стратегию роутера.
func (r *TaskRouter) Strategy() domain.TaskStrategy {
	return r.cfg.SuperTask.Params.Strategy
}

// Map создаёт по handler'у на каждого активного исполнителя,
// отправляет задачи и обрабатывает повторы.
//
// Если активных исполнителей нет, создаётся один idempotent handler:
// результатом SuperTask становятся её выходные данные.
func (r *TaskRouter) Map(ctx context.Context, input, output map[string]any) (*Dispatch, error) {
	workers := r.cfg.SuperTask.Workers
	active := r.cfg.SuperTask.ActiveWorkers()

	handlers := make([]*TaskHandler, 0, len(active))
	for _, i := range active {
		handlers = append(handlers, r.newHandler(i, workers[i], input, output))
	}

	if len(handlers) == 0 {
		r.logger.Info("no active workers, using idempotent worker")
		handlers = append(handlers, r.newHandler(0, domain.NewIdempotentWorker(domain.DefaultWorkerName), input, output))
	}

	for _, h := range handlers {
		if err := h.SubmitTask(ctx); err != nil {
			return nil, err
		}
	}

	d := &Dispatch{Handlers: handlers}

	result, err := r.handleRetrial(ctx, handlers)
	if err != nil {
		return nil, err
	}
	d.Result = result

	return d, nil
}

// Reduce возвращает values первого завершённого результата
// в порядке индексов исполнителей.
func (r *TaskRouter) Reduce(d *Dispatch) (map[string]any, error) {
	if d == nil || len(d.Result.Done) == 0 {
		return nil, ErrNoResult
	}

	done := make([]*task.Future, len(d.Result.Done))
	copy(done, d.Result.Done)
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].Index() < done[j].Index()
	})

	result, err := done[0].Result(context.Background())
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNoResult
	}

	return result.Response.Values, nil
}

func (r *TaskRouter) newHandler(index int, w domain.Worker, input, output map[string]any) *TaskHandler {
	return NewTaskHandler(HandlerConfig{
		Name:      r.cfg.Name,
		Index:     index,
		Worker:    w,
		Input:     input,
		Output:    output,
		Submitter: r.cfg.Submitter,
		BackOff:   r.cfg.BackOff(),
		Logger:    r.logger,
	})
}

// handleRetrial ждёт выполнения условия стратегии.
//
// Сначала OR-ожидание: за один цикл проверяется один завершённый
// handler, который WaitOR оставил в Done (самый ранний CompletedAt,
// а не первый в порядке объявления); неготовый отправляется повторно. При FIRST_COMPLETED первый готовый результат побеждает,
// остальные задачи не отменяются. При PRIORITY дальше идёт AND-ожидание,
// пока все handler'ы не будут готовы одновременно.
//
// Первый handler, исчерпавший повторы, прерывает всё выполнение.
func (r *TaskRouter) handleRetrial(ctx context.Context, handlers []*TaskHandler) (task.WaitResult, error) {
	for {
		result, err := task.WaitOR(ctx, futuresOf(handlers))
		if err != nil {
			return task.WaitResult{}, err
		}

		h := firstDone(handlers, result)
		if h == nil {
			continue
		}

		ready, err := h.IsResultReady(ctx)
		if err != nil {
			return task.WaitResult{}, err
		}
		if !ready {
			if err := h.RetryFuture(ctx); err != nil {
				return task.WaitResult{}, err
			}
			continue
		}

		if r.Strategy() == domain.StrategyFirstCompleted {
			r.logger.Info("first completed result selected", "worker", h.Worker().Name, "index", h.Index())
			return result, nil
		}
		break
	}

	for {
		result, err := task.WaitAND(ctx, futuresOf(handlers))
		if err != nil {
			return task.WaitResult{}, err
		}

		allReady := true
		for _, h := range handlers {
			ready, err := h.IsResultReady(ctx)
			if err != nil {
				return task.WaitResult{}, err
			}
			if ready {
				continue
			}

			allReady = false
			if err := h.RetryFuture(ctx); err != nil {
				return task.WaitResult{}, err
			}
		}

		if allReady {
			r.logger.Info("all workers completed", "workers", len(handlers))
			return result, nil
		}
	}
}

func futuresOf(handlers []*TaskHandler) []*task.Future {
	futures := make([]*task.Future, len(handlers))
	for i, h := range handlers {
		futures[i] = h.Future()
	}
	return futures
}

// firstDone возвращает handler, чья задача попала в Done.
//
// WaitOR кладёт в Done ровно один Future, поэтому порядок обхода
// handlers на выбор не влияет.
func firstDone(handlers []*TaskHandler, result task.WaitResult) *TaskHandler {
	for _, h := range handlers {
		if h.IsFutureDone() && result.Contains(h.Future()) {
			return h
		}
	}
	return nil
}
