package worker

import (
	"context"
	"fmt"
	"sort"

	"github.com/shaiso/SuperTask/internal/task"
)

// Executor выполняет задачу и возвращает ответ исполнителя.
//
// Реализации: HTTPExecutor (модель за HTTP), EchoExecutor (боты).
type Executor interface {
	Execute(ctx context.Context, req task.Request) (*ExecutionResult, error)
}

// ExecutorFunc — адаптер функции к Executor.
type ExecutorFunc func(ctx context.Context, req task.Request) (*ExecutionResult, error)

// Execute вызывает fn.
func (fn ExecutorFunc) Execute(ctx context.Context, req task.Request) (*ExecutionResult, error) {
	return fn(ctx, req)
}

// ExecutionResult — результат выполнения задачи.
type ExecutionResult struct {
	// Values — данные формы ответа.
	Values map[string]any

	// Error — логическая ошибка (модель отказалась отвечать).
	// Инфраструктурные ошибки возвращаются через error в Execute().
	Error string
}

// Registry — реестр executor'ов.
//
// AI задачи адресуются по explicit_id, остальные уходят в fallback.
type Registry struct {
	models   map[string]Executor
	fallback Executor
}

// NewRegistry создаёт реестр с EchoExecutor в качестве fallback.
func NewRegistry() *Registry {
	return &Registry{
		models:   make(map[string]Executor),
		fallback: &EchoExecutor{},
	}
}

// Register добавляет executor для модели.
func (r *Registry) Register(modelID string, executor Executor) {
	r.models[modelID] = executor
}

// SetFallback заменяет executor для задач без explicit_id.
func (r *Registry) SetFallback(executor Executor) {
	r.fallback = executor
}

// Models возвращает зарегистрированные модели в алфавитном порядке.
func (r *Registry) Models() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get возвращает executor для задачи.
func (r *Registry) Get(req task.Request) (Executor, error) {
	if req.ExplicitID != "" {
		executor, ok := r.models[req.ExplicitID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, req.ExplicitID)
		}
		return executor, nil
	}

	if r.fallback == nil {
		return nil, ErrNoExecutor
	}
	return r.fallback, nil
}
