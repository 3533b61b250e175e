package task

import (
	"context"
	"sync"

	"github.com/shaiso/SuperTask/internal/domain"
)

// Future — результат отправленной задачи, который появится позже.
//
// Значение присваивается один раз: через Resolve или Fail.
// Повторные вызовы игнорируются (дубликаты ответов с бэкенда).
type Future struct {
	taskID string
	index  int

	done   chan struct{}
	once   sync.Once
	result *domain.TaskResult
	err    error
}

// NewFuture создаёт незавершённый Future для задачи taskID.
func NewFuture(taskID string) *Future {
	return &Future{
		taskID: taskID,
		done:   make(chan struct{}),
	}
}

// Resolved создаёт уже завершённый Future.
func Resolved(taskID string, result *domain.TaskResult) *Future {
	f := NewFuture(taskID)
	f.Resolve(result)
	return f
}

// TaskID возвращает ID задачи.
func (f *Future) TaskID() string {
	return f.taskID
}

// Index возвращает позицию исполнителя в конфигурации SuperTask.
func (f *Future) Index() int {
	return f.index
}

// SetIndex помечает Future позицией исполнителя.
func (f *Future) SetIndex(index int) {
	f.index = index
}

// Resolve завершает Future результатом.
// Возвращает false, если Future уже был завершён.
func (f *Future) Resolve(result *domain.TaskResult) bool {
	return f.complete(result, nil)
}

// Fail завершает Future ошибкой транспорта.
func (f *Future) Fail(err error) bool {
	return f.complete(nil, err)
}

func (f *Future) complete(result *domain.TaskResult, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done возвращает канал, который закрывается при завершении.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone — неблокирующая проверка завершения.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result блокируется до завершения Future или отмены ctx.
func (f *Future) Result(ctx context.Context) (*domain.TaskResult, error) {
	if f.IsDone() {
		return f.result, f.err
	}

	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// completedAt возвращает серверное время завершения, если оно известно.
// Вызывать только для завершённого Future.
func (f *Future) completedAt() (int64, bool) {
	if f.err != nil || f.result == nil || f.result.CompletedAt == nil {
		return 0, false
	}
	return f.result.CompletedAt.UnixNano(), true
}
