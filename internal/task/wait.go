package task

import (
	"context"
)

// WaitResult — разбиение набора Future на завершённые и ожидающие.
type WaitResult struct {
	Done    []*Future
	NotDone []*Future
}

// Contains проверяет, находится ли f среди завершённых.
func (r WaitResult) Contains(f *Future) bool {
	for _, d := range r.Done {
		if d == f {
			return true
		}
	}
	return false
}

// WaitOR блокируется, пока не завершится хотя бы один Future.
//
// Если к моменту возврата завершено несколько, в Done остаётся только
// один: с самым ранним серверным временем завершения (CompletedAt).
// Остальные переносятся в NotDone и будут рассмотрены следующим вызовом.
// Future без CompletedAt упорядочиваются после тех, у кого оно есть,
// при равенстве сохраняется порядок входного списка.
func WaitOR(ctx context.Context, futures []*Future) (WaitResult, error) {
	if len(futures) == 0 {
		return WaitResult{}, nil
	}

	if !anyDone(futures) {
		if err := waitAny(ctx, futures); err != nil {
			return WaitResult{}, err
		}
	}

	first := -1
	for i, f := range futures {
		if !f.IsDone() {
			continue
		}
		if first < 0 || earlier(f, futures[first]) {
			first = i
		}
	}

	result := WaitResult{
		Done:    []*Future{futures[first]},
		NotDone: make([]*Future, 0, len(futures)-1),
	}
	for i, f := range futures {
		if i != first {
			result.NotDone = append(result.NotDone, f)
		}
	}

	return result, nil
}

// WaitAND блокируется, пока не завершатся все Future.
func WaitAND(ctx context.Context, futures []*Future) (WaitResult, error) {
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			return WaitResult{}, ctx.Err()
		}
	}

	done := make([]*Future, len(futures))
	copy(done, futures)

	return WaitResult{Done: done}, nil
}

func anyDone(futures []*Future) bool {
	for _, f := range futures {
		if f.IsDone() {
			return true
		}
	}
	return false
}

// waitAny ждёт первого завершения. Горутины-наблюдатели
// останавливаются при выходе.
func waitAny(ctx context.Context, futures []*Future) error {
	stop := make(chan struct{})
	defer close(stop)

	fired := make(chan struct{}, len(futures))
	for _, f := range futures {
		go func(f *Future) {
			select {
			case <-f.Done():
				fired <- struct{}{}
			case <-stop:
			}
		}(f)
	}

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// earlier сравнивает два завершённых Future по CompletedAt.
func earlier(a, b *Future) bool {
	ta, okA := a.completedAt()
	tb, okB := b.completedAt()

	switch {
	case okA && okB:
		return ta < tb
	case okA:
		return true
	default:
		return false
	}
}
