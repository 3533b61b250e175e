package task

import (
	"context"

	"github.com/google/uuid"
)

// Submitter отправляет задачу и возвращает Future её результата.
//
// Submit не блокируется до ответа исполнителя: ожидание происходит
// через Future. Ошибка Submit означает, что задача не была отправлена.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*Future, error)
}

// SubmitterFunc — адаптер функции к Submitter.
type SubmitterFunc func(ctx context.Context, req Request) (*Future, error)

// Submit реализует Submitter.
func (fn SubmitterFunc) Submit(ctx context.Context, req Request) (*Future, error) {
	return fn(ctx, req)
}

type jobIDKey struct{}

// WithJobID добавляет ID дочернего job в контекст.
// Submitter использует его для заполнения Request.JobID.
func WithJobID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

// JobIDFromContext возвращает ID дочернего job из контекста.
func JobIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(jobIDKey{}).(uuid.UUID)
	return id, ok
}
