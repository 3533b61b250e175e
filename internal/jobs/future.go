package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
)

// JobFuture — ожидание терминального статуса дочернего job.
type JobFuture struct {
	jobID uuid.UUID
	done  chan struct{}
	job   *domain.Job
}

func newJobFuture(id uuid.UUID) *JobFuture {
	return &JobFuture{jobID: id, done: make(chan struct{})}
}

func (f *JobFuture) resolve(job *domain.Job) {
	f.job = job
	close(f.done)
}

// JobID возвращает ID дочернего job.
func (f *JobFuture) JobID() uuid.UUID {
	return f.jobID
}

// Done закрывается, когда job завершён.
func (f *JobFuture) Done() <-chan struct{} {
	return f.done
}

// Result блокируется до завершения job или отмены ctx.
// Возвращает job в терминальном статусе; ошибка workflow — в job.Error.
func (f *JobFuture) Result(ctx context.Context) (*domain.Job, error) {
	select {
	case <-f.done:
		return f.job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
