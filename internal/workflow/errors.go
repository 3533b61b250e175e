package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
)

// Ошибки дочернего job.
var (
	// ErrChildJobFailed — дочерний job завершился со статусом FAILED.
	ErrChildJobFailed = errors.New("child job failed")

	// ErrChildJobExpired — дочерний job завершился со статусом EXPIRED.
	ErrChildJobExpired = errors.New("child job expired")

	// ErrChildJobCancelled — дочерний job отменён.
	ErrChildJobCancelled = fmt.Errorf("child job cancelled: %w", context.Canceled)

	// ErrChildJobInternalError — любой другой статус, кроме COMPLETED.
	ErrChildJobInternalError = errors.New("child job internal error")

	// ErrNoExecutor — SuperTaskWorkflow создан без исполнителя job.
	ErrNoExecutor = errors.New("job executor is not configured")

	// ErrInvalidConfig — конфигурация SuperTask в параметрах job невалидна.
	ErrInvalidConfig = errors.New("invalid supertask config")
)

// ChildJobError — ошибка дочернего job с его статусом.
type ChildJobError struct {
	JobID   uuid.UUID
	Status  domain.JobStatus
	Message string
	Err     error
}

// Error реализует интерфейс error.
func (e *ChildJobError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: job %s (%s)", e.Err, e.JobID, e.Status)
	}
	return fmt.Sprintf("%s: job %s (%s): %s", e.Err, e.JobID, e.Status, e.Message)
}

// Unwrap возвращает базовую ошибку.
func (e *ChildJobError) Unwrap() error {
	return e.Err
}

// childJobError отображает терминальный статус в ошибку.
// Для COMPLETED возвращает nil.
func childJobError(job *domain.Job) error {
	var base error

	switch job.Status {
	case domain.JobStatusCompleted:
		return nil
	case domain.JobStatusFailed:
		base = ErrChildJobFailed
	case domain.JobStatusExpired:
		base = ErrChildJobExpired
	case domain.JobStatusCanceled:
		base = ErrChildJobCancelled
	default:
		base = ErrChildJobInternalError
	}

	return &ChildJobError{
		JobID:   job.ID,
		Status:  job.Status,
		Message: job.Error,
		Err:     base,
	}
}
