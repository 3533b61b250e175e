package domain

// TaskStatus — статус задачи, отправленной исполнителю.
//
// Терминальные статусы, которые понимает роутер: COMPLETED, EXPIRED, REJECTED.
// Любой другой статус в ответе считается неизвестным.
type TaskStatus string

const (
	// TaskStatusPending — задача создана и ждёт исполнителя.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusInProgress — исполнитель работает над задачей.
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"

	// TaskStatusCompleted — задача выполнена.
	TaskStatusCompleted TaskStatus = "COMPLETED"

	// TaskStatusExpired — время на выполнение истекло (time_to_expire_secs).
	TaskStatusExpired TaskStatus = "EXPIRED"

	// TaskStatusRejected — исполнитель или бэкенд отклонил задачу.
	TaskStatusRejected TaskStatus = "REJECTED"
)

// IsKnownTerminal возвращает true для статусов, которые обрабатывает роутер.
func (s TaskStatus) IsKnownTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusExpired, TaskStatusRejected:
		return true
	default:
		return false
	}
}

// NeedsRetry возвращает true, если задачу нужно отправить заново.
func (s TaskStatus) NeedsRetry() bool {
	return s == TaskStatusExpired || s == TaskStatusRejected
}

// JobStatus — статус дочернего job.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED | EXPIRED | INTERNAL_ERROR
//	          (или) → CANCELED (из PENDING или RUNNING)
type JobStatus string

const (
	// JobStatusPending — job создан, но ещё не начал выполняться.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusRunning — job выполняется.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusCompleted — job успешно завершён.
	JobStatusCompleted JobStatus = "COMPLETED"

	// JobStatusFailed — job завершился с ошибкой.
	JobStatusFailed JobStatus = "FAILED"

	// JobStatusExpired — job не уложился в лимиты (повторы или таймаут).
	JobStatusExpired JobStatus = "EXPIRED"

	// JobStatusCanceled — job отменён.
	JobStatusCanceled JobStatus = "CANCELED"

	// JobStatusInternalError — внутренняя ошибка исполнения.
	JobStatusInternalError JobStatus = "INTERNAL_ERROR"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusExpired, JobStatusCanceled, JobStatusInternalError:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что статус известен.
func (s JobStatus) IsValid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s.IsTerminal()
}
