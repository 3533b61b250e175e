package domain

import "errors"

// Ошибки валидации конфигурации SuperTask.
var (
	// ErrAbstractWorker — у исполнителя не указан тип.
	// Worker без конкретного варианта создать нельзя.
	ErrAbstractWorker = errors.New("worker type is required")

	// ErrUnknownWorkerKind — неизвестный тип исполнителя.
	ErrUnknownWorkerKind = errors.New("unknown worker type")

	// ErrWorkerKindMismatch — ограничения не соответствуют типу исполнителя.
	ErrWorkerKindMismatch = errors.New("worker constraints do not match worker type")

	// ErrInvalidWorker — поля исполнителя не прошли валидацию.
	ErrInvalidWorker = errors.New("invalid worker")

	// ErrUnknownStrategy — неизвестная стратегия SuperTask.
	ErrUnknownStrategy = errors.New("unknown task strategy")

	// ErrEmptySuperTaskName — у SuperTask нет имени.
	ErrEmptySuperTaskName = errors.New("supertask name is required")

	// ErrTemplateNameMismatch — имя шаблона не совпадает с именем SuperTask.
	ErrTemplateNameMismatch = errors.New("template name must match supertask name")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Worker  string // имя исполнителя, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Worker != "" {
		return "worker " + e.Worker + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(worker, field, message string, err error) *ValidationError {
	return &ValidationError{
		Worker:  worker,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
