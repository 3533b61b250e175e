package jobs

import "errors"

// Ошибки исполнителя job.
var (
	// ErrWorkflowNotFound — workflow с таким именем не зарегистрирован.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrJobNotFound — job не найден.
	ErrJobNotFound = errors.New("job not found")

	// ErrWorkflowPanic — workflow завершился паникой.
	ErrWorkflowPanic = errors.New("workflow panicked")

	// ErrExecutorStopped — исполнитель остановлен.
	ErrExecutorStopped = errors.New("executor stopped")
)
