package router

import "errors"

// Ошибки роутера.
var (
	// ErrTaskExpiredMaxRetries — исполнитель исчерпал лимит повторов,
	// или повтор не разрешён политикой onTimeout.
	ErrTaskExpiredMaxRetries = errors.New("task expired: max retries reached")

	// ErrUnknownTaskStatus — статус ответа не COMPLETED, EXPIRED или REJECTED.
	ErrUnknownTaskStatus = errors.New("unknown task status")

	// ErrNoResult — в Dispatch нет завершённых задач.
	ErrNoResult = errors.New("no completed task to reduce")

	// ErrNotSubmitted — у handler'а нет отправленной задачи.
	ErrNotSubmitted = errors.New("task handler has no submitted task")

	// ErrInvalidTransition — недопустимый переход состояния handler'а.
	ErrInvalidTransition = errors.New("invalid task handler transition")

	// ErrRouterNotFound — пользовательский роутер не зарегистрирован.
	ErrRouterNotFound = errors.New("router not found")
)
