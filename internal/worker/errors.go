package worker

import "errors"

// Ошибки бота.
var (
	// ErrUnknownModel — нет executor'а для explicit_id задачи.
	ErrUnknownModel = errors.New("unknown model")

	// ErrNoExecutor — нет executor'а для задачи без explicit_id.
	ErrNoExecutor = errors.New("no executor for task")

	// ErrHTTPRequest — HTTP-запрос к модели завершился ошибкой.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrInvalidResponse — модель вернула ответ не в формате JSON объекта.
	ErrInvalidResponse = errors.New("invalid model response")
)
