package task

import "errors"

var (
	// ErrInvalidAIConstraints — у AI исполнителя должно быть ровно одно значение ids.
	ErrInvalidAIConstraints = errors.New("ai worker requires exactly one included id")

	// ErrSubmitterUnavailable — circuit breaker для типа исполнителя открыт.
	ErrSubmitterUnavailable = errors.New("task submitter unavailable")

	// ErrNilFuture — Submitter вернул nil вместо Future.
	ErrNilFuture = errors.New("submitter returned nil future")
)
