package router

import "fmt"

// HandlerState — состояние TaskHandler.
//
//	PENDING → SUBMITTED → READY
//	                    ↘ RETRYING → SUBMITTED
//	                    ↘ FAILED
type HandlerState string

const (
	StatePending   HandlerState = "PENDING"
	StateSubmitted HandlerState = "SUBMITTED"
	StateReady     HandlerState = "READY"
	StateRetrying  HandlerState = "RETRYING"
	StateFailed    HandlerState = "FAILED"
)

// handlerEvent — событие жизненного цикла handler'а.
type handlerEvent string

const (
	eventSubmit    handlerEvent = "submit"
	eventReady     handlerEvent = "ready"
	eventRetry     handlerEvent = "retry"
	eventExhausted handlerEvent = "exhausted"
	eventError     handlerEvent = "error"
)

// transition вычисляет новое состояние. Не меняет handler.
func transition(from HandlerState, ev handlerEvent) (HandlerState, error) {
	switch ev {
	case eventSubmit:
		if from == StatePending || from == StateRetrying {
			return StateSubmitted, nil
		}
	case eventReady:
		if from == StateSubmitted || from == StateReady {
			return StateReady, nil
		}
	case eventRetry:
		if from == StateSubmitted {
			return StateRetrying, nil
		}
	case eventExhausted:
		if from == StateSubmitted {
			return StateFailed, nil
		}
	case eventError:
		if from != StateReady {
			return StateFailed, nil
		}
	}

	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}

// IsTerminal возвращает true для READY и FAILED.
func (s HandlerState) IsTerminal() bool {
	return s == StateReady || s == StateFailed
}
