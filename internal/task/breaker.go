package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig — настройки circuit breaker.
type BreakerConfig struct {
	// MaxFailures — сколько ошибок подряд открывают breaker (по умолчанию 5).
	MaxFailures uint32

	// OpenTimeout — сколько breaker остаётся открытым (по умолчанию 30s).
	OpenTimeout time.Duration

	// HalfOpenRequests — пробные запросы в полуоткрытом состоянии (по умолчанию 3).
	HalfOpenRequests uint32

	Logger *slog.Logger
}

// BreakerSubmitter оборачивает Submitter circuit breaker'ом
// отдельно для каждого типа исполнителя на проводе.
//
// Учитываются только ошибки отправки. EXPIRED/REJECTED ответы
// ошибками транспорта не являются.
type BreakerSubmitter struct {
	next   Submitter
	cfg    BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerSubmitter создаёт BreakerSubmitter.
func NewBreakerSubmitter(next Submitter, cfg BreakerConfig) *BreakerSubmitter {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &BreakerSubmitter{
		next:     next,
		cfg:      cfg,
		logger:   cfg.Logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Submit реализует Submitter.
func (s *BreakerSubmitter) Submit(ctx context.Context, req Request) (*Future, error) {
	cb := s.breaker(req.WorkerType)

	res, err := cb.Execute(func() (interface{}, error) {
		return s.next.Submit(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrSubmitterUnavailable, req.WorkerType, err)
		}
		return nil, err
	}

	future, _ := res.(*Future)
	if future == nil {
		return nil, ErrNilFuture
	}
	return future, nil
}

// State возвращает состояние breaker для типа исполнителя.
func (s *BreakerSubmitter) State(workerType string) gobreaker.State {
	return s.breaker(workerType).State()
}

func (s *BreakerSubmitter) breaker(workerType string) *gobreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[workerType]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        workerType,
		MaxRequests: s.cfg.HalfOpenRequests,
		Timeout:     s.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("submitter breaker state changed",
				"worker_type", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// отмена вызывающей стороной не считается отказом бэкенда
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	s.breakers[workerType] = cb
	return cb
}
