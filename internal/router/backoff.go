package router

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Границы паузы по умолчанию (на одну попытку).
const (
	DefaultBackoffMin = 5 * time.Second
	DefaultBackoffMax = 20 * time.Second
)

// AttemptJitterBackOff — пауза randint(min, max) * номер попытки.
//
// Рост линейный по числу попыток, со случайным разбросом.
// Реализует backoff.BackOff; один экземпляр на один TaskHandler.
type AttemptJitterBackOff struct {
	Min time.Duration
	Max time.Duration

	attempt int
}

// NewAttemptJitterBackOff создаёт политику с границами min и max.
func NewAttemptJitterBackOff(min, max time.Duration) *AttemptJitterBackOff {
	if min <= 0 {
		min = DefaultBackoffMin
	}
	if max < min {
		max = min
	}
	return &AttemptJitterBackOff{Min: min, Max: max}
}

// NextBackOff реализует backoff.BackOff.
func (b *AttemptJitterBackOff) NextBackOff() time.Duration {
	b.attempt++

	// целые секунды, как randint(5, 20)
	lo, hi := int64(b.Min/time.Second), int64(b.Max/time.Second)
	if hi <= lo {
		return b.Min * time.Duration(b.attempt)
	}
	sec := lo + rand.Int64N(hi-lo+1)

	return time.Duration(sec) * time.Second * time.Duration(b.attempt)
}

// Reset реализует backoff.BackOff.
func (b *AttemptJitterBackOff) Reset() {
	b.attempt = 0
}

// DefaultBackOff возвращает фабрику политики по умолчанию.
func DefaultBackOff() func() backoff.BackOff {
	return func() backoff.BackOff {
		return NewAttemptJitterBackOff(DefaultBackoffMin, DefaultBackoffMax)
	}
}

// sleep ждёт d или отмены ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
