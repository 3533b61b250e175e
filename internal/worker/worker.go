package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/SuperTask/internal/mq"
)

const defaultPrefetch = 5

// ResponsePublisher публикует ответы исполнителя.
type ResponsePublisher interface {
	PublishTaskResponded(ctx context.Context, payload mq.TaskRespondedPayload) error
}

// Worker — бот-исполнитель задач SuperTask.
//
// Worker:
//   - Получает задачи из очередей tasks.ai и tasks.bots
//   - Выбирает executor по explicit_id (модель) или fallback (боты)
//   - Публикует ответ в tasks.responses (COMPLETED или REJECTED)
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одной очереди.
type Worker struct {
	conn      *mq.Connection
	publisher ResponsePublisher
	registry  *Registry
	queues    []mq.Queue
	prefetch  int

	consumers []*mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Publisher — публикация ответов.
	Publisher ResponsePublisher

	// Registry — реестр executor'ов (если nil — NewRegistry()).
	Registry *Registry

	// Queues — очереди задач (по умолчанию tasks.ai и tasks.bots).
	Queues []mq.Queue

	// Prefetch — prefetch для каждого consumer (default: 5).
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	queues := cfg.Queues
	if len(queues) == 0 {
		queues = []mq.Queue{mq.QueueTasksAI, mq.QueueTasksBots}
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Worker{
		conn:      cfg.Conn,
		publisher: cfg.Publisher,
		registry:  registry,
		queues:    queues,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start запускает consumers для всех очередей.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting bot worker",
		"queues", w.queues,
		"models", w.registry.Models(),
	)

	for _, queue := range w.queues {
		consumer := mq.NewConsumer(w.conn, mq.ConsumerConfig{
			Queue:    queue,
			Routes:   w.routes(),
			Prefetch: w.prefetch,
			Logger:   w.logger,
		})
		w.consumers = append(w.consumers, consumer)

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("task consumer error", "queue", queue, "error", err)
			}
		}()
	}

	w.logger.Info("bot worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping bot worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	for _, c := range w.consumers {
		c.Stop()
	}

	// Ждём завершения горутин
	w.wg.Wait()

	w.logger.Info("bot worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
