package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/SuperTask/internal/telemetry"
)

// Delivery — полученное сообщение: конверт и сырой payload.
type Delivery struct {
	ID        string
	Type      MessageType
	Timestamp time.Time

	// Payload декодируется обработчиком типа (см. HandlerFor).
	Payload json.RawMessage

	Queue       Queue
	Redelivered bool
}

// Handler обрабатывает одно сообщение.
//
// nil → ack; ErrDropMessage → nack без возврата (DLQ);
// любая другая ошибка → nack с возвратом в очередь.
type Handler func(ctx context.Context, d *Delivery) error

// HandlerFor оборачивает обработчик payload типа T.
// Payload, который не декодируется в T, отправляется в DLQ.
func HandlerFor[T any](fn func(ctx context.Context, payload T) error) Handler {
	return func(ctx context.Context, d *Delivery) error {
		var payload T
		if err := json.Unmarshal(d.Payload, &payload); err != nil {
			return fmt.Errorf("%w: decode %s payload: %w", ErrDropMessage, d.Type, err)
		}
		return fn(ctx, payload)
	}
}

// Outcome — что consumer делает с сообщением после обработки.
type Outcome string

const (
	OutcomeAck     Outcome = "ack"
	OutcomeRequeue Outcome = "requeue"
	OutcomeDrop    Outcome = "drop"
	// OutcomeSkip — тип без обработчика: ack без обработки.
	OutcomeSkip Outcome = "skip"
)

// outcomeOf переводит результат обработчика в решение ack/nack.
func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAck
	case errors.Is(err, ErrDropMessage):
		return OutcomeDrop
	default:
		return OutcomeRequeue
	}
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — очередь.
	Queue Queue

	// Routes — обработчики по типу сообщения.
	Routes map[MessageType]Handler

	// Prefetch — количество неподтверждённых сообщений (по умолчанию 1).
	Prefetch int

	Logger *slog.Logger
}

// Consumer потребляет сообщения одной очереди RabbitMQ и
// распределяет их по обработчикам Routes.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	routes   map[MessageType]Handler
	prefetch int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		logger:   cfg.Logger.With("queue", string(cfg.Queue)),
		queue:    cfg.Queue,
		routes:   cfg.Routes,
		prefetch: cfg.Prefetch,
	}
}

// Start потребляет сообщения до отмены ctx или Stop.
// При потере соединения ждёт переподключения и продолжает.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	for {
		deliveries, err := c.setupConsume()
		if err != nil {
			c.logger.Error("failed to setup consume", "error", err)
			if err := c.waitReconnect(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("consumer started")

		if err := c.processDeliveries(ctx, deliveries); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("deliveries channel closed, reconnecting")
		if err := c.waitReconnect(ctx); err != nil {
			return err
		}
	}
}

// Stop останавливает consumer. Безопасен для вызова из любой горутины.
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) waitReconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		c.logger.Info("reconnected, restarting consumer")
		return nil
	}
}

func (c *Consumer) setupConsume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	// ack вручную: решение принимает Dispatch
	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.settle(raw, c.Dispatch(ctx, raw.Body, raw.Redelivered))
		}
	}
}

func (c *Consumer) settle(raw amqp.Delivery, outcome Outcome) {
	var err error
	switch outcome {
	case OutcomeAck, OutcomeSkip:
		err = raw.Ack(false)
	case OutcomeRequeue:
		err = raw.Nack(false, true)
	case OutcomeDrop:
		err = raw.Nack(false, false)
	}
	if err != nil {
		c.logger.Warn("failed to settle delivery", "outcome", string(outcome), "error", err)
	}
}

// Dispatch декодирует конверт, вызывает обработчик его типа и
// возвращает решение по сообщению.
//
// Нечитаемый конверт уходит в DLQ, тип без обработчика подтверждается.
func (c *Consumer) Dispatch(ctx context.Context, body []byte, redelivered bool) Outcome {
	outcome := c.dispatch(ctx, body, redelivered)
	telemetry.MessagesConsumed.WithLabelValues(string(c.queue), string(outcome)).Inc()
	return outcome
}

func (c *Consumer) dispatch(ctx context.Context, body []byte, redelivered bool) Outcome {
	var d Delivery
	if err := json.Unmarshal(body, &d); err != nil {
		c.logger.Error("failed to unmarshal message", "error", err, "body", string(body))
		return OutcomeDrop
	}
	d.Queue = c.queue
	d.Redelivered = redelivered

	logger := c.logger.With("message_id", d.ID, "type", string(d.Type))

	handler, ok := c.routes[d.Type]
	if !ok {
		logger.Warn("no handler for message type")
		return OutcomeSkip
	}

	logger.Debug("received message", "redelivered", redelivered)

	err := handler(ctx, &d)
	outcome := outcomeOf(err)
	if err != nil {
		logger.Error("handler failed", "outcome", string(outcome), "error", err)
	}
	return outcome
}

// UnmarshalJSON читает конверт Message, оставляя payload сырым.
func (d *Delivery) UnmarshalJSON(data []byte) error {
	var in struct {
		ID        string          `json:"id"`
		Type      MessageType     `json:"type"`
		Payload   json.RawMessage `json:"payload"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	d.ID = in.ID
	d.Type = in.Type
	d.Payload = in.Payload
	d.Timestamp = in.Timestamp
	return nil
}
