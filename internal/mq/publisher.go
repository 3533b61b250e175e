package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeTaskSubmitted MessageType = "task.submitted"
	MessageTypeTaskResponded MessageType = "task.responded"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// TaskRespondedPayload — ответ исполнителя на задачу.
type TaskRespondedPayload struct {
	TaskID      string            `json:"task_id"`
	JobID       string            `json:"job_id,omitempty"`
	Status      domain.TaskStatus `json:"status"`
	Values      map[string]any    `json:"values,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Result преобразует ответ в результат задачи.
func (p TaskRespondedPayload) Result() *domain.TaskResult {
	return &domain.TaskResult{
		TaskID:      p.TaskID,
		Status:      p.Status,
		Response:    domain.TaskResponse{Values: p.Values},
		CompletedAt: p.CompletedAt,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishTaskSubmitted публикует задачу в очередь её исполнителей.
// Очередь выбирается RouteFor.
func (p *Publisher) PublishTaskSubmitted(ctx context.Context, req task.Request) error {
	return p.PublishJSON(ctx, ExchangeTasks, RouteFor(req), MessageTypeTaskSubmitted, req)
}

// PublishTaskResponded публикует ответ исполнителя.
// Потребитель: TaskClient агента.
func (p *Publisher) PublishTaskResponded(ctx context.Context, payload TaskRespondedPayload) error {
	return p.PublishJSON(ctx, ExchangeTasks, RoutingKeyResponses, MessageTypeTaskResponded, payload)
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, exchange, routingKey, msg)
}
