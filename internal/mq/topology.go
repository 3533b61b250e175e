package mq

import (
	"context"
	"fmt"
	"slices"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeTasks Exchange = "supertask.tasks"
	ExchangeDLQ   Exchange = "supertask.dlq"
)

// Queues — имена очередей.
const (
	QueueTasksCrowd     Queue = "tasks.crowd"
	QueueTasksUser      Queue = "tasks.user"
	QueueTasksAI        Queue = "tasks.ai"
	QueueTasksBots      Queue = "tasks.bots"
	QueueTasksResponses Queue = "tasks.responses"
	QueueDLQTasks       Queue = "dlq.tasks"
)

// Routing keys.
const (
	RoutingKeyCrowd     RoutingKey = "crowd"
	RoutingKeyUser      RoutingKey = "user"
	RoutingKeyAI        RoutingKey = "ai"
	RoutingKeyBots      RoutingKey = "bots"
	RoutingKeyResponses RoutingKey = "responses"
	RoutingKeyDLQTasks  RoutingKey = "tasks"
)

// RouteFor выбирает очередь для задачи.
//
// Задачи с explicit_id (AI) → ai, группа BOTS → bots,
// USER → user, остальные → crowd.
func RouteFor(req task.Request) RoutingKey {
	switch {
	case req.WorkerType == task.WireAI || req.ExplicitID != "":
		return RoutingKeyAI
	case slices.Contains(req.Groups, domain.BotsGroup):
		return RoutingKeyBots
	case req.WorkerType == task.WireUser:
		return RoutingKeyUser
	default:
		return RoutingKeyCrowd
	}
}

// SetupTopology объявляет exchanges, queues и bindings.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []Exchange{ExchangeTasks, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(name), // name
			"direct",     // type
			true,         // durable
			false,        // auto-deleted
			false,        // internal
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQTasks),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// очереди исполнителей — с DLQ
		{QueueTasksCrowd, dlqArgs},
		{QueueTasksUser, dlqArgs},
		{QueueTasksAI, dlqArgs},
		{QueueTasksBots, dlqArgs},

		// tasks.responses — ответы исполнителей, тоже с DLQ для битых сообщений
		{QueueTasksResponses, dlqArgs},

		// dlq.tasks — сама DLQ очередь
		{QueueDLQTasks, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueTasksCrowd, RoutingKeyCrowd, ExchangeTasks},
		{QueueTasksUser, RoutingKeyUser, ExchangeTasks},
		{QueueTasksAI, RoutingKeyAI, ExchangeTasks},
		{QueueTasksBots, RoutingKeyBots, ExchangeTasks},
		{QueueTasksResponses, RoutingKeyResponses, ExchangeTasks},
		{QueueDLQTasks, RoutingKeyDLQTasks, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  SuperTask RabbitMQ Topology:

    supertask.tasks (direct)
    ├── tasks.crowd     [routing: crowd]      Consumer: crowd platform
    ├── tasks.user      [routing: user]       Consumer: collaborator platform
    ├── tasks.ai        [routing: ai]         Consumer: supertask-bot
    ├── tasks.bots      [routing: bots]       Consumer: supertask-bot
    └── tasks.responses [routing: responses]  Consumer: supertask-agent

    supertask.dlq (direct)
    └── dlq.tasks [routing: tasks]
            Manual processing
  `
}
