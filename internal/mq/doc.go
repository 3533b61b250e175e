// Package mq предоставляет транспорт задач SuperTask поверх RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings; выбор очереди (RouteFor)
//   - publisher.go  — публикация задач и ответов
//   - consumer.go   — потребление очередей: конверт, обработчики по типу, политика ack/nack
//   - client.go     — TaskClient: task.Submitter поверх очередей
//
// Типы сообщений:
//   - task.submitted — задача для исполнителя
//   - task.responded — ответ исполнителя
//
// Exchanges:
//   - supertask.tasks — задачи и ответы
//   - supertask.dlq   — dead letter queue
package mq
