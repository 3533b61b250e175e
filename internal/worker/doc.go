// Package worker — бот-исполнитель задач SuperTask.
//
// # Обзор
//
// Worker обслуживает исполнителей, которым не нужен человек:
// AI модели (очередь tasks.ai) и ботов (очередь tasks.bots).
// Worker отвечает за:
//
//   - Получение задач из RabbitMQ
//   - Выбор executor'а по explicit_id задачи
//   - Публикацию ответа в tasks.responses
//
// # Ключевые компоненты
//
// ## Worker
//
//	w := worker.New(worker.Config{
//	    Conn:      mqConn,
//	    Publisher: publisher,
//	    Registry:  registry,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## Executor
//
//	type Executor interface {
//	    Execute(ctx context.Context, req task.Request) (*ExecutionResult, error)
//	}
//
// Реализации:
//   - HTTPExecutor — модель за HTTP endpoint, повторы с exponential backoff
//   - EchoExecutor — бот, заполняющий выходную схему значениями входа
//
// ## Registry
//
// Реестр executor'ов по explicit_id. Задачи без explicit_id
// уходят в fallback executor (по умолчанию EchoExecutor).
//
// # Ответы
//
//   - Executor вернул значения → COMPLETED с values и completed_at
//   - Ошибка executor'а, неизвестная модель, HTTP 4xx → REJECTED с error
//
// REJECTED заставляет роутер агента отправить задачу повторно
// в пределах бюджета повторов исполнителя.
package worker
