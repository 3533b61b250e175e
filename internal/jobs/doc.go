// Package jobs исполняет дочерние job.
//
// Executor запускает зарегистрированный Workflow в отдельной горутине,
// ведёт статус job (PENDING → RUNNING → терминальный), сохраняет его
// в JobStore и кэширует результат. Вызывающая сторона ждёт через JobFuture.
package jobs
