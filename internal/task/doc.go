// Package task содержит примитивы отправки задач исполнителям.
//
// Включает:
//   - future.go      — Future, результат одной отправленной задачи
//   - wait.go        — WaitOR / WaitAND над набором Future
//   - request.go     — запрос к бэкенду и отображение ограничений исполнителя
//   - submitter.go   — интерфейс Submitter (транспорт внедряется снаружи)
//   - breaker.go     — circuit breaker по типу исполнителя
//
// Пакет не знает, как задача доставляется исполнителю: это делает
// реализация Submitter (например, mq.TaskClient).
package task
