// Package domain содержит модели SuperTask.
//
// Включает:
//   - worker.go    — исполнители (Worker) и их ограничения
//   - supertask.go — конфигурация SuperTask, стратегии, шаблон задачи
//   - task.go      — результат задачи и запись о задаче
//   - job.go       — дочерний job, в котором исполняется SuperTask
//   - status.go    — статусы задач и job
//
// Модели — чистые данные с валидацией; поведение находится
// в пакетах task, router и workflow.
package domain
