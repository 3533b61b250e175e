// Package repo — хранилище SuperTask в PostgreSQL (pgx).
//
// Структура:
//   - db.go             — пул соединений и общие helpers для NULL/JSONB
//   - migrate.go        — миграции схемы (goose, embed)
//   - supertask_repo.go — зарегистрированные SuperTask (используется как workflow.ModelSource)
//   - job_repo.go       — дочерние job (jobs.JobStore)
//   - task_repo.go      — отправленные задачи (mq.TaskStore)
//
// Все методы возвращают ErrNotFound, если запись не найдена.
package repo
