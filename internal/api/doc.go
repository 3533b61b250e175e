// Package api содержит HTTP API агента SuperTask (chi).
//
// Структура:
//   - handler.go           — Handler с DI (хранилище, каталог workflow, исполнитель job)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery, metrics)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects (request/response)
//   - supertask_handler.go — обработчики для /supertasks
//   - job_handler.go       — обработчики для /jobs
//
// Коды ошибок запуска SuperTask:
//   - FAILED   → 422
//   - EXPIRED  → 504
//   - CANCELED → 409
//   - прочие   → 500
package api
