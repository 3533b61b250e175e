// Package telemetry обеспечивает наблюдаемость агента и бота SuperTask.
//
// Включает:
//   - logging.go — structured logging через slog, логгер в context
//   - metrics.go — Prometheus метрики (отправки, повторы, job, бот)
//
// Уровень и формат логов задаются конфигурацией (server.log_level,
// server.log_format). Оба бинарника экспортируют метрики на /metrics.
package telemetry
