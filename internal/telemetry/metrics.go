package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TaskSubmissions — отправленные задачи (включая повторы) по типу исполнителя.
	TaskSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_task_submissions_total",
		Help: "Total tasks submitted to workers",
	}, []string{"worker_kind"})

	// TaskRetries — повторные отправки после EXPIRED/REJECTED.
	TaskRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_task_retries_total",
		Help: "Total task retries after expired or rejected attempts",
	}, []string{"worker_kind"})

	// HandlerFailures — handler'ы, завершившиеся ошибкой.
	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_handler_failures_total",
		Help: "Total task handlers that failed permanently",
	}, []string{"reason"})

	// JobsTotal — завершённые дочерние job по статусу.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_jobs_total",
		Help: "Total finished child jobs",
	}, []string{"status"})

	// JobDuration — длительность дочерних job.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supertask_job_duration_seconds",
		Help:    "Child job duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	// HTTPRequests — HTTP запросы к API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "status"})

	// MessagesConsumed — сообщения из RabbitMQ по очереди и решению (ack, requeue, drop, skip).
	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_mq_messages_consumed_total",
		Help: "Total messages consumed from RabbitMQ by outcome",
	}, []string{"queue", "outcome"})

	// BotTasks — задачи, обработанные ботом, по статусу ответа.
	BotTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supertask_bot_tasks_total",
		Help: "Total tasks processed by the bot worker",
	}, []string{"status"})

	// BotTaskDuration — время выполнения задачи ботом.
	BotTaskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supertask_bot_task_duration_seconds",
		Help:    "Bot task execution time in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
