package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskResponse — ответ исполнителя.
type TaskResponse struct {
	// Values — данные формы (formData). Пусто, если ответа нет.
	Values map[string]any `json:"values,omitempty"`
}

// TaskResult — результат одной отправленной задачи.
type TaskResult struct {
	// TaskID — ID задачи на стороне бэкенда.
	TaskID string `json:"task_id"`

	// Status — статус задачи.
	Status TaskStatus `json:"status"`

	// Response — ответ исполнителя.
	Response TaskResponse `json:"response"`

	// CompletedAt — серверное время завершения.
	// Используется для выбора авторитетного ответа при дубликатах.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Values возвращает данные ответа.
func (r *TaskResult) Values() map[string]any {
	return r.Response.Values
}

// Task — запись об отправленной задаче.
//
// Task создаётся при каждой отправке (включая повторы)
// и обновляется, когда приходит ответ.
type Task struct {
	// ID — уникальный идентификатор задачи.
	ID uuid.UUID `json:"id"`

	// JobID — дочерний job, из которого отправлена задача (uuid.Nil, если неизвестен).
	JobID uuid.UUID `json:"job_id"`

	// Name — имя SuperTask.
	Name string `json:"name"`

	// WorkerType — тип исполнителя на проводе (CROWD, USER, AI).
	WorkerType string `json:"worker_type"`

	// Status — текущий статус.
	Status TaskStatus `json:"status"`

	// Request — отправленный запрос (как JSON).
	Request map[string]any `json:"request,omitempty"`

	// Values — ответ исполнителя.
	Values map[string]any `json:"values,omitempty"`

	// CompletedAt — время завершения.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// CreatedAt — время отправки.
	CreatedAt time.Time `json:"created_at"`
}

// IsFinished возвращает true, если получен терминальный статус.
func (t *Task) IsFinished() bool {
	return t.Status.IsKnownTerminal()
}

// ApplyResult записывает результат в задачу.
func (t *Task) ApplyResult(result *TaskResult) {
	t.Status = result.Status
	t.Values = result.Response.Values
	t.CompletedAt = result.CompletedAt
}
