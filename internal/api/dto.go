package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
)

// SuperTask DTOs

// PutSuperTaskRequest — запрос на регистрацию или обновление SuperTask.
// Имя берётся из пути.
type PutSuperTaskRequest struct {
	Description string                 `json:"description,omitempty"`
	Router      string                 `json:"router,omitempty"`
	Config      domain.SuperTaskConfig `json:"config"`
	Template    domain.TaskTemplate    `json:"template"`
}

// SuperTaskResponse — ответ с SuperTask.
type SuperTaskResponse struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Router      string                 `json:"router,omitempty"`
	Config      domain.SuperTaskConfig `json:"config"`
	Template    domain.TaskTemplate    `json:"template"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// SuperTaskFromDomain конвертирует domain.SuperTaskModel в SuperTaskResponse.
func SuperTaskFromDomain(m domain.SuperTaskModel) SuperTaskResponse {
	return SuperTaskResponse{
		Name:        m.Name,
		Description: m.Description,
		Router:      m.Router,
		Config:      m.Config,
		Template:    m.Template,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Schedule DTOs

// ScheduleRequest — запрос на запуск SuperTask.
type ScheduleRequest struct {
	// Input — вход задачи.
	Input map[string]any `json:"input,omitempty"`

	// Output — схема/заготовка выхода.
	Output map[string]any `json:"output,omitempty"`

	// SuperTaskParams — переопределение конфигурации SuperTask.
	SuperTaskParams map[string]any `json:"super_task_params,omitempty"`

	// ParentID — родительский job (опционально).
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// ScheduleResponse — результат синхронного запуска.
type ScheduleResponse struct {
	JobID    uuid.UUID      `json:"job_id"`
	FormData map[string]any `json:"form_data"`
}

// ScheduledJobResponse — ответ на асинхронный запуск.
type ScheduledJobResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

// Job DTOs

// JobResponse — ответ с job.
type JobResponse struct {
	ID         uuid.UUID        `json:"id"`
	ParentID   *uuid.UUID       `json:"parent_id,omitempty"`
	Name       string           `json:"name"`
	Status     domain.JobStatus `json:"status"`
	Params     domain.JobParams `json:"params"`
	Response   map[string]any   `json:"response,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		Name:       j.Name,
		Status:     j.Status,
		Params:     j.Params,
		Response:   j.Response,
		Error:      j.Error,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		DurationMs: j.Duration().Milliseconds(),
		CreatedAt:  j.CreatedAt,
	}
	if j.ParentID != uuid.Nil {
		parentID := j.ParentID
		resp.ParentID = &parentID
	}
	return resp
}

// Task DTOs

// TaskResponse — запись задачи, отправленной из job.
type TaskResponse struct {
	ID          uuid.UUID         `json:"id"`
	JobID       uuid.UUID         `json:"job_id"`
	Name        string            `json:"name"`
	WorkerType  string            `json:"worker_type"`
	Status      domain.TaskStatus `json:"status"`
	Values      map[string]any    `json:"values,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		JobID:       t.JobID,
		Name:        t.Name,
		WorkerType:  t.WorkerType,
		Status:      t.Status,
		Values:      t.Values,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
	}
}
