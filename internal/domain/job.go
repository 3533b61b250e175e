package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobParams — входные данные дочернего job: вход задачи и схема/заготовка выхода.
type JobParams struct {
	Input  map[string]any `json:"input,omitempty"`
	Output map[string]any `json:"output,omitempty"`
}

// Job — дочерний job, в котором исполняется SuperTaskWorkflow.
//
// Job создаётся когда родительский job вызывает SuperTaskWorkflow.Schedule.
// Выполняется асинхронно относительно родителя; родитель ждёт
// терминального статуса.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// ParentID — ID родительского job (uuid.Nil, если job запущен напрямую).
	ParentID uuid.UUID `json:"parent_id"`

	// Name — имя workflow (тип SuperTask).
	Name string `json:"name"`

	// Status — текущий статус.
	Status JobStatus `json:"status"`

	// Params — вход и выход задачи.
	Params JobParams `json:"params"`

	// AppParams — параметры приложения (Data Program).
	AppParams map[string]any `json:"app_params,omitempty"`

	// SuperTaskParams — конфигурация SuperTask на момент запуска.
	SuperTaskParams map[string]any `json:"super_task_params,omitempty"`

	// Response — результат (formData), заполняется при COMPLETED.
	Response map[string]any `json:"response,omitempty"`

	// Error — текст ошибки для FAILED/EXPIRED/CANCELED/INTERNAL_ERROR.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// NewJob создаёт job в статусе PENDING.
func NewJob(name string, parentID uuid.UUID, params JobParams) *Job {
	return &Job{
		ID:        uuid.New(),
		ParentID:  parentID,
		Name:      name,
		Status:    JobStatusPending,
		Params:    params,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если job ещё не завершён.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён (в любом статусе).
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkRunning переводит job в статус RUNNING.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkCompleted переводит job в статус COMPLETED с результатом.
func (j *Job) MarkCompleted(response map[string]any) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.FinishedAt = &now
	j.Response = response
}

// MarkFinished переводит job в терминальный статус с ошибкой.
func (j *Job) MarkFinished(status JobStatus, err string) {
	now := time.Now()
	j.Status = status
	j.FinishedAt = &now
	j.Error = err
}
