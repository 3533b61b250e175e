package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/jobs"
	"github.com/shaiso/SuperTask/internal/repo"
	"github.com/shaiso/SuperTask/internal/workflow"
)

// SuperTaskStore — хранилище типов SuperTask.
type SuperTaskStore interface {
	GetByName(ctx context.Context, name string) (*domain.SuperTaskModel, error)
	List(ctx context.Context) ([]domain.SuperTaskModel, error)
	Put(ctx context.Context, m *domain.SuperTaskModel) error
	Delete(ctx context.Context, name string) error
}

// WorkflowCatalog строит workflow SuperTask по имени.
type WorkflowCatalog interface {
	Workflow(ctx context.Context, name string) (*workflow.SuperTaskWorkflow, error)
}

// JobService — исполнитель дочерних job.
type JobService interface {
	Execute(ctx context.Context, req jobs.Request) (*jobs.JobFuture, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	Cancel(id uuid.UUID) error
}

// JobHistory — история job в хранилище.
type JobHistory interface {
	List(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error)
}

// TaskHistory — записи задач, отправленных из job.
type TaskHistory interface {
	ListByJobID(ctx context.Context, jobID uuid.UUID) ([]domain.Task, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	store   SuperTaskStore
	catalog WorkflowCatalog
	jobs    JobService
	history JobHistory
	tasks   TaskHistory
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Store   SuperTaskStore
	Catalog WorkflowCatalog
	Jobs    JobService

	// History и Tasks опциональны: без них маршруты истории не регистрируются.
	History JobHistory
	Tasks   TaskHistory

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		jobs:    cfg.Jobs,
		history: cfg.History,
		tasks:   cfg.Tasks,
		logger:  logger,
	}
}
