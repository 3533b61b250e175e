package workflow

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/jobs"
	"github.com/shaiso/SuperTask/internal/router"
	"github.com/shaiso/SuperTask/internal/task"
)

// ModelSource — хранилище типов SuperTask.
type ModelSource interface {
	GetByName(ctx context.Context, name string) (*domain.SuperTaskModel, error)
}

// Executor — исполнитель job с регистрацией workflow.
type Executor interface {
	JobExecutor
	Register(w jobs.Workflow)
}

// CatalogConfig — конфигурация Catalog.
type CatalogConfig struct {
	Source    ModelSource
	Executor  Executor
	Submitter task.Submitter
	Routers   *router.Registry
	BackOff   func() backoff.BackOff
	Logger    *slog.Logger
}

// Catalog строит SuperTaskWorkflow из сохранённых моделей
// и регистрирует их в исполнителе job.
//
// Модель читается при каждом вызове Workflow, поэтому изменения
// конфигурации применяются к следующему запуску.
type Catalog struct {
	cfg CatalogConfig
}

// NewCatalog создаёт Catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Catalog{cfg: cfg}
}

// Workflow возвращает workflow для SuperTask name, зарегистрированный в исполнителе.
func (c *Catalog) Workflow(ctx context.Context, name string) (*SuperTaskWorkflow, error) {
	model, err := c.cfg.Source.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	w, err := New(Config{
		Model:     *model,
		Executor:  c.cfg.Executor,
		Submitter: c.cfg.Submitter,
		Routers:   c.cfg.Routers,
		BackOff:   c.cfg.BackOff,
		Logger:    c.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	c.cfg.Executor.Register(w)
	return w, nil
}
