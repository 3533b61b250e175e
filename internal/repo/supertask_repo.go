package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/SuperTask/internal/domain"
)

// SuperTaskRepo — репозиторий зарегистрированных SuperTask.
type SuperTaskRepo struct {
	pool *pgxpool.Pool
}

// NewSuperTaskRepo создаёт новый SuperTaskRepo.
func NewSuperTaskRepo(pool *pgxpool.Pool) *SuperTaskRepo {
	return &SuperTaskRepo{pool: pool}
}

const superTaskColumns = `name, description, router, config, template, created_at, updated_at`

// Put создаёт или обновляет SuperTask.
func (r *SuperTaskRepo) Put(ctx context.Context, m *domain.SuperTaskModel) error {
	configJSON, err := json.Marshal(m.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	templateJSON, err := json.Marshal(m.Template)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	query := `
		INSERT INTO supertasks (name, description, router, config, template, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    router      = EXCLUDED.router,
		    config      = EXCLUDED.config,
		    template    = EXCLUDED.template,
		    updated_at  = EXCLUDED.updated_at
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query,
		m.Name,
		nullString(m.Description),
		nullString(m.Router),
		configJSON,
		templateJSON,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert supertask: %w", err)
	}
	return nil
}

// GetByName возвращает SuperTask по имени.
func (r *SuperTaskRepo) GetByName(ctx context.Context, name string) (*domain.SuperTaskModel, error) {
	query := `SELECT ` + superTaskColumns + ` FROM supertasks WHERE name = $1`
	return scanSuperTask(r.pool.QueryRow(ctx, query, name))
}

// List возвращает все SuperTask, отсортированные по имени.
func (r *SuperTaskRepo) List(ctx context.Context) ([]domain.SuperTaskModel, error) {
	query := `SELECT ` + superTaskColumns + ` FROM supertasks ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list supertasks: %w", err)
	}
	defer rows.Close()

	var models []domain.SuperTaskModel
	for rows.Next() {
		m, err := scanSuperTask(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, *m)
	}
	return models, rows.Err()
}

// Delete удаляет SuperTask.
func (r *SuperTaskRepo) Delete(ctx context.Context, name string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM supertasks WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete supertask: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanSuperTask сканирует строку в SuperTaskModel.
// pgx.Row покрывает и QueryRow, и Rows.
func scanSuperTask(row pgx.Row) (*domain.SuperTaskModel, error) {
	var m domain.SuperTaskModel
	var description, router *string
	var configJSON, templateJSON []byte

	err := row.Scan(
		&m.Name,
		&description,
		&router,
		&configJSON,
		&templateJSON,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan supertask: %w", err)
	}

	if err := json.Unmarshal(configJSON, &m.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal(templateJSON, &m.Template); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}

	if description != nil {
		m.Description = *description
	}
	if router != nil {
		m.Router = *router
	}

	return &m, nil
}
