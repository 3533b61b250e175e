package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/SuperTask/internal/domain"
)

// JobRepo — репозиторий дочерних job.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

const jobColumns = `id, parent_id, name, status, params, app_params, super_task_params,
		       response, error, started_at, finished_at, created_at`

// Create создаёт новый job.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	paramsJSON, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	appParamsJSON, err := marshalJSON(job.AppParams)
	if err != nil {
		return fmt.Errorf("marshal app params: %w", err)
	}
	superTaskParamsJSON, err := marshalJSON(job.SuperTaskParams)
	if err != nil {
		return fmt.Errorf("marshal supertask params: %w", err)
	}

	query := `
		INSERT INTO jobs (id, parent_id, name, status, params, app_params, super_task_params, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		job.ID,
		nullUUID(job.ParentID),
		job.Name,
		job.Status,
		paramsJSON,
		appParamsJSON,
		superTaskParamsJSON,
		job.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Update обновляет статус, результат и время выполнения job.
func (r *JobRepo) Update(ctx context.Context, job *domain.Job) error {
	responseJSON, err := marshalJSON(job.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $2, response = $3, error = $4, started_at = $5, finished_at = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Status,
		responseJSON,
		nullString(job.Error),
		job.StartedAt,
		job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

// JobFilter — параметры фильтрации job.
type JobFilter struct {
	ParentID uuid.UUID
	Name     string
	Status   domain.JobStatus
	Limit    int
	Offset   int
}

// List возвращает job с фильтрацией, новые первыми.
func (r *JobRepo) List(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE ($1::uuid IS NULL OR parent_id = $1)
		  AND ($2::text IS NULL OR name = $2)
		  AND ($3::text IS NULL OR status = $3::job_status)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.ParentID),
		nullString(filter.Name),
		nullString(string(filter.Status)),
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// scanJob сканирует строку в Job.
func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var parentID *uuid.UUID
	var paramsJSON, appParamsJSON, superTaskParamsJSON, responseJSON []byte
	var jobError *string

	err := row.Scan(
		&job.ID,
		&parentID,
		&job.Name,
		&job.Status,
		&paramsJSON,
		&appParamsJSON,
		&superTaskParamsJSON,
		&responseJSON,
		&jobError,
		&job.StartedAt,
		&job.FinishedAt,
		&job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal(paramsJSON, &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := unmarshalJSON(appParamsJSON, &job.AppParams); err != nil {
		return nil, fmt.Errorf("unmarshal app params: %w", err)
	}
	if err := unmarshalJSON(superTaskParamsJSON, &job.SuperTaskParams); err != nil {
		return nil, fmt.Errorf("unmarshal supertask params: %w", err)
	}
	if err := unmarshalJSON(responseJSON, &job.Response); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if parentID != nil {
		job.ParentID = *parentID
	}
	if jobError != nil {
		job.Error = *jobError
	}

	return &job, nil
}
