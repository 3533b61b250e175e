package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/SuperTask/internal/domain"
)

// TaskRepo — репозиторий отправленных задач.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

const taskColumns = `id, job_id, name, worker_type, status, request, response, completed_at, created_at`

// Create создаёт запись задачи.
func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	requestJSON, err := marshalJSON(task.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	query := `
		INSERT INTO tasks (id, job_id, name, worker_type, status, request, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		task.ID,
		nullUUID(task.JobID),
		task.Name,
		task.WorkerType,
		task.Status,
		requestJSON,
		task.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ApplyResult записывает статус и ответ исполнителя.
func (r *TaskRepo) ApplyResult(ctx context.Context, id uuid.UUID, result *domain.TaskResult) error {
	responseJSON, err := marshalJSON(result.Values())
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	query := `
		UPDATE tasks
		SET status = $2, response = $3, completed_at = $4
		WHERE id = $1
	`
	res, err := r.pool.Exec(ctx, query, id, result.Status, responseJSON, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает задачу по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

// ListByJobID возвращает все задачи job в порядке отправки.
func (r *TaskRepo) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE job_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by job_id: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// scanTask сканирует строку в Task.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var jobID *uuid.UUID
	var requestJSON, responseJSON []byte

	err := row.Scan(
		&task.ID,
		&jobID,
		&task.Name,
		&task.WorkerType,
		&task.Status,
		&requestJSON,
		&responseJSON,
		&task.CompletedAt,
		&task.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if err := unmarshalJSON(requestJSON, &task.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := unmarshalJSON(responseJSON, &task.Values); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if jobID != nil {
		task.JobID = *jobID
	}

	return &task, nil
}

