package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed TaskRepository. The assignee
// set is JSONB on the task row, giving single-row atomicity for compound
// mutations.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT id, project_id, title, description, created_by, assigned_to, completion_deadline, status, version, created_at, updated_at
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, int, error) {
	const countQuery = `
	SELECT COUNT(*)
	FROM tasks
	WHERE project_id = $1
	  AND ($2 = '' OR status = $2)
	`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, filter.ProjectID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
	SELECT id, project_id, title, description, created_by, assigned_to, completion_deadline, status, version, created_at, updated_at
	FROM tasks
	WHERE project_id = $1
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.ProjectID, string(filter.Status), clampLimit(filter.Limit), pageOffset(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, total, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `
	INSERT INTO tasks (id, project_id, title, description, created_by, assigned_to, completion_deadline, status, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
	RETURNING version, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.CreatedBy,
		marshalJSON(task.AssignedTo),
		task.CompletionDeadline,
		string(task.Status),
	).Scan(&task.Version, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	if err := insertTaskActivities(ctx, tx, task.ID, task.ProjectID, task.PendingActivities()); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	task.ClearActivities()
	return task, nil
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := saveTaskTx(ctx, tx, task); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	task.ClearActivities()
	return nil
}

func (r *taskRepository) ListActivities(ctx context.Context, taskID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error) {
	return listActivities(ctx, r.pool, "task_activities", "task_id", taskID, filter)
}

// saveTaskTx applies the version-checked write plus buffered ledger
// entries inside the caller's transaction. Shared with the comment
// repository.
func saveTaskTx(ctx context.Context, tx pgx.Tx, task *domain.Task) error {
	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		assigned_to = $4,
		completion_deadline = $5,
		status = $6,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND version = $7
	RETURNING version, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		marshalJSON(task.AssignedTo),
		task.CompletionDeadline,
		string(task.Status),
		task.Version,
	).Scan(&task.Version, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return err
	}

	return insertTaskActivities(ctx, tx, task.ID, task.ProjectID, task.PendingActivities())
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		status   string
		assigned []byte
	)

	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.CreatedBy,
		&assigned,
		&task.CompletionDeadline,
		&status,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if len(assigned) > 0 {
		if err := json.Unmarshal(assigned, &task.AssignedTo); err != nil {
			return nil, fmt.Errorf("decode task assignee: %w", err)
		}
	}
	return &task, nil
}
