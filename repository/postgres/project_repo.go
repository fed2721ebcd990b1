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

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository returns a Postgres-backed ProjectRepository. The
// member set lives as JSONB on the project row, so every compound
// mutation (members + status + version) is a single-row write.
func NewProjectRepository(pool *pgxpool.Pool) repository.ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
	SELECT id, name, description, status, members, version, created_at, updated_at
	FROM projects
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanProject(row)
}

func (r *projectRepository) List(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, int, error) {
	const countQuery = `
	SELECT COUNT(*)
	FROM projects
	WHERE members @> $1::jsonb
	`
	membership := marshalJSON([]map[string]string{{"user_id": filter.MemberID}})

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, membership).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
	SELECT id, name, description, status, members, version, created_at, updated_at
	FROM projects
	WHERE members @> $1::jsonb
	ORDER BY updated_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, membership, clampLimit(filter.Limit), pageOffset(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *project)
	}
	return projects, total, rows.Err()
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, domain.ErrInvalidPayload
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `
	INSERT INTO projects (id, name, description, status, members, version)
	VALUES ($1, $2, $3, $4, $5, 1)
	RETURNING version, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		string(project.Status),
		marshalJSON(project.Members),
	).Scan(&project.Version, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return nil, err
	}

	if err := insertProjectActivities(ctx, tx, project.ID, project.PendingActivities()); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	project.ClearActivities()
	return project, nil
}

func (r *projectRepository) Save(ctx context.Context, project *domain.Project) error {
	if project == nil || project.ID == "" {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := saveProjectTx(ctx, tx, project); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	project.ClearActivities()
	return nil
}

func (r *projectRepository) ListActivities(ctx context.Context, projectID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error) {
	return listActivities(ctx, r.pool, "project_activities", "project_id", projectID, filter)
}

// saveProjectTx applies the version-checked write and the buffered ledger
// entries inside the caller's transaction. Shared with the invitation
// repository's Accept.
func saveProjectTx(ctx context.Context, tx pgx.Tx, project *domain.Project) error {
	const query = `
	UPDATE projects
	SET name = $2,
		description = $3,
		status = $4,
		members = $5,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND version = $6
	RETURNING version, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		string(project.Status),
		marshalJSON(project.Members),
		project.Version,
	).Scan(&project.Version, &project.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return err
	}

	return insertProjectActivities(ctx, tx, project.ID, project.PendingActivities())
}

func scanProject(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Project, error) {
	var project domain.Project
	var (
		status  string
		members []byte
	)

	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&status,
		&members,
		&project.Version,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	project.Status = domain.ProjectStatus(status)
	if len(members) > 0 {
		if err := json.Unmarshal(members, &project.Members); err != nil {
			return nil, fmt.Errorf("decode project members: %w", err)
		}
	}
	return &project, nil
}
