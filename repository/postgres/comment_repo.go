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

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository returns a Postgres-backed CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	const query = `
	SELECT id, task_id, project_id, commented_by, mentions, content, created_at, updated_at
	FROM task_comments
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanComment(row)
}

// Create inserts the comment row and flushes the task's buffered
// COMMENT_ADDED ledger entry in one transaction.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment, task *domain.Task) (*domain.Comment, error) {
	if comment == nil || task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `
	INSERT INTO task_comments (id, task_id, project_id, commented_by, mentions, content)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		comment.ID,
		comment.TaskID,
		comment.ProjectID,
		comment.CommentedBy,
		marshalJSON(comment.Mentions),
		comment.Content,
	).Scan(&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		return nil, err
	}

	if err := insertTaskActivities(ctx, tx, task.ID, task.ProjectID, task.PendingActivities()); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	task.ClearActivities()
	return comment, nil
}

// Delete removes the comment row and flushes the buffered COMMENT_DELETED
// entry in one transaction.
func (r *commentRepository) Delete(ctx context.Context, comment *domain.Comment, task *domain.Task) error {
	if comment == nil || task == nil {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `DELETE FROM task_comments WHERE id = $1`
	tag, err := tx.Exec(ctx, query, comment.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}

	if err := insertTaskActivities(ctx, tx, task.ID, task.ProjectID, task.PendingActivities()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	task.ClearActivities()
	return nil
}

func (r *commentRepository) List(ctx context.Context, filter domain.CommentFilter) ([]domain.Comment, int, error) {
	filter.Normalize()

	const countQuery = `SELECT COUNT(*) FROM task_comments WHERE task_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, filter.TaskID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
	SELECT id, task_id, project_id, commented_by, mentions, content, created_at, updated_at
	FROM task_comments
	WHERE task_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`
	if filter.Sort == domain.CommentSortAsc {
		query = `
	SELECT id, task_id, project_id, commented_by, mentions, content, created_at, updated_at
	FROM task_comments
	WHERE task_id = $1
	ORDER BY created_at ASC
	LIMIT $2 OFFSET $3
	`
	}

	rows, err := r.pool.Query(ctx, query, filter.TaskID, clampLimit(filter.Limit), pageOffset(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, *comment)
	}
	return comments, total, rows.Err()
}

func scanComment(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Comment, error) {
	var comment domain.Comment
	var mentions []byte

	if err := row.Scan(
		&comment.ID,
		&comment.TaskID,
		&comment.ProjectID,
		&comment.CommentedBy,
		&mentions,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}

	if len(mentions) > 0 {
		if err := json.Unmarshal(mentions, &comment.Mentions); err != nil {
			return nil, fmt.Errorf("decode comment mentions: %w", err)
		}
	}
	return &comment, nil
}
