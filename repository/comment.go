package repository

import (
	"context"

	"github.com/projecthub/backend/domain"
)

// CommentRepository persists task comments. Create and Delete also flush
// the task's pending ledger entries in the same transaction so a comment
// mutation and its COMMENT_* entry land together.
type CommentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Create(ctx context.Context, comment *domain.Comment, task *domain.Task) (*domain.Comment, error)
	Delete(ctx context.Context, comment *domain.Comment, task *domain.Task) error
	List(ctx context.Context, filter domain.CommentFilter) ([]domain.Comment, int, error)
}
