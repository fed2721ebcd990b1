package repository

import (
	"context"

	"github.com/projecthub/backend/domain"
)

type ProjectFilter struct {
	MemberID string
	Page     int
	Limit    int
}

// ProjectRepository persists the project aggregate. Save applies the
// member set, status and any pending ledger entries under one
// version-checked transaction; a lost race surfaces as
// domain.ErrVersionConflict.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, int, error)
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Save(ctx context.Context, project *domain.Project) error
	ListActivities(ctx context.Context, projectID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error)
}
