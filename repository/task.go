package repository

import (
	"context"

	"github.com/projecthub/backend/domain"
)

type TaskFilter struct {
	ProjectID string
	Status    domain.TaskStatus
	Page      int
	Limit     int
}

// TaskRepository persists the task aggregate with the same version-checked
// save discipline as ProjectRepository.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, int, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Save(ctx context.Context, task *domain.Task) error
	ListActivities(ctx context.Context, taskID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error)
}
