package repository

import (
	"context"

	"github.com/projecthub/backend/domain"
)

type UserFilter struct {
	Page  int
	Limit int
}

// UserRepository is the identity store consumed by the core.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
}
