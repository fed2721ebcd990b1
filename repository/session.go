package repository

import (
	"context"

	"github.com/projecthub/backend/domain"
)

// SessionRepository stores refresh sessions with a TTL.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
}
