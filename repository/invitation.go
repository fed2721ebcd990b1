package repository

import (
	"context"
	"time"

	"github.com/projecthub/backend/domain"
)

type InvitationFilter struct {
	InvitedUser string
	Statuses    []domain.InvitationStatus
	Page        int
	Limit       int
}

// InvitationRepository persists invitations and owns the two operations
// with cross-cutting consistency requirements: Accept runs the membership
// add and the status flip in a single transaction, and ExpirePending
// guards the sweep so terminal statuses are never overwritten.
type InvitationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)
	Create(ctx context.Context, invitation *domain.Invitation) (*domain.Invitation, error)
	List(ctx context.Context, filter InvitationFilter) ([]domain.Invitation, int, error)
	HasPending(ctx context.Context, projectID, userID string) (bool, error)

	// UpdateStatus flips a pending invitation to a terminal status. The
	// update is guarded on the current status being pending; a terminal
	// row yields domain.ErrCodeConflict.
	UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error

	// Accept persists the already-validated acceptance: the project save
	// (membership add plus its ledger entry) and the pending→accepted flip
	// commit or roll back together.
	Accept(ctx context.Context, invitation *domain.Invitation, project *domain.Project) error

	// ExpirePending transitions pending invitations whose deadline passed
	// before now; returns how many rows were expired.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
