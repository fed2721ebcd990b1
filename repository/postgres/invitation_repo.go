package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
)

// uniqueViolation is the Postgres error code raised when the partial
// unique index on pending invitations rejects a duplicate.
const uniqueViolation = "23505"

type invitationRepository struct {
	pool *pgxpool.Pool
}

// NewInvitationRepository returns a Postgres-backed InvitationRepository.
func NewInvitationRepository(pool *pgxpool.Pool) repository.InvitationRepository {
	return &invitationRepository{pool: pool}
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	const query = `
	SELECT id, project_id, invited_user, invited_by, role, status, expires_at, created_at, updated_at
	FROM invitations
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanInvitation(row)
}

func (r *invitationRepository) Create(ctx context.Context, invitation *domain.Invitation) (*domain.Invitation, error) {
	if invitation == nil {
		return nil, domain.ErrInvalidPayload
	}
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO invitations (id, project_id, invited_user, invited_by, role, status, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		invitation.ID,
		invitation.ProjectID,
		invitation.InvitedUser,
		invitation.InvitedBy,
		string(invitation.Role),
		string(invitation.Status),
		invitation.ExpiresAt,
	).Scan(&invitation.CreatedAt, &invitation.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.NewError(domain.ErrCodeConflict, "a pending invitation already exists for this user")
		}
		return nil, err
	}
	return invitation, nil
}

func (r *invitationRepository) List(ctx context.Context, filter repository.InvitationFilter) ([]domain.Invitation, int, error) {
	var statuses []string
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	const countQuery = `
	SELECT COUNT(*)
	FROM invitations
	WHERE invited_user = $1
	  AND ($2::text[] IS NULL OR status = ANY($2))
	`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, filter.InvitedUser, statuses).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
	SELECT id, project_id, invited_user, invited_by, role, status, expires_at, created_at, updated_at
	FROM invitations
	WHERE invited_user = $1
	  AND ($2::text[] IS NULL OR status = ANY($2))
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.InvitedUser, statuses, clampLimit(filter.Limit), pageOffset(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, err
		}
		invitations = append(invitations, *invitation)
	}
	return invitations, total, rows.Err()
}

func (r *invitationRepository) HasPending(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM invitations
		WHERE project_id = $1 AND invited_user = $2 AND status = 'pending'
	)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus flips a pending invitation to a terminal status. The guard
// on status = 'pending' is what prevents a concurrent sweep or accept from
// overwriting a terminal state.
func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	return updateInvitationStatus(ctx, r.pool, id, status)
}

// Accept commits the membership add (project save plus ledger entry) and
// the pending→accepted flip in one transaction; either both effects land
// or neither does.
func (r *invitationRepository) Accept(ctx context.Context, invitation *domain.Invitation, project *domain.Project) error {
	if invitation == nil || project == nil {
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
	if err := updateInvitationStatus(ctx, tx, invitation.ID, domain.InvitationStatusAccepted); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	project.ClearActivities()
	invitation.Status = domain.InvitationStatusAccepted
	return nil
}

func (r *invitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	const query = `
	UPDATE invitations
	SET status = 'expired', updated_at = NOW()
	WHERE status = 'pending' AND expires_at < $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func updateInvitationStatus(ctx context.Context, q execer, id string, status domain.InvitationStatus) error {
	const query = `
	UPDATE invitations
	SET status = $2, updated_at = NOW()
	WHERE id = $1 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrCodeConflict, "invitation status can no longer be changed")
	}
	return nil
}

func scanInvitation(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Invitation, error) {
	var invitation domain.Invitation
	var role, status string

	if err := row.Scan(
		&invitation.ID,
		&invitation.ProjectID,
		&invitation.InvitedUser,
		&invitation.InvitedBy,
		&role,
		&status,
		&invitation.ExpiresAt,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}

	invitation.Role = domain.MemberRole(role)
	invitation.Status = domain.InvitationStatus(status)
	return &invitation, nil
}
