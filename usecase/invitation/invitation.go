package invitation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/projecthub/backend/domain"
	appLogger "github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/repository"
	"github.com/projecthub/backend/usecase"
)

// DefaultExpiryWindow is how long an invitation stays acceptable.
const DefaultExpiryWindow = 7 * 24 * time.Hour

// UseCase drives the invitation lifecycle. Acceptance touches both the
// invitation and the project; the repository commits both effects in a
// single transaction so no partial outcome is ever observable.
type UseCase struct {
	invitations repository.InvitationRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	notifier    usecase.Notifier
	expiry      time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func New(
	invitations repository.InvitationRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	notifier usecase.Notifier,
	expiry time.Duration,
	logger *zap.Logger,
) *UseCase {
	if expiry <= 0 {
		expiry = DefaultExpiryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		invitations: invitations,
		projects:    projects,
		users:       users,
		notifier:    notifier,
		expiry:      expiry,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock overrides the time source; tests use it to control expiry.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// CanInviteUser reports whether an invitation may be issued: no pending
// invitation for the pair and the user is not already a member.
func (uc *UseCase) CanInviteUser(ctx context.Context, projectID, userID string) (bool, error) {
	pending, err := uc.invitations.HasPending(ctx, projectID, userID)
	if err != nil {
		return false, err
	}
	if pending {
		return false, nil
	}

	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return !project.HasMember(userID), nil
}

// Send issues a member invitation to the user identified by email and
// queues the notification. Owner only.
func (uc *UseCase) Send(ctx context.Context, projectID, email, performedBy string) (*domain.Invitation, error) {
	if email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email is required to invite a member")
	}

	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(performedBy) {
		return nil, domain.NewError(domain.ErrCodeForbidden, "only the project owner can invite members")
	}

	invited, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if project.HasMember(invited.ID) {
		return nil, domain.NewError(domain.ErrCodeConflict, "user is already a member of the project")
	}

	pending, err := uc.invitations.HasPending(ctx, projectID, invited.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.NewError(domain.ErrCodeConflict, "a pending invitation already exists for this user")
	}

	invitation := &domain.Invitation{
		ProjectID:   projectID,
		InvitedUser: invited.ID,
		InvitedBy:   performedBy,
		Role:        domain.MemberRoleMember,
		Status:      domain.InvitationStatusPending,
		ExpiresAt:   uc.now().Add(uc.expiry),
	}

	created, err := uc.invitations.Create(ctx, invitation)
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, usecase.Email{
		To:      invited.Email,
		Subject: fmt.Sprintf("You have been invited to join %s", project.Name),
		Body: fmt.Sprintf("You were invited to the project %q. The invitation expires at %s.",
			project.Name, created.ExpiresAt.Format(time.RFC1123)),
	})

	appLogger.FromContext(ctx, uc.logger).Info("invitation sent",
		zap.String("invitation_id", created.ID),
		zap.String("project_id", projectID),
		zap.String("invited_user", invited.ID))
	return created, nil
}

// Accept validates the invitation and joins the invitee to the project.
// The membership add carries {source: INVITATION, invitationId} metadata
// in its ledger entry; that entry, the member set change and the status
// flip commit together.
func (uc *UseCase) Accept(ctx context.Context, invitationID, userID string) (*domain.Invitation, error) {
	invitation, err := uc.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	project, err := uc.projects.GetByID(ctx, invitation.ProjectID)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := invitation.CanAccept(userID, project, uc.now()); err != nil {
		return nil, err
	}

	if err := project.AddMember(user.ID, user.ID, user.Snapshot(), map[string]any{
		"source":       domain.MetadataSourceInvitation,
		"invitationId": invitation.ID,
	}); err != nil {
		return nil, err
	}

	if err := invitation.UpdateStatus(domain.InvitationStatusAccepted); err != nil {
		return nil, err
	}
	if err := uc.invitations.Accept(ctx, invitation, project); err != nil {
		return nil, err
	}

	appLogger.FromContext(ctx, uc.logger).Info("invitation accepted",
		zap.String("invitation_id", invitationID),
		zap.String("project_id", project.ID),
		zap.String("user_id", userID))
	return invitation, nil
}

// Reject flips a pending invitation to rejected.
func (uc *UseCase) Reject(ctx context.Context, invitationID, userID string) error {
	invitation, err := uc.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}

	if err := invitation.CanReject(userID, uc.now()); err != nil {
		return err
	}
	if err := invitation.UpdateStatus(domain.InvitationStatusRejected); err != nil {
		return err
	}
	return uc.invitations.UpdateStatus(ctx, invitationID, invitation.Status)
}

// ListForUser returns the user's open invitations (pending plus expired,
// matching what the invitee can still see) with pagination.
func (uc *UseCase) ListForUser(ctx context.Context, userID string, page, limit int) ([]domain.Invitation, int, error) {
	if userID == "" {
		return nil, 0, domain.NewError(domain.ErrCodeInvalid, "user id is required for fetching invitations")
	}
	return uc.invitations.List(ctx, repository.InvitationFilter{
		InvitedUser: userID,
		Statuses:    []domain.InvitationStatus{domain.InvitationStatusPending, domain.InvitationStatusExpired},
		Page:        page,
		Limit:       limit,
	})
}

// ExpirePending transitions pending invitations past their deadline to
// expired. Safe to run concurrently with accept/reject: the status guard
// in the store never overwrites a terminal state.
func (uc *UseCase) ExpirePending(ctx context.Context) (int64, error) {
	return uc.invitations.ExpirePending(ctx, uc.now())
}

func (uc *UseCase) notify(ctx context.Context, email usecase.Email) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Send(ctx, email); err != nil {
		uc.logger.Warn("failed to queue invitation email",
			zap.String("to", email.To),
			zap.Error(err))
	}
}
