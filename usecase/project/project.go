package project

import (
	"context"

	"go.uber.org/zap"

	"github.com/projecthub/backend/domain"
	appLogger "github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/repository"
)

// UseCase orchestrates membership, ownership and lifecycle operations on
// projects. Authorization checks here duplicate what the router-level
// middleware enforces; the domain layer re-checks its own invariants.
type UseCase struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *zap.Logger
}

func New(projects repository.ProjectRepository, users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		projects: projects,
		users:    users,
		logger:   logger,
	}
}

// Create makes a new active project with the creator as sole owner.
func (uc *UseCase) Create(ctx context.Context, creatorID, name, description string) (*domain.Project, error) {
	creator, err := uc.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	project, err := domain.NewProject(name, description, creator)
	if err != nil {
		return nil, err
	}

	created, err := uc.projects.Create(ctx, project)
	if err != nil {
		return nil, err
	}

	appLogger.FromContext(ctx, uc.logger).Info("project created",
		zap.String("project_id", created.ID),
		zap.String("owner_id", creatorID))
	return created, nil
}

func (uc *UseCase) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	return uc.projects.GetByID(ctx, projectID)
}

// List returns the projects the user belongs to, newest activity first.
func (uc *UseCase) List(ctx context.Context, userID string, page, limit int) ([]domain.Project, int, error) {
	return uc.projects.List(ctx, repository.ProjectFilter{
		MemberID: userID,
		Page:     page,
		Limit:    limit,
	})
}

// AddMember adds a user directly, bypassing the invitation flow. Owner
// only.
func (uc *UseCase) AddMember(ctx context.Context, projectID, memberID, performedBy string) error {
	project, performer, err := uc.loadProjectAndActor(ctx, projectID, performedBy)
	if err != nil {
		return err
	}
	if !project.IsOwner(performedBy) {
		return domain.NewError(domain.ErrCodeForbidden, "only the project owner can add members")
	}

	member, err := uc.users.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	if err := project.AddMember(member.ID, performer.ID, performer.Snapshot(), map[string]any{
		"addedMember": member.Snapshot(),
	}); err != nil {
		return err
	}
	return uc.projects.Save(ctx, project)
}

// RemoveMember removes a member. Owner only; the performer cannot remove
// themself (leave exists for that).
func (uc *UseCase) RemoveMember(ctx context.Context, projectID, targetID, performedBy string) error {
	if targetID == performedBy {
		return domain.NewError(domain.ErrCodeInvalid, "you cannot remove yourself; leave the project instead")
	}

	project, performer, err := uc.loadProjectAndActor(ctx, projectID, performedBy)
	if err != nil {
		return err
	}
	if !project.IsOwner(performedBy) {
		return domain.NewError(domain.ErrCodeForbidden, "only the project owner can remove members")
	}

	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := project.RemoveMember(target.ID, performer.ID, performer.Snapshot(), map[string]any{
		"removedMember": target.Snapshot(),
	}); err != nil {
		return err
	}
	return uc.projects.Save(ctx, project)
}

// TransferOwnership demotes the current owner and promotes the target in
// one atomic save.
func (uc *UseCase) TransferOwnership(ctx context.Context, projectID, newOwnerID, performedBy string) error {
	project, performer, err := uc.loadProjectAndActor(ctx, projectID, performedBy)
	if err != nil {
		return err
	}
	if !project.IsOwner(performedBy) {
		return domain.NewError(domain.ErrCodeForbidden, "only the project owner can transfer ownership")
	}

	newOwner, err := uc.users.GetByID(ctx, newOwnerID)
	if err != nil {
		return err
	}

	if err := project.ChangeOwner(newOwner.ID, performer.ID, performer.Snapshot(), map[string]any{
		"oldOwner": performer.Snapshot(),
		"newOwner": newOwner.Snapshot(),
	}); err != nil {
		return err
	}

	if err := uc.projects.Save(ctx, project); err != nil {
		return err
	}

	appLogger.FromContext(ctx, uc.logger).Info("ownership transferred",
		zap.String("project_id", projectID),
		zap.String("old_owner", performedBy),
		zap.String("new_owner", newOwnerID))
	return nil
}

// Leave removes the calling user from the project.
func (uc *UseCase) Leave(ctx context.Context, projectID, userID string) error {
	project, user, err := uc.loadProjectAndActor(ctx, projectID, userID)
	if err != nil {
		return err
	}

	if err := project.Leave(user.ID, user.ID, user.Snapshot(), nil); err != nil {
		return err
	}
	return uc.projects.Save(ctx, project)
}

// UpdateStatus moves the project through its lifecycle. Owner only.
func (uc *UseCase) UpdateStatus(ctx context.Context, projectID string, newStatus domain.ProjectStatus, performedBy string) error {
	project, performer, err := uc.loadProjectAndActor(ctx, projectID, performedBy)
	if err != nil {
		return err
	}
	if !project.IsOwner(performedBy) {
		return domain.NewError(domain.ErrCodeForbidden, "only the project owner can change the project status")
	}

	if err := project.UpdateStatus(newStatus, performer.ID, performer.Snapshot()); err != nil {
		return err
	}
	return uc.projects.Save(ctx, project)
}

// ListActivities reads the project ledger.
func (uc *UseCase) ListActivities(ctx context.Context, projectID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error) {
	if _, err := uc.projects.GetByID(ctx, projectID); err != nil {
		return nil, 0, err
	}
	return uc.projects.ListActivities(ctx, projectID, filter)
}

func (uc *UseCase) loadProjectAndActor(ctx context.Context, projectID, userID string) (*domain.Project, *domain.User, error) {
	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return project, user, nil
}
