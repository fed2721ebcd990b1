package task

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
)

// UseCase drives task assignment, the status workflow and the comment
// subsystem. Permission checks go through the task's action table; the
// domain methods re-validate their own preconditions.
type UseCase struct {
	tasks    repository.TaskRepository
	comments repository.CommentRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	comments repository.CommentRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		comments: comments,
		projects: projects,
		users:    users,
		logger:   logger,
	}
}

// Create adds a task to the project. Any member may create tasks.
func (uc *UseCase) Create(ctx context.Context, projectID, title, description, creatorID string) (*domain.Task, error) {
	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(creatorID) {
		return nil, domain.NewError(domain.ErrCodeForbidden, "you are not a member of this project")
	}

	creator, err := uc.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	task, err := domain.NewTask(project, title, description, creator)
	if err != nil {
		return nil, err
	}
	return uc.tasks.Create(ctx, task)
}

func (uc *UseCase) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, taskID)
}

func (uc *UseCase) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, int, error) {
	return uc.tasks.List(ctx, filter)
}

// Can evaluates the task action table for the given user.
func (uc *UseCase) Can(ctx context.Context, taskID string, action domain.TaskAction, userID string) (bool, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return false, err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return false, err
	}
	return task.Can(action, userID, project)
}

// Assign adds a project member to the task's assignee set. Owner only.
func (uc *UseCase) Assign(ctx context.Context, taskID, targetID, performedBy string) error {
	task, project, performer, err := uc.loadTaskContext(ctx, taskID, performedBy)
	if err != nil {
		return err
	}

	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := task.AssignMember(project, target.ID, performer.ID, performer.Snapshot(), map[string]any{
		"assignedMember": target.Snapshot(),
	}); err != nil {
		return err
	}
	return uc.tasks.Save(ctx, task)
}

// Unassign removes a member from the assignee set. Owner only.
func (uc *UseCase) Unassign(ctx context.Context, taskID, targetID, performedBy string) error {
	task, project, performer, err := uc.loadTaskContext(ctx, taskID, performedBy)
	if err != nil {
		return err
	}

	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := task.UnassignMember(project, target.ID, performer.ID, performer.Snapshot(), map[string]any{
		"unassignedMember": target.Snapshot(),
	}); err != nil {
		return err
	}
	return uc.tasks.Save(ctx, task)
}

// UpdateStatus moves the task through its workflow. Assignees only.
func (uc *UseCase) UpdateStatus(ctx context.Context, taskID string, newStatus domain.TaskStatus, performedBy string) error {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	performer, err := uc.users.GetByID(ctx, performedBy)
	if err != nil {
		return err
	}

	if err := task.UpdateStatus(newStatus, performer.ID, performer.Snapshot()); err != nil {
		return err
	}
	return uc.tasks.Save(ctx, task)
}

// AddComment posts a comment on the task, gated by the add_comment action.
func (uc *UseCase) AddComment(ctx context.Context, taskID, authorID, content string, mentions []string) (*domain.Comment, error) {
	task, project, author, err := uc.loadTaskContext(ctx, taskID, authorID)
	if err != nil {
		return nil, err
	}

	allowed, err := task.Can(domain.TaskActionAddComment, authorID, project)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewError(domain.ErrCodeForbidden, "you are not allowed to comment on this task")
	}

	comment, err := domain.NewComment(task, author, content, mentions)
	if err != nil {
		return nil, err
	}
	comment.ID = uuid.NewString()

	// Buffer the ledger entry before the insert so the comment row and its
	// COMMENT_ADDED entry land in the same transaction.
	task.RecordCommentAdded(comment.ID, author.ID, author.Snapshot())
	return uc.comments.Create(ctx, comment, task)
}

// DeleteComment removes a comment; only its author may do so, regardless
// of task state.
func (uc *UseCase) DeleteComment(ctx context.Context, taskID, commentID, currentUserID string) error {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	comment, err := uc.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	user, err := uc.users.GetByID(ctx, currentUserID)
	if err != nil {
		return err
	}

	if err := comment.CanDelete(currentUserID, task); err != nil {
		return err
	}

	task.RecordCommentDeleted(comment.ID, user.ID, user.Snapshot())
	return uc.comments.Delete(ctx, comment, task)
}

// ListComments pages through a task's comments, gated by view_comments.
func (uc *UseCase) ListComments(ctx context.Context, taskID, userID string, filter domain.CommentFilter) ([]domain.Comment, int, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, 0, err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, 0, err
	}

	allowed, err := task.Can(domain.TaskActionViewComments, userID, project)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, domain.NewError(domain.ErrCodeForbidden, "you are not allowed to view comments on this task")
	}

	filter.TaskID = taskID
	return uc.comments.List(ctx, filter)
}

// ListActivities reads the task ledger.
func (uc *UseCase) ListActivities(ctx context.Context, taskID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error) {
	if _, err := uc.tasks.GetByID(ctx, taskID); err != nil {
		return nil, 0, err
	}
	return uc.tasks.ListActivities(ctx, taskID, filter)
}

func (uc *UseCase) loadTaskContext(ctx context.Context, taskID, userID string) (*domain.Task, *domain.Project, *domain.User, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, nil, err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return task, project, user, nil
}
