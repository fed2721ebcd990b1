package domain

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// completed is terminal.
var taskStatusTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusTodo:       {TaskStatusInProgress, TaskStatusCompleted},
	TaskStatusInProgress: {TaskStatusCompleted},
	TaskStatusCompleted:  {},
}

// TaskAction is the closed set of permission-gated task operations. The
// enum keeps the permission dispatch exhaustive at compile time instead of
// string-keyed.
type TaskAction string

const (
	TaskActionViewComments    TaskAction = "view_comments"
	TaskActionAddComment      TaskAction = "add_comment"
	TaskActionUpdateStatus    TaskAction = "update_status"
	TaskActionAssignMembers   TaskAction = "assign_members"
	TaskActionUnassignMembers TaskAction = "unassign_members"
)

// DefaultCompletionWindow is applied when a task is created without an
// explicit deadline.
const DefaultCompletionWindow = 7 * 24 * time.Hour

// Task is the assignment/status aggregate. Like Project, mutations buffer
// their ledger entries for the repository to persist atomically.
type Task struct {
	ID                 string     `json:"id"`
	ProjectID          string     `json:"project_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	CreatedBy          string     `json:"created_by"`
	AssignedTo         []string   `json:"assigned_to"`
	CompletionDeadline time.Time  `json:"completion_deadline"`
	Status             TaskStatus `json:"status"`
	Version            int        `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	pending []ActivityEntry
}

// NewTask creates a todo task in the given project and records the
// creation in the task ledger.
func NewTask(project *Project, title, description string, creator *User) (*Task, error) {
	if title == "" {
		return nil, NewError(ErrCodeInvalid, "task title is required")
	}
	if project == nil || project.ID == "" {
		return nil, NewError(ErrCodeInvalid, "task must belong to a project")
	}
	if creator == nil || creator.ID == "" {
		return nil, NewError(ErrCodeInvalid, "task creator is required")
	}

	t := &Task{
		ProjectID:          project.ID,
		Title:              title,
		Description:        description,
		CreatedBy:          creator.ID,
		CompletionDeadline: time.Now().Add(DefaultCompletionWindow),
		Status:             TaskStatusTodo,
	}
	t.appendActivity(ActivityTaskCreated, creator.ID, creator.Snapshot(), nil)
	return t, nil
}

// IsAssignee reports whether the user is in the assignedTo set.
func (t *Task) IsAssignee(userID string) bool {
	if t == nil {
		return false
	}
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// IsActive reports whether the task still accepts work.
func (t *Task) IsActive() bool {
	return t != nil && (t.Status == TaskStatusTodo || t.Status == TaskStatusInProgress)
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskStatusCompleted
}

// Can computes whether userID may perform the action on this task, given
// the owning project for the role lookup. Unknown actions fail with a
// Validation error rather than a silent false.
func (t *Task) Can(action TaskAction, userID string, project *Project) (bool, error) {
	isAssignee := t.IsAssignee(userID)
	isOwner := project.IsOwner(userID)

	switch action {
	case TaskActionViewComments:
		return isAssignee || isOwner, nil
	case TaskActionAddComment:
		return t.IsActive() && isAssignee, nil
	case TaskActionUpdateStatus:
		return isAssignee, nil
	case TaskActionAssignMembers:
		return t.IsActive() && isOwner, nil
	case TaskActionUnassignMembers:
		return isOwner, nil
	default:
		return false, NewError(ErrCodeInvalid, "unknown task action "+string(action))
	}
}

// AssignMember adds targetID to the assignedTo set. Only the project owner
// may assign, only current project members may be assigned, and completed
// tasks accept no further assignments.
func (t *Task) AssignMember(project *Project, targetID, performedBy string, snapshot ActorSnapshot, metadata map[string]any) error {
	if !project.HasMember(targetID) {
		return NewError(ErrCodeInvalid, "the user to assign is not a member of this project")
	}
	if !project.IsOwner(performedBy) {
		return NewError(ErrCodeForbidden, "only the project owner can assign members to a task")
	}
	if t.IsAssignee(targetID) {
		return NewError(ErrCodeConflict, "the member is already assigned to this task")
	}
	if !t.IsActive() {
		return NewError(ErrCodeForbidden, "task is completed, members can no longer be assigned")
	}

	t.AssignedTo = append(t.AssignedTo, targetID)
	t.appendActivity(ActivityTaskAssigned, performedBy, snapshot, metadata)
	return nil
}

// UnassignMember removes targetID from the assignedTo set.
func (t *Task) UnassignMember(project *Project, targetID, performedBy string, snapshot ActorSnapshot, metadata map[string]any) error {
	if !project.IsOwner(performedBy) {
		return NewError(ErrCodeForbidden, "only the project owner can unassign members from a task")
	}
	if !t.IsAssignee(targetID) {
		return NewError(ErrCodeNotFound, "the member is not assigned to this task")
	}

	assigned := t.AssignedTo[:0]
	for _, id := range t.AssignedTo {
		if id != targetID {
			assigned = append(assigned, id)
		}
	}
	t.AssignedTo = assigned
	t.appendActivity(ActivityTaskUnassigned, performedBy, snapshot, metadata)
	return nil
}

// UpdateStatus moves the task through its workflow. Only assignees may
// transition the status, and completed tasks never leave their state.
func (t *Task) UpdateStatus(newStatus TaskStatus, performedBy string, snapshot ActorSnapshot) error {
	if _, known := taskStatusTransitions[newStatus]; !known {
		return NewError(ErrCodeInvalid, "unknown task status")
	}
	if !t.IsAssignee(performedBy) {
		return NewError(ErrCodeForbidden, "you are not assigned to this task")
	}

	allowed := false
	for _, s := range taskStatusTransitions[t.Status] {
		if s == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return NewError(ErrCodeConflict, "task status cannot transition from "+string(t.Status)+" to "+string(newStatus))
	}

	oldStatus := t.Status
	t.Status = newStatus
	t.appendActivity(ActivityTaskStatusUpdated, performedBy, snapshot, map[string]any{
		"oldStatus": string(oldStatus),
		"newStatus": string(newStatus),
	})
	return nil
}

// RecordCommentAdded appends the ledger entry for a new comment; the
// comment row itself is persisted by the comment repository.
func (t *Task) RecordCommentAdded(commentID, performedBy string, snapshot ActorSnapshot) {
	t.appendActivity(ActivityCommentAdded, performedBy, snapshot, map[string]any{
		"commentId": commentID,
	})
}

// RecordCommentDeleted appends the ledger entry for a deleted comment.
func (t *Task) RecordCommentDeleted(commentID, performedBy string, snapshot ActorSnapshot) {
	t.appendActivity(ActivityCommentDeleted, performedBy, snapshot, map[string]any{
		"commentId": commentID,
	})
}

// PendingActivities returns ledger entries buffered since load.
func (t *Task) PendingActivities() []ActivityEntry {
	if t == nil {
		return nil
	}
	return t.pending
}

// ClearActivities drops the buffered entries after a successful save.
func (t *Task) ClearActivities() {
	if t != nil {
		t.pending = nil
	}
}

func (t *Task) appendActivity(typ ActivityType, performedBy string, snapshot ActorSnapshot, metadata map[string]any) {
	t.pending = append(t.pending, ActivityEntry{
		Type:        typ,
		ProjectID:   t.ProjectID,
		TaskID:      t.ID,
		PerformedBy: performedBy,
		Performer:   snapshot,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	})
}
