package domain

import "time"

// Comment is an append-only note on a task. Comments are deletable only by
// their author, regardless of task state.
type Comment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	ProjectID   string    `json:"project_id"`
	CommentedBy string    `json:"commented_by"`
	Mentions    []string  `json:"mentions,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewComment creates a comment authored by the given user.
func NewComment(task *Task, author *User, content string, mentions []string) (*Comment, error) {
	if content == "" {
		return nil, NewError(ErrCodeInvalid, "comment content is required")
	}
	if task == nil || task.ID == "" {
		return nil, NewError(ErrCodeInvalid, "comment must belong to a task")
	}
	if author == nil || author.ID == "" {
		return nil, NewError(ErrCodeInvalid, "comment author is required")
	}
	return &Comment{
		TaskID:      task.ID,
		ProjectID:   task.ProjectID,
		CommentedBy: author.ID,
		Mentions:    mentions,
		Content:     content,
	}, nil
}

// CanDelete validates deletion against the task the caller addressed: the
// comment must belong to that task and currentUserID must be the author.
func (c *Comment) CanDelete(currentUserID string, task *Task) error {
	if task == nil || c.TaskID != task.ID {
		return NewError(ErrCodeConflict, "comment does not belong to the specified task")
	}
	if c.CommentedBy != currentUserID {
		return NewError(ErrCodeForbidden, "you are not the author of this comment")
	}
	return nil
}

// CommentSort orders comment reads by creation time.
type CommentSort string

const (
	CommentSortAsc  CommentSort = "asc"
	CommentSortDesc CommentSort = "desc"
)

// CommentFilter paginates comment reads for a task.
type CommentFilter struct {
	TaskID string
	Page   int
	Limit  int
	Sort   CommentSort
}

// Normalize clamps pagination to server-side minimums.
func (f *CommentFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Sort != CommentSortAsc {
		f.Sort = CommentSortDesc
	}
}
