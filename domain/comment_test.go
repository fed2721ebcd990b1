package domain

import "testing"

func TestNewComment(t *testing.T) {
	task, _ := taskFixture(t)
	author := testUser("u-member", "bob")

	c, err := NewComment(task, author, "looks good", []string{"u-owner"})
	if err != nil {
		t.Fatalf("NewComment: %v", err)
	}
	if c.TaskID != task.ID || c.ProjectID != task.ProjectID {
		t.Errorf("comment bound to %s/%s, want %s/%s", c.ProjectID, c.TaskID, task.ProjectID, task.ID)
	}
	if c.CommentedBy != "u-member" {
		t.Errorf("CommentedBy = %s, want u-member", c.CommentedBy)
	}

	if _, err := NewComment(task, author, "", nil); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("empty content: err = %v, want INVALID", err)
	}
	if _, err := NewComment(nil, author, "x", nil); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("nil task: err = %v, want INVALID", err)
	}
	if _, err := NewComment(task, nil, "x", nil); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("nil author: err = %v, want INVALID", err)
	}
}

func TestCommentCanDelete(t *testing.T) {
	task, _ := taskFixture(t)
	author := testUser("u-member", "bob")
	c, err := NewComment(task, author, "looks good", nil)
	if err != nil {
		t.Fatalf("NewComment: %v", err)
	}
	c.ID = "c-1"

	if err := c.CanDelete("u-member", task); err != nil {
		t.Errorf("author delete: %v", err)
	}
	if err := c.CanDelete("u-owner", task); !IsDomainError(err, ErrCodeForbidden) {
		t.Errorf("non-author delete: err = %v, want FORBIDDEN", err)
	}

	other := *task
	other.ID = "t-other"
	if err := c.CanDelete("u-member", &other); !IsDomainError(err, ErrCodeConflict) {
		t.Errorf("wrong task: err = %v, want CONFLICT", err)
	}

	// deletable even after the task completes
	task.Status = TaskStatusCompleted
	if err := c.CanDelete("u-member", task); err != nil {
		t.Errorf("delete on completed task: %v", err)
	}
}
