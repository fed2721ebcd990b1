package domain

import "time"

// ActivityType is a closed enum per owning entity. Project-level and
// task-level ledgers carry disjoint type sets.
type ActivityType string

// Project ledger types.
const (
	ActivityProjectCreated       ActivityType = "PROJECT_CREATED"
	ActivityMemberAdded          ActivityType = "MEMBER_ADDED"
	ActivityMemberRemoved        ActivityType = "MEMBER_REMOVED"
	ActivityMemberLeft           ActivityType = "MEMBER_LEFT"
	ActivityOwnershipTransferred ActivityType = "OWNERSHIP_TRANSFERRED"
	ActivityStatusUpdated        ActivityType = "STATUS_UPDATED"
)

// Task ledger types.
const (
	ActivityTaskCreated       ActivityType = "TASK_CREATED"
	ActivityTaskAssigned      ActivityType = "TASK_ASSIGNED"
	ActivityTaskUnassigned    ActivityType = "TASK_UNASSIGNED"
	ActivityTaskStatusUpdated ActivityType = "TASK_STATUS_UPDATED"
	ActivityCommentAdded      ActivityType = "COMMENT_ADDED"
	ActivityCommentDeleted    ActivityType = "COMMENT_DELETED"
)

// MetadataSourceInvitation marks member additions that originate from an
// accepted invitation rather than a direct owner action.
const MetadataSourceInvitation = "INVITATION"

// ActorSnapshot is the identity of the performing user, copied into the
// ledger entry when it is written. It must never be treated as a reference
// to the live user record.
type ActorSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ActivityEntry is an immutable, append-only record of a domain mutation.
type ActivityEntry struct {
	ID          string         `json:"id"`
	Type        ActivityType   `json:"type"`
	ProjectID   string         `json:"project_id"`
	TaskID      string         `json:"task_id,omitempty"`
	PerformedBy string         `json:"performed_by"`
	Performer   ActorSnapshot  `json:"performed_by_snapshot"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ActivitySort orders ledger reads by creation time.
type ActivitySort string

const (
	ActivitySortAsc  ActivitySort = "asc"
	ActivitySortDesc ActivitySort = "desc"
)

// ActivityFilter narrows ledger reads. Zero values mean "no constraint".
type ActivityFilter struct {
	Types []ActivityType
	From  time.Time
	To    time.Time
	Page  int
	Limit int
	Sort  ActivitySort
}

// Normalize clamps pagination to server-side minimums and defaults the
// sort order to newest-first.
func (f *ActivityFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Sort != ActivitySortAsc {
		f.Sort = ActivitySortDesc
	}
}

// Matches reports whether the entry passes the type and time-range
// constraints of the filter. Pagination is applied by the caller.
func (f ActivityFilter) Matches(entry ActivityEntry) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if entry.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && entry.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !entry.CreatedAt.Before(f.To) {
		return false
	}
	return true
}
