package domain

import "time"

// InvitationStatus is the lifecycle state of a project invitation.
// Accepted, rejected and expired are all terminal.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
	InvitationStatusExpired  InvitationStatus = "expired"
)

var invitationStatusTransitions = map[InvitationStatus][]InvitationStatus{
	InvitationStatusPending: {InvitationStatusAccepted, InvitationStatusRejected, InvitationStatusExpired},
}

// Invitation invites a user into a project. At most one pending invitation
// may exist per (project, invited user) pair; the storage layer enforces
// this with a partial unique index.
type Invitation struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	InvitedUser string           `json:"invited_user"`
	InvitedBy   string           `json:"invited_by"`
	Role        MemberRole       `json:"role"`
	Status      InvitationStatus `json:"status"`
	ExpiresAt   time.Time        `json:"expires_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (i *Invitation) IsPending() bool {
	return i != nil && i.Status == InvitationStatusPending
}

// IsExpired reports whether the deadline has passed relative to the given
// clock reading, regardless of the stored status.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i != nil && i.ExpiresAt.Before(now)
}

// CanAccept validates acceptance: the invitation must belong to userID,
// still be pending, not be past its deadline, and the user must not
// already belong to the project. Expiry surfaces as Gone whether the
// sweep has already flipped the status or the deadline just passed;
// Conflict is reserved for accepted/rejected invitations.
func (i *Invitation) CanAccept(userID string, project *Project, now time.Time) error {
	if project.HasMember(userID) {
		return NewError(ErrCodeConflict, "you are already a member of this project")
	}
	if i.Status == InvitationStatusExpired {
		return NewError(ErrCodeGone, "this invitation has expired")
	}
	if !i.IsPending() {
		return NewError(ErrCodeConflict, "invitation is no longer active")
	}
	if i.InvitedUser != userID {
		return NewError(ErrCodeForbidden, "this invitation does not belong to you")
	}
	if i.IsExpired(now) {
		return NewError(ErrCodeGone, "this invitation has expired")
	}
	return nil
}

// CanReject validates rejection: only the invitee may reject, only while
// pending and before expiry.
func (i *Invitation) CanReject(userID string, now time.Time) error {
	if i.InvitedUser != userID {
		return NewError(ErrCodeForbidden, "this invitation does not belong to you")
	}
	if i.Status == InvitationStatusExpired {
		return NewError(ErrCodeGone, "this invitation has already expired")
	}
	if !i.IsPending() {
		return NewError(ErrCodeConflict, "invitation is no longer active")
	}
	if i.IsExpired(now) {
		return NewError(ErrCodeGone, "this invitation has already expired")
	}
	return nil
}

// UpdateStatus applies the invitation state machine; terminal states admit
// no further transition.
func (i *Invitation) UpdateStatus(newStatus InvitationStatus) error {
	allowed, active := invitationStatusTransitions[i.Status]
	if !active {
		return NewError(ErrCodeConflict, "invitation status can no longer be changed")
	}
	for _, s := range allowed {
		if s == newStatus {
			i.Status = newStatus
			return nil
		}
	}
	return NewError(ErrCodeConflict, "invitation cannot transition to "+string(newStatus))
}
