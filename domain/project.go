package domain

import "time"

// MemberRole is the role of a user inside a single project.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusInactive  ProjectStatus = "inactive"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// completed is terminal.
var projectStatusTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusActive:    {ProjectStatusInactive, ProjectStatusCompleted},
	ProjectStatusInactive:  {ProjectStatusActive, ProjectStatusCompleted},
	ProjectStatusCompleted: {},
}

// ProjectMember ties a user to a project with a role. Exactly one member
// holds MemberRoleOwner at all times after creation.
type ProjectMember struct {
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// Project is the membership/ownership aggregate. Mutations buffer their
// ledger entries on the aggregate; the repository persists members and
// entries under a single version-checked write.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      ProjectStatus   `json:"status"`
	Members     []ProjectMember `json:"members"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	pending []ActivityEntry
}

// NewProject creates an active project with the creator as sole owner and
// records the creation in the ledger.
func NewProject(name, description string, creator *User) (*Project, error) {
	if name == "" {
		return nil, NewError(ErrCodeInvalid, "project name is required")
	}
	if creator == nil || creator.ID == "" {
		return nil, NewError(ErrCodeInvalid, "project creator is required")
	}

	p := &Project{
		Name:        name,
		Description: description,
		Status:      ProjectStatusActive,
		Members: []ProjectMember{{
			UserID:   creator.ID,
			Role:     MemberRoleOwner,
			JoinedAt: time.Now(),
		}},
	}
	p.appendActivity(ActivityProjectCreated, creator.ID, creator.Snapshot(), nil)
	return p, nil
}

// HasMember reports whether the user belongs to the project.
func (p *Project) HasMember(userID string) bool {
	if p == nil {
		return false
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsOwner reports whether the user is the project owner.
func (p *Project) IsOwner(userID string) bool {
	if p == nil {
		return false
	}
	for _, m := range p.Members {
		if m.UserID == userID && m.Role == MemberRoleOwner {
			return true
		}
	}
	return false
}

// OwnerID returns the current owner's user id, or "" when the member set
// is (invalidly) ownerless.
func (p *Project) OwnerID() string {
	if p == nil {
		return ""
	}
	for _, m := range p.Members {
		if m.Role == MemberRoleOwner {
			return m.UserID
		}
	}
	return ""
}

func (p *Project) IsActive() bool {
	return p != nil && p.Status == ProjectStatusActive
}

func (p *Project) IsCompleted() bool {
	return p != nil && p.Status == ProjectStatusCompleted
}

// CanTransitionTo reports whether the lifecycle state machine permits the
// move from the current status.
func (p *Project) CanTransitionTo(newStatus ProjectStatus) bool {
	if p == nil {
		return false
	}
	for _, allowed := range projectStatusTransitions[p.Status] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// AddMember appends userID to the member set with role member. Who may
// call it (owner, or the invitation flow) is enforced by the caller; the
// engine enforces only the uniqueness invariant.
func (p *Project) AddMember(userID, performedBy string, snapshot ActorSnapshot, metadata map[string]any) error {
	if p.HasMember(userID) {
		return NewError(ErrCodeConflict, "user is already a member of this project")
	}

	p.Members = append(p.Members, ProjectMember{
		UserID:   userID,
		Role:     MemberRoleMember,
		JoinedAt: time.Now(),
	})
	p.appendActivity(ActivityMemberAdded, performedBy, snapshot, metadata)
	return nil
}

// RemoveMember removes targetID from the member set. The owner cannot be
// removed; ownership must be transferred first.
func (p *Project) RemoveMember(targetID, performedBy string, snapshot ActorSnapshot, metadata map[string]any) error {
	if !p.HasMember(targetID) {
		return NewError(ErrCodeNotFound, "user is not a member of this project")
	}
	if p.IsOwner(targetID) {
		return NewError(ErrCodeConflict, "the owner cannot be removed; transfer ownership first")
	}

	p.deleteMember(targetID)
	p.appendActivity(ActivityMemberRemoved, performedBy, snapshot, metadata)
	return nil
}

// ChangeOwner demotes the current owner to member and promotes newOwnerID,
// exactly one role flip each. The member set never observes zero or two
// owners: both flips happen before the aggregate is saved.
func (p *Project) ChangeOwner(newOwnerID, performedBy string, snapshot ActorSnapshot, metadata map[string]any) error {
	if p.IsOwner(newOwnerID) {
		return NewError(ErrCodeConflict, "user is already the owner of this project")
	}
	if !p.HasMember(newOwnerID) {
		return NewError(ErrCodeNotFound, "the new owner must be an existing member")
	}

	for i := range p.Members {
		switch {
		case p.Members[i].Role == MemberRoleOwner:
			p.Members[i].Role = MemberRoleMember
		case p.Members[i].UserID == newOwnerID:
			p.Members[i].Role = MemberRoleOwner
		}
	}
	p.appendActivity(ActivityOwnershipTransferred, performedBy, snapshot, metadata)
	return nil
}

// Leave removes userID at their own request. Owners must transfer
// ownership before leaving.
func (p *Project) Leave(userID, performedBy string, snapshot ActorSnapshot, metadata map[string]any) error {
	if !p.HasMember(userID) {
		return NewError(ErrCodeNotFound, "you are not a member of this project")
	}
	if p.IsOwner(userID) {
		return NewError(ErrCodeConflict, "the owner cannot leave; transfer ownership first")
	}

	p.deleteMember(userID)
	p.appendActivity(ActivityMemberLeft, performedBy, snapshot, metadata)
	return nil
}

// UpdateStatus moves the project through its lifecycle state machine and
// records {oldStatus, newStatus} in the ledger.
func (p *Project) UpdateStatus(newStatus ProjectStatus, performedBy string, snapshot ActorSnapshot) error {
	if _, known := projectStatusTransitions[newStatus]; !known {
		return NewError(ErrCodeInvalid, "unknown project status")
	}
	if !p.CanTransitionTo(newStatus) {
		return NewError(ErrCodeConflict, "project status cannot transition from "+string(p.Status)+" to "+string(newStatus))
	}

	oldStatus := p.Status
	p.Status = newStatus
	p.appendActivity(ActivityStatusUpdated, performedBy, snapshot, map[string]any{
		"oldStatus": string(oldStatus),
		"newStatus": string(newStatus),
	})
	return nil
}

// PendingActivities returns ledger entries buffered by mutations since the
// aggregate was loaded. The repository writes them in the same transaction
// as the member/status save.
func (p *Project) PendingActivities() []ActivityEntry {
	if p == nil {
		return nil
	}
	return p.pending
}

// ClearActivities drops the buffered entries after a successful save.
func (p *Project) ClearActivities() {
	if p != nil {
		p.pending = nil
	}
}

func (p *Project) deleteMember(userID string) {
	members := p.Members[:0]
	for _, m := range p.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	p.Members = members
}

func (p *Project) appendActivity(t ActivityType, performedBy string, snapshot ActorSnapshot, metadata map[string]any) {
	p.pending = append(p.pending, ActivityEntry{
		Type:        t,
		ProjectID:   p.ID,
		PerformedBy: performedBy,
		Performer:   snapshot,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	})
}
