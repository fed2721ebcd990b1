package invitation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
	"github.com/projecthub/backend/usecase"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByVerificationToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByResetToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) List(context.Context, repository.UserFilter) ([]domain.User, int, error) {
	return nil, 0, nil
}

type fakeProjectRepo struct {
	projects   map[string]*domain.Project
	activities map[string][]domain.ActivityEntry
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProjectNotFound
}

func (f *fakeProjectRepo) List(context.Context, repository.ProjectFilter) ([]domain.Project, int, error) {
	return nil, 0, nil
}

func (f *fakeProjectRepo) Create(_ context.Context, p *domain.Project) (*domain.Project, error) {
	f.save(p)
	return p, nil
}

func (f *fakeProjectRepo) Save(_ context.Context, p *domain.Project) error {
	f.save(p)
	return nil
}

func (f *fakeProjectRepo) ListActivities(_ context.Context, projectID string, _ domain.ActivityFilter) ([]domain.ActivityEntry, int, error) {
	entries := f.activities[projectID]
	return entries, len(entries), nil
}

func (f *fakeProjectRepo) save(p *domain.Project) {
	if f.activities == nil {
		f.activities = map[string][]domain.ActivityEntry{}
	}
	f.projects[p.ID] = p
	f.activities[p.ID] = append(f.activities[p.ID], p.PendingActivities()...)
	p.ClearActivities()
	p.Version++
}

type fakeInvitationRepo struct {
	invitations map[string]*domain.Invitation
	projects    *fakeProjectRepo
	seq         int
}

// GetByID hands out a copy; only UpdateStatus/Accept make a flip visible
// in the store, like the real repository.
func (f *fakeInvitationRepo) GetByID(_ context.Context, id string) (*domain.Invitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	for _, existing := range f.invitations {
		if existing.ProjectID == inv.ProjectID && existing.InvitedUser == inv.InvitedUser && existing.IsPending() {
			return nil, domain.NewError(domain.ErrCodeConflict, "a pending invitation already exists for this user")
		}
	}
	f.seq++
	inv.ID = fmt.Sprintf("inv-%d", f.seq)
	inv.CreatedAt = time.Now()
	f.invitations[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvitationRepo) List(_ context.Context, filter repository.InvitationFilter) ([]domain.Invitation, int, error) {
	var out []domain.Invitation
	for _, inv := range f.invitations {
		if inv.InvitedUser != filter.InvitedUser {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if inv.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (f *fakeInvitationRepo) HasPending(_ context.Context, projectID, userID string) (bool, error) {
	for _, inv := range f.invitations {
		if inv.ProjectID == projectID && inv.InvitedUser == userID && inv.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitationRepo) UpdateStatus(_ context.Context, id string, status domain.InvitationStatus) error {
	inv, ok := f.invitations[id]
	if !ok {
		return domain.ErrInvitationNotFound
	}
	if !inv.IsPending() {
		return domain.NewError(domain.ErrCodeConflict, "invitation status can no longer be changed")
	}
	inv.Status = status
	return nil
}

func (f *fakeInvitationRepo) Accept(ctx context.Context, inv *domain.Invitation, project *domain.Project) error {
	if err := f.UpdateStatus(ctx, inv.ID, domain.InvitationStatusAccepted); err != nil {
		return err
	}
	f.projects.save(project)
	inv.Status = domain.InvitationStatusAccepted
	return nil
}

func (f *fakeInvitationRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invitations {
		if inv.IsPending() && inv.ExpiresAt.Before(now) {
			inv.Status = domain.InvitationStatusExpired
			n++
		}
	}
	return n, nil
}

type captureNotifier struct {
	sent []usecase.Email
}

func (c *captureNotifier) Send(_ context.Context, e usecase.Email) error {
	c.sent = append(c.sent, e)
	return nil
}

type fixture struct {
	uc       *UseCase
	users    *fakeUserRepo
	projects *fakeProjectRepo
	invites  *fakeInvitationRepo
	notifier *captureNotifier
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	owner := &domain.User{ID: "u-owner", Username: "owner", Email: "owner@example.com"}
	invitee := &domain.User{ID: "u-invitee", Username: "dana", Email: "dana@example.com"}

	project, err := domain.NewProject("launch", "", owner)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	project.ID = "p-1"
	project.ClearActivities()

	users := &fakeUserRepo{users: map[string]*domain.User{owner.ID: owner, invitee.ID: invitee}}
	projects := &fakeProjectRepo{projects: map[string]*domain.Project{project.ID: project}}
	invites := &fakeInvitationRepo{invitations: map[string]*domain.Invitation{}, projects: projects}
	notifier := &captureNotifier{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	uc := New(invites, projects, users, notifier, DefaultExpiryWindow, nil).
		WithClock(func() time.Time { return *clock })

	return &fixture{uc: uc, users: users, projects: projects, invites: invites, notifier: notifier, clock: clock}
}

func TestSend(t *testing.T) {
	f := newFixture(t)

	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if inv.Status != domain.InvitationStatusPending {
		t.Errorf("status = %s, want pending", inv.Status)
	}
	if want := f.clock.Add(DefaultExpiryWindow); !inv.ExpiresAt.Equal(want) {
		t.Errorf("expires at %s, want %s", inv.ExpiresAt, want)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].To != "dana@example.com" {
		t.Errorf("notification = %+v, want one email to dana", f.notifier.sent)
	}
}

func TestSendRejections(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(t *testing.T, f *fixture)
		email    string
		actor    string
		wantCode domain.ErrorCode
	}{
		{
			"non-owner cannot invite",
			func(t *testing.T, f *fixture) {}, "dana@example.com", "u-invitee", domain.ErrCodeForbidden,
		},
		{
			"unknown email",
			func(t *testing.T, f *fixture) {}, "ghost@example.com", "u-owner", domain.ErrCodeNotFound,
		},
		{
			"already a member",
			func(t *testing.T, f *fixture) {
				p := f.projects.projects["p-1"]
				owner := f.users.users["u-owner"]
				if err := p.AddMember("u-invitee", owner.ID, owner.Snapshot(), nil); err != nil {
					t.Fatalf("AddMember: %v", err)
				}
				p.ClearActivities()
			},
			"dana@example.com", "u-owner", domain.ErrCodeConflict,
		},
		{
			"duplicate pending invitation",
			func(t *testing.T, f *fixture) {
				if _, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner"); err != nil {
					t.Fatalf("first Send: %v", err)
				}
			},
			"dana@example.com", "u-owner", domain.ErrCodeConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.prepare(t, f)

			_, err := f.uc.Send(context.Background(), "p-1", tt.email, tt.actor)
			if !domain.IsDomainError(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestAccept(t *testing.T) {
	f := newFixture(t)

	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	accepted, err := f.uc.Accept(context.Background(), inv.ID, "u-invitee")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != domain.InvitationStatusAccepted {
		t.Errorf("status = %s, want accepted", accepted.Status)
	}
	if !f.projects.projects["p-1"].HasMember("u-invitee") {
		t.Error("invitee should have joined the project")
	}

	// the membership ledger entry carries the invitation provenance
	entries := f.projects.activities["p-1"]
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Type != domain.ActivityMemberAdded {
		t.Errorf("entry type = %s, want MEMBER_ADDED", entry.Type)
	}
	if entry.Metadata["source"] != domain.MetadataSourceInvitation {
		t.Errorf("metadata source = %v, want %s", entry.Metadata["source"], domain.MetadataSourceInvitation)
	}
	if entry.Metadata["invitationId"] != inv.ID {
		t.Errorf("metadata invitationId = %v, want %s", entry.Metadata["invitationId"], inv.ID)
	}
	if entry.Performer.Username != "dana" {
		t.Errorf("performer snapshot = %+v, want dana", entry.Performer)
	}
}

func TestAcceptRejections(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := f.uc.Accept(context.Background(), inv.ID, "u-owner"); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Errorf("accepting someone else's invitation: err = %v, want FORBIDDEN", err)
	}

	// past the deadline the invitation is gone, even before the sweep runs
	*f.clock = f.clock.Add(DefaultExpiryWindow + time.Hour)
	if _, err := f.uc.Accept(context.Background(), inv.ID, "u-invitee"); !domain.IsDomainError(err, domain.ErrCodeGone) {
		t.Errorf("expired accept: err = %v, want GONE", err)
	}
	if got := f.invites.invitations[inv.ID].Status; got != domain.InvitationStatusPending {
		t.Errorf("status = %s, want pending (the sweep flips it, not a failed accept)", got)
	}
}

func TestAcceptTwice(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := f.uc.Accept(context.Background(), inv.ID, "u-invitee"); err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	// re-running acceptance fails fast on the membership invariant
	if _, err := f.uc.Accept(context.Background(), inv.ID, "u-invitee"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Errorf("second accept: err = %v, want CONFLICT", err)
	}
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := f.uc.Reject(context.Background(), inv.ID, "u-owner"); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Errorf("rejecting someone else's invitation: err = %v, want FORBIDDEN", err)
	}
	if err := f.uc.Reject(context.Background(), inv.ID, "u-invitee"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got := f.invites.invitations[inv.ID].Status; got != domain.InvitationStatusRejected {
		t.Errorf("status = %s, want rejected", got)
	}
	if f.projects.projects["p-1"].HasMember("u-invitee") {
		t.Error("rejection must not add the user")
	}

	// the state machine admits no second flip out of a terminal state
	if err := f.uc.Reject(context.Background(), inv.ID, "u-invitee"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Errorf("second reject: err = %v, want CONFLICT", err)
	}
}

func TestExpirePending(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// nothing to expire yet
	n, err := f.uc.ExpirePending(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("ExpirePending = %d, %v; want 0, nil", n, err)
	}

	*f.clock = f.clock.Add(DefaultExpiryWindow + time.Minute)
	n, err = f.uc.ExpirePending(context.Background())
	if err != nil {
		t.Fatalf("ExpirePending: %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}
	if got := f.invites.invitations[inv.ID].Status; got != domain.InvitationStatusExpired {
		t.Errorf("status = %s, want expired", got)
	}

	// the sweep never resurrects or double-flips
	n, err = f.uc.ExpirePending(context.Background())
	if err != nil || n != 0 {
		t.Errorf("second sweep = %d, %v; want 0, nil", n, err)
	}

	// accepting an invitation the sweep already flipped surfaces as Gone
	if _, err := f.uc.Accept(context.Background(), inv.ID, "u-invitee"); !domain.IsDomainError(err, domain.ErrCodeGone) {
		t.Errorf("accept after sweep: err = %v, want GONE", err)
	}
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Send(context.Background(), "p-1", "dana@example.com", "u-owner")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	invitations, total, err := f.uc.ListForUser(context.Background(), "u-invitee", 1, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if total != 1 || len(invitations) != 1 || invitations[0].ID != inv.ID {
		t.Errorf("got %d/%d invitations, want the pending one", len(invitations), total)
	}

	// rejected invitations drop out of the listing
	if err := f.uc.Reject(context.Background(), inv.ID, "u-invitee"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	invitations, total, err = f.uc.ListForUser(context.Background(), "u-invitee", 1, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if total != 0 || len(invitations) != 0 {
		t.Errorf("got %d/%d invitations after rejection, want none", len(invitations), total)
	}
}
