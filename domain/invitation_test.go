package domain

import (
	"testing"
	"time"
)

func invitationFixture(t *testing.T) (*Invitation, *Project) {
	t.Helper()
	p := testProject(t)
	inv := &Invitation{
		ID:          "i-1",
		ProjectID:   p.ID,
		InvitedUser: "u-2",
		InvitedBy:   "u-owner",
		Role:        MemberRoleMember,
		Status:      InvitationStatusPending,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	return inv, p
}

func TestInvitationCanAccept(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		mutate   func(*Invitation, *Project)
		userID   string
		wantCode ErrorCode
	}{
		{"happy path", func(i *Invitation, p *Project) {}, "u-2", ""},
		{
			"already a member",
			func(i *Invitation, p *Project) {
				owner := testUser("u-owner", "owner")
				_ = p.AddMember("u-2", owner.ID, owner.Snapshot(), nil)
			},
			"u-2", ErrCodeConflict,
		},
		{
			"already accepted",
			func(i *Invitation, p *Project) { i.Status = InvitationStatusAccepted },
			"u-2", ErrCodeConflict,
		},
		{
			"already rejected",
			func(i *Invitation, p *Project) { i.Status = InvitationStatusRejected },
			"u-2", ErrCodeConflict,
		},
		{
			"marked expired by the sweep",
			func(i *Invitation, p *Project) {
				i.Status = InvitationStatusExpired
				i.ExpiresAt = now.Add(-time.Minute)
			},
			"u-2", ErrCodeGone,
		},
		{
			"someone else's invitation",
			func(i *Invitation, p *Project) {},
			"u-3", ErrCodeForbidden,
		},
		{
			"past deadline",
			func(i *Invitation, p *Project) { i.ExpiresAt = now.Add(-time.Minute) },
			"u-2", ErrCodeGone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, p := invitationFixture(t)
			tt.mutate(inv, p)

			err := inv.CanAccept(tt.userID, p, now)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("CanAccept: %v", err)
				}
				return
			}
			if !IsDomainError(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestInvitationCanReject(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		mutate   func(*Invitation)
		userID   string
		wantCode ErrorCode
	}{
		{"happy path", func(i *Invitation) {}, "u-2", ""},
		{"someone else's invitation", func(i *Invitation) {}, "u-3", ErrCodeForbidden},
		{"already rejected", func(i *Invitation) { i.Status = InvitationStatusRejected }, "u-2", ErrCodeConflict},
		{"marked expired by the sweep", func(i *Invitation) { i.Status = InvitationStatusExpired }, "u-2", ErrCodeGone},
		{"past deadline", func(i *Invitation) { i.ExpiresAt = now.Add(-time.Minute) }, "u-2", ErrCodeGone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, _ := invitationFixture(t)
			tt.mutate(inv)

			err := inv.CanReject(tt.userID, now)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("CanReject: %v", err)
				}
				return
			}
			if !IsDomainError(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestInvitationUpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		from     InvitationStatus
		to       InvitationStatus
		wantCode ErrorCode
	}{
		{"pending to accepted", InvitationStatusPending, InvitationStatusAccepted, ""},
		{"pending to rejected", InvitationStatusPending, InvitationStatusRejected, ""},
		{"pending to expired", InvitationStatusPending, InvitationStatusExpired, ""},
		{"accepted is terminal", InvitationStatusAccepted, InvitationStatusExpired, ErrCodeConflict},
		{"expired is terminal", InvitationStatusExpired, InvitationStatusAccepted, ErrCodeConflict},
		{"rejected is terminal", InvitationStatusRejected, InvitationStatusPending, ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, _ := invitationFixture(t)
			inv.Status = tt.from

			err := inv.UpdateStatus(tt.to)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("UpdateStatus: %v", err)
				}
				if inv.Status != tt.to {
					t.Errorf("status = %s, want %s", inv.Status, tt.to)
				}
				return
			}
			if !IsDomainError(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
			if inv.Status != tt.from {
				t.Errorf("status mutated to %s on failed transition", inv.Status)
			}
		})
	}
}
