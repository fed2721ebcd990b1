package domain

import (
	"testing"
	"time"
)

func TestActivityFilterNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        ActivityFilter
		wantPage  int
		wantLimit int
		wantSort  ActivitySort
	}{
		{"zero value", ActivityFilter{}, 1, 10, ActivitySortDesc},
		{"negative page", ActivityFilter{Page: -3, Limit: 5}, 1, 5, ActivitySortDesc},
		{"asc preserved", ActivityFilter{Page: 2, Limit: 20, Sort: ActivitySortAsc}, 2, 20, ActivitySortAsc},
		{"garbage sort", ActivityFilter{Sort: ActivitySort("newest")}, 1, 10, ActivitySortDesc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			if tt.in.Page != tt.wantPage || tt.in.Limit != tt.wantLimit || tt.in.Sort != tt.wantSort {
				t.Errorf("got page=%d limit=%d sort=%s, want page=%d limit=%d sort=%s",
					tt.in.Page, tt.in.Limit, tt.in.Sort, tt.wantPage, tt.wantLimit, tt.wantSort)
			}
		})
	}
}

func TestActivityFilterMatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := ActivityEntry{Type: ActivityMemberAdded, CreatedAt: base}

	tests := []struct {
		name   string
		filter ActivityFilter
		want   bool
	}{
		{"no constraints", ActivityFilter{}, true},
		{"type match", ActivityFilter{Types: []ActivityType{ActivityMemberAdded}}, true},
		{"type mismatch", ActivityFilter{Types: []ActivityType{ActivityMemberRemoved}}, false},
		{"inside range", ActivityFilter{From: base.Add(-time.Hour), To: base.Add(time.Hour)}, true},
		{"before from", ActivityFilter{From: base.Add(time.Minute)}, false},
		{"at or after to", ActivityFilter{To: base}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(entry); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActorSnapshotIsWriteTimeCopy(t *testing.T) {
	performer := testUser("u-owner", "old-name")
	project, err := NewProject("launch", "", performer)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}

	performer.Username = "new-name"
	performer.Email = "new@example.com"

	entry := project.PendingActivities()[0]
	if entry.Performer.Username != "old-name" || entry.Performer.Email != "old-name@example.com" {
		t.Errorf("snapshot = %+v, want the identity captured at write time", entry.Performer)
	}
}
