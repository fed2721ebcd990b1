package postgres

import (
	"testing"
	"time"

	"github.com/projecthub/backend/domain"
)

// rowFunc adapts a closure to the Scan interface the scan helpers take.
type rowFunc func(dest ...interface{}) error

func (f rowFunc) Scan(dest ...interface{}) error { return f(dest...) }

func TestScanProject(t *testing.T) {
	now := time.Now()
	row := func(members []byte) rowFunc {
		return func(dest ...interface{}) error {
			*dest[0].(*string) = "p-1"
			*dest[1].(*string) = "launch"
			*dest[2].(*string) = "launch prep"
			*dest[3].(*string) = string(domain.ProjectStatusActive)
			*dest[4].(*[]byte) = members
			*dest[5].(*int) = 3
			*dest[6].(*time.Time) = now
			*dest[7].(*time.Time) = now
			return nil
		}
	}

	p, err := scanProject(row([]byte(`[{"user_id":"u-1","role":"owner"}]`)))
	if err != nil {
		t.Fatalf("scanProject: %v", err)
	}
	if len(p.Members) != 1 || p.Members[0].Role != domain.MemberRoleOwner {
		t.Errorf("members = %+v, want single owner", p.Members)
	}

	// a corrupt members column must fail the load, not come back empty
	if _, err := scanProject(row([]byte(`{not json`))); err == nil {
		t.Fatal("corrupt members column scanned cleanly")
	}
}

func TestScanActivity(t *testing.T) {
	now := time.Now()
	row := func(snapshot, metadata []byte) rowFunc {
		return func(dest ...interface{}) error {
			*dest[0].(*string) = "a-1"
			*dest[1].(*string) = "p-1"
			*dest[2].(*string) = ""
			*dest[3].(*string) = string(domain.ActivityMemberAdded)
			*dest[4].(*string) = "u-owner"
			*dest[5].(*[]byte) = snapshot
			*dest[6].(*[]byte) = metadata
			*dest[7].(*time.Time) = now
			return nil
		}
	}

	entry, err := scanActivity(row([]byte(`{"id":"u-owner","username":"sam"}`), nil))
	if err != nil {
		t.Fatalf("scanActivity: %v", err)
	}
	if entry.Performer.Username != "sam" {
		t.Errorf("performer = %+v, want snapshot of sam", entry.Performer)
	}

	if _, err := scanActivity(row([]byte(`{broken`), nil)); err == nil {
		t.Fatal("corrupt snapshot column scanned cleanly")
	}
	if _, err := scanActivity(row(nil, []byte(`{broken`))); err == nil {
		t.Fatal("corrupt metadata column scanned cleanly")
	}
}
