package services

import (
	"context"
	"errors"
	"testing"
)

type fakeExpirer struct {
	calls int
	count int64
	err   error
}

func (f *fakeExpirer) ExpirePending(context.Context) (int64, error) {
	f.calls++
	return f.count, f.err
}

func TestSweep(t *testing.T) {
	expirer := &fakeExpirer{count: 3}
	sweeper := NewInvitationSweeper(expirer, 0, nil)

	sweeper.Sweep(context.Background())
	if expirer.calls != 1 {
		t.Errorf("calls = %d, want 1", expirer.calls)
	}

	// errors are logged, not propagated; the next tick tries again
	expirer.err = errors.New("db down")
	sweeper.Sweep(context.Background())
	if expirer.calls != 2 {
		t.Errorf("calls = %d, want 2", expirer.calls)
	}
}

func TestSweeperStartStop(t *testing.T) {
	sweeper := NewInvitationSweeper(&fakeExpirer{}, 0, nil)
	sweeper.Start()
	sweeper.Stop(context.Background())
}
