package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PendingExpirer marks overdue pending invitations as expired.
type PendingExpirer interface {
	ExpirePending(ctx context.Context) (int64, error)
}

// InvitationSweeper runs the invitation expiry sweep on a fixed
// schedule. The sweep is safe to run concurrently with in-flight
// acceptances because the storage layer only touches rows still in the
// pending state.
type InvitationSweeper struct {
	expirer  PendingExpirer
	logger   *zap.Logger
	cron     *cron.Cron
	interval time.Duration
}

func NewInvitationSweeper(expirer PendingExpirer, interval time.Duration, logger *zap.Logger) *InvitationSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &InvitationSweeper{
		expirer:  expirer,
		logger:   logger,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		s.Sweep(ctx)
	})

	return s
}

// Start launches the cron scheduler.
func (s *InvitationSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("invitation sweeper started", zap.Duration("interval", s.interval))
}

// Stop gracefully stops the scheduler.
func (s *InvitationSweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("invitation sweeper stopped")
}

// Sweep runs a single expiry pass.
func (s *InvitationSweeper) Sweep(ctx context.Context) {
	expired, err := s.expirer.ExpirePending(ctx)
	if err != nil {
		s.logger.Error("invitation sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		s.logger.Info("expired overdue invitations", zap.Int64("count", expired))
	}
}
