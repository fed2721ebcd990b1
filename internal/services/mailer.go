package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/projecthub/backend/internal/infrastructure/outbox"
	"github.com/projecthub/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Sender delivers a single message to the mail gateway.
type Sender interface {
	Send(msg outbox.Message) error
}

// SMTPSender delivers mail over plain-auth SMTP.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) Send(msg outbox.Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, auth, s.from, []string{msg.To}, []byte(b.String()))
}

// MailerConfig controls how frequently the outbox is drained.
type MailerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// Mailer queues outbound email durably and drains the outbox on a
// schedule. Delivery failures never propagate to callers.
type Mailer struct {
	store   *outbox.Store
	sender  Sender
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     MailerConfig
}

func NewMailer(
	store *outbox.Store,
	sender Sender,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg MailerConfig,
) *Mailer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Mailer{
		store:   store,
		sender:  sender,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = m.cron.AddFunc(schedule, func() {
		if err := m.Drain(); err != nil {
			m.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return m
}

// Start launches the cron scheduler.
func (m *Mailer) Start() {
	if m == nil || m.cron == nil {
		return
	}
	m.cron.Start()
	m.logger.Info("mailer started")
}

// Stop gracefully stops the scheduler.
func (m *Mailer) Stop(ctx context.Context) {
	if m == nil || m.cron == nil {
		return
	}
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	m.logger.Info("mailer stopped")
}

// Send persists the email to the outbox and attempts immediate delivery.
// It satisfies the notification port used by the usecases.
func (m *Mailer) Send(ctx context.Context, email usecase.Email) error {
	if m == nil || m.store == nil {
		return fmt.Errorf("mailer not configured")
	}

	msg := outbox.Message{
		To:      email.To,
		Subject: email.Subject,
		Body:    email.Body,
	}
	if err := m.store.Enqueue(msg); err != nil {
		return err
	}

	go func() {
		if err := m.Drain(); err != nil {
			m.logger.Warn("eager outbox drain failed", zap.Error(err))
		}
	}()
	return nil
}

var _ usecase.Notifier = (*Mailer)(nil)

// Drain delivers queued messages synchronously.
func (m *Mailer) Drain() error {
	if m == nil || m.store == nil {
		return nil
	}
	if m.monitor != nil && !m.monitor.IsOnline() {
		m.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	messages, err := m.store.GetBatch(m.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := m.sender.Send(msg); err != nil {
			m.logger.Error("failed to deliver email",
				zap.String("message_id", msg.ID),
				zap.String("to", msg.To),
				zap.Error(err))

			if msg.Attempts+1 >= m.cfg.MaxRetries {
				m.logger.Warn("dropping email (max retries reached)", zap.String("message_id", msg.ID))
				_ = m.store.Remove(msg)
				continue
			}
			if err := m.store.Requeue(msg); err != nil {
				m.logger.Error("failed to requeue email", zap.Error(err))
			}
			continue
		}

		if err := m.store.Remove(msg); err != nil {
			m.logger.Warn("failed to purge delivered email", zap.Error(err))
		}
	}

	return m.store.Cleanup(time.Now().Add(-m.cfg.Retention))
}

// Size returns the number of queued messages.
func (m *Mailer) Size() int {
	if m == nil || m.store == nil {
		return 0
	}
	size, err := m.store.Size()
	if err != nil {
		return 0
	}
	return size
}
