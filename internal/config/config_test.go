package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppName != "projecthub" {
		t.Errorf("AppName = %q, want projecthub", cfg.AppName)
	}
	if cfg.HTTP.Port != "8080" {
		t.Errorf("HTTP.Port = %q, want 8080", cfg.HTTP.Port)
	}
	if cfg.JWT.Issuer != "projecthub" {
		t.Errorf("JWT.Issuer = %q, want projecthub", cfg.JWT.Issuer)
	}
	if cfg.JWT.AccessTTL != time.Hour {
		t.Errorf("JWT.AccessTTL = %s, want 1h", cfg.JWT.AccessTTL)
	}
	if cfg.Invite.Expiry != 7*24*time.Hour {
		t.Errorf("Invite.Expiry = %s, want 168h", cfg.Invite.Expiry)
	}
	if cfg.Invite.SweepInterval != 10*time.Minute {
		t.Errorf("Invite.SweepInterval = %s, want 10m", cfg.Invite.SweepInterval)
	}
	if cfg.Outbox.MaxRetry != 5 || cfg.Outbox.BatchSize != 50 {
		t.Errorf("Outbox = %+v, want MaxRetry=5 BatchSize=50", cfg.Outbox)
	}
	if cfg.Context.RequestTimeout != 5*time.Second {
		t.Errorf("Context.RequestTimeout = %s, want 5s", cfg.Context.RequestTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INVITE_EXPIRY", "48h")
	t.Setenv("SMTP_HOST", "mail.internal")
	t.Setenv("JWT_ACCESS_TTL", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Invite.Expiry != 48*time.Hour {
		t.Errorf("Invite.Expiry = %s, want 48h", cfg.Invite.Expiry)
	}
	if cfg.Mail.Host != "mail.internal" {
		t.Errorf("Mail.Host = %q, want mail.internal", cfg.Mail.Host)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Errorf("JWT.AccessTTL = %s, want 15m", cfg.JWT.AccessTTL)
	}
}
