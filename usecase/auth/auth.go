package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
	"github.com/projecthub/backend/usecase"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

// Tokens is the pair handed out on login/refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

// UseCase implements the identity service: registration, verification,
// login with JWT access tokens and Redis-backed refresh sessions,
// password reset and admin moderation.
type UseCase struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	notifier  usecase.Notifier
	jwtSecret string
	jwtIssuer string
	accessTTL time.Duration
	logger    *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	notifier usecase.Notifier,
	jwtSecret, jwtIssuer string,
	accessTTL time.Duration,
	logger *zap.Logger,
) *UseCase {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:     users,
		sessions:  sessions,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		jwtIssuer: jwtIssuer,
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// Register creates an unverified account and queues the verification
// email.
func (uc *UseCase) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "" || email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "username and email are required")
	}
	if len(password) < 8 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:                username,
		Email:                   email,
		PasswordHash:            string(hash),
		Role:                    domain.UserRoleUser,
		VerificationToken:       uuid.NewString(),
		VerificationTokenExpiry: time.Now().Add(verificationTokenTTL),
	}

	created, err := uc.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, usecase.Email{
		To:      created.Email,
		Subject: "Verify your email address",
		Body:    fmt.Sprintf("Welcome %s! Use the token %s to verify your account.", created.Username, created.VerificationToken),
	})
	return created, nil
}

// VerifyEmail consumes a verification token.
func (uc *UseCase) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.NewError(domain.ErrCodeInvalid, "verification token is required")
	}

	user, err := uc.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if user.VerificationTokenExpiry.Before(time.Now()) {
		return domain.NewError(domain.ErrCodeGone, "verification token has expired")
	}

	user.IsEmailVerified = true
	user.VerificationToken = ""
	user.VerificationTokenExpiry = time.Time{}
	return uc.users.Update(ctx, user)
}

// Login validates credentials and opens a refresh session.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Tokens, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid credentials")
	}
	if !user.CanLogin() {
		return nil, domain.NewError(domain.ErrCodeForbidden, "account is blocked")
	}
	if !user.IsEmailVerified {
		return nil, domain.NewError(domain.ErrCodeForbidden, "email address is not verified")
	}

	return uc.openSession(ctx, user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (uc *UseCase) Refresh(ctx context.Context, sessionID, refreshToken string) (*Tokens, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) || session.RefreshToken != refreshToken {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrUnauthorized
	}

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanLogin() {
		return nil, domain.NewError(domain.ErrCodeForbidden, "account is blocked")
	}

	_ = uc.sessions.Delete(ctx, sessionID)
	return uc.openSession(ctx, user)
}

// Logout revokes the refresh session.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// RequestPasswordReset issues a reset token. It reports success even for
// unknown emails so the endpoint cannot be used to probe accounts.
func (uc *UseCase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	user.ResetToken = uuid.NewString()
	user.ResetTokenExpiry = time.Now().Add(resetTokenTTL)
	if err := uc.users.Update(ctx, user); err != nil {
		return err
	}

	uc.notify(ctx, usecase.Email{
		To:      user.Email,
		Subject: "Password reset requested",
		Body:    fmt.Sprintf("Use the token %s to reset your password. It expires in one hour.", user.ResetToken),
	})
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash.
func (uc *UseCase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}

	user, err := uc.users.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user.ResetTokenExpiry.Before(time.Now()) {
		return domain.NewError(domain.ErrCodeGone, "reset token has expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	user.ResetToken = ""
	user.ResetTokenExpiry = time.Time{}
	user.RefreshToken = ""
	return uc.users.Update(ctx, user)
}

// SetBlocked blocks or unblocks an account. Admin only.
func (uc *UseCase) SetBlocked(ctx context.Context, adminID, targetID string, blocked bool) error {
	admin, err := uc.users.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin() {
		return domain.NewError(domain.ErrCodeForbidden, "only administrators can block accounts")
	}

	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	target.IsBlocked = blocked
	if blocked {
		target.RefreshToken = ""
	}
	return uc.users.Update(ctx, target)
}

// ListUsers pages through all accounts. Admin only.
func (uc *UseCase) ListUsers(ctx context.Context, adminID string, page, limit int) ([]domain.User, int, error) {
	admin, err := uc.users.GetByID(ctx, adminID)
	if err != nil {
		return nil, 0, err
	}
	if !admin.IsAdmin() {
		return nil, 0, domain.NewError(domain.ErrCodeForbidden, "only administrators can list accounts")
	}
	return uc.users.List(ctx, repository.UserFilter{Page: page, Limit: limit})
}

func (uc *UseCase) openSession(ctx context.Context, user *domain.User) (*Tokens, error) {
	access, err := uc.signAccessToken(user)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		RefreshToken: uuid.NewString(),
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(30 * 24 * time.Hour),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	user.RefreshToken = session.RefreshToken
	if err := uc.users.Update(ctx, user); err != nil {
		uc.logger.Warn("failed to persist refresh token", zap.String("user_id", user.ID), zap.Error(err))
	}

	return &Tokens{
		AccessToken:  access,
		RefreshToken: session.RefreshToken,
		SessionID:    session.ID,
	}, nil
}

func (uc *UseCase) signAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"iss":     uc.jwtIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(uc.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(uc.jwtSecret))
}

func (uc *UseCase) notify(ctx context.Context, email usecase.Email) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Send(ctx, email); err != nil {
		uc.logger.Warn("failed to queue email", zap.String("to", email.To), zap.Error(err))
	}
}
