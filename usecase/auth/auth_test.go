package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
	"github.com/projecthub/backend/usecase"
)

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
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

func (f *fakeUserRepo) GetByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range f.users {
		if u.VerificationToken != "" && u.VerificationToken == token {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ResetToken != "" && u.ResetToken == token {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return nil, domain.NewError(domain.ErrCodeConflict, "username or email already taken")
		}
	}
	f.seq++
	u.ID = "u-1"
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, int, error) {
	var out []domain.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessionRepo) Save(_ context.Context, s *domain.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type captureNotifier struct {
	sent []usecase.Email
}

func (c *captureNotifier) Send(_ context.Context, e usecase.Email) error {
	c.sent = append(c.sent, e)
	return nil
}

const testSecret = "test-secret"

func newFixture() (*UseCase, *fakeUserRepo, *fakeSessionRepo, *captureNotifier) {
	users := &fakeUserRepo{users: map[string]*domain.User{}}
	sessions := &fakeSessionRepo{sessions: map[string]*domain.Session{}}
	notifier := &captureNotifier{}
	uc := New(users, sessions, notifier, testSecret, "test-issuer", time.Hour, nil)
	return uc, users, sessions, notifier
}

func seedVerifiedUser(t *testing.T, users *fakeUserRepo, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u := &domain.User{
		ID:              "u-dana",
		Username:        "dana",
		Email:           "dana@example.com",
		PasswordHash:    string(hash),
		Role:            domain.UserRoleUser,
		IsEmailVerified: true,
	}
	users.users[u.ID] = u
	return u
}

func TestRegister(t *testing.T) {
	uc, _, _, notifier := newFixture()

	created, err := uc.Register(context.Background(), "dana", "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.IsEmailVerified {
		t.Error("new account should start unverified")
	}
	if created.VerificationToken == "" {
		t.Error("verification token missing")
	}
	if created.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in clear")
	}

	if len(notifier.sent) != 1 || notifier.sent[0].To != "dana@example.com" {
		t.Errorf("sent = %+v, want one verification mail to dana", notifier.sent)
	}

	if _, err := uc.Register(context.Background(), "dana", "dana@example.com", "hunter2hunter2"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Errorf("duplicate register: err = %v, want CONFLICT", err)
	}
	if _, err := uc.Register(context.Background(), "eve", "eve@example.com", "short"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("short password: err = %v, want INVALID", err)
	}
	if _, err := uc.Register(context.Background(), "", "x@example.com", "hunter2hunter2"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("missing username: err = %v, want INVALID", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	uc, users, _, _ := newFixture()

	created, err := uc.Register(context.Background(), "dana", "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := uc.VerifyEmail(context.Background(), "no-such-token"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("bogus token: err = %v, want NOT_FOUND", err)
	}

	if err := uc.VerifyEmail(context.Background(), created.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	stored := users.users[created.ID]
	if !stored.IsEmailVerified || stored.VerificationToken != "" {
		t.Errorf("user = %+v, want verified with cleared token", stored)
	}

	// expired token
	other, err := uc.Register(context.Background(), "eve", "eve@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	other.VerificationTokenExpiry = time.Now().Add(-time.Minute)
	if err := uc.VerifyEmail(context.Background(), other.VerificationToken); !domain.IsDomainError(err, domain.ErrCodeGone) {
		t.Errorf("expired token: err = %v, want GONE", err)
	}
}

func TestLogin(t *testing.T) {
	uc, users, sessions, _ := newFixture()
	user := seedVerifiedUser(t, users, "hunter2hunter2")

	tokens, err := uc.Login(context.Background(), "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.SessionID == "" {
		t.Fatalf("tokens = %+v, want all three set", tokens)
	}
	if _, ok := sessions.sessions[tokens.SessionID]; !ok {
		t.Error("session not stored")
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokens.AccessToken, claims, func(tok *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims["user_id"] != user.ID || claims["iss"] != "test-issuer" {
		t.Errorf("claims = %v, want user_id=%s iss=test-issuer", claims, user.ID)
	}

	tests := []struct {
		name     string
		prepare  func()
		email    string
		password string
		wantCode domain.ErrorCode
	}{
		{"unknown email maps to unauthorized", nil, "nobody@example.com", "hunter2hunter2", domain.ErrCodeUnauthorized},
		{"wrong password", nil, "dana@example.com", "wrong-password", domain.ErrCodeUnauthorized},
		{"blocked account", func() { user.IsBlocked = true }, "dana@example.com", "hunter2hunter2", domain.ErrCodeForbidden},
		{"unverified email", func() { user.IsBlocked = false; user.IsEmailVerified = false }, "dana@example.com", "hunter2hunter2", domain.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			if _, err := uc.Login(context.Background(), tt.email, tt.password); !domain.IsDomainError(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	uc, users, sessions, _ := newFixture()
	seedVerifiedUser(t, users, "hunter2hunter2")

	tokens, err := uc.Login(context.Background(), "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := uc.Refresh(context.Background(), tokens.SessionID, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.SessionID == tokens.SessionID {
		t.Error("session id should rotate on refresh")
	}
	if _, ok := sessions.sessions[tokens.SessionID]; ok {
		t.Error("old session should be revoked")
	}

	// the old pair is dead; replaying it kills nothing but fails
	if _, err := uc.Refresh(context.Background(), tokens.SessionID, tokens.RefreshToken); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("replayed session: err = %v, want NOT_FOUND", err)
	}

	// wrong token on a live session revokes it
	if _, err := uc.Refresh(context.Background(), rotated.SessionID, "stolen-token"); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("wrong token: err = %v, want UNAUTHORIZED", err)
	}
	if _, ok := sessions.sessions[rotated.SessionID]; ok {
		t.Error("session with mismatched token should be deleted")
	}
}

func TestRefreshExpiredSession(t *testing.T) {
	uc, users, sessions, _ := newFixture()
	seedVerifiedUser(t, users, "hunter2hunter2")

	tokens, err := uc.Login(context.Background(), "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	sessions.sessions[tokens.SessionID].ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := uc.Refresh(context.Background(), tokens.SessionID, tokens.RefreshToken); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("expired session: err = %v, want UNAUTHORIZED", err)
	}
	if _, ok := sessions.sessions[tokens.SessionID]; ok {
		t.Error("expired session should be deleted")
	}
}

func TestLogout(t *testing.T) {
	uc, users, sessions, _ := newFixture()
	seedVerifiedUser(t, users, "hunter2hunter2")

	tokens, err := uc.Login(context.Background(), "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := uc.Logout(context.Background(), tokens.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := sessions.sessions[tokens.SessionID]; ok {
		t.Error("session should be gone")
	}
}

func TestPasswordReset(t *testing.T) {
	uc, users, _, notifier := newFixture()
	user := seedVerifiedUser(t, users, "hunter2hunter2")

	// unknown emails succeed silently, and no mail goes out
	if err := uc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset unknown: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("sent = %+v, want nothing for unknown email", notifier.sent)
	}

	if err := uc.RequestPasswordReset(context.Background(), "dana@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if user.ResetToken == "" {
		t.Fatal("reset token missing")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].To != "dana@example.com" {
		t.Errorf("sent = %+v, want one reset mail to dana", notifier.sent)
	}

	if err := uc.ResetPassword(context.Background(), user.ResetToken, "short"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("short password: err = %v, want INVALID", err)
	}

	token := user.ResetToken
	if err := uc.ResetPassword(context.Background(), token, "correct-horse-battery"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if user.ResetToken != "" {
		t.Error("reset token should be cleared")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse-battery")) != nil {
		t.Error("new password does not verify")
	}

	// the consumed token no longer resolves
	if err := uc.ResetPassword(context.Background(), token, "correct-horse-battery"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("reused token: err = %v, want NOT_FOUND", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	uc, users, _, _ := newFixture()
	user := seedVerifiedUser(t, users, "hunter2hunter2")

	if err := uc.RequestPasswordReset(context.Background(), "dana@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	user.ResetTokenExpiry = time.Now().Add(-time.Minute)

	if err := uc.ResetPassword(context.Background(), user.ResetToken, "correct-horse-battery"); !domain.IsDomainError(err, domain.ErrCodeGone) {
		t.Errorf("expired token: err = %v, want GONE", err)
	}
}

func TestSetBlocked(t *testing.T) {
	uc, users, _, _ := newFixture()
	user := seedVerifiedUser(t, users, "hunter2hunter2")
	users.users["u-admin"] = &domain.User{ID: "u-admin", Username: "root", Email: "root@example.com", Role: domain.UserRoleAdmin}

	if err := uc.SetBlocked(context.Background(), user.ID, "u-admin", true); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Errorf("non-admin block: err = %v, want FORBIDDEN", err)
	}

	user.RefreshToken = "live-token"
	if err := uc.SetBlocked(context.Background(), "u-admin", user.ID, true); err != nil {
		t.Fatalf("SetBlocked: %v", err)
	}
	if !user.IsBlocked || user.RefreshToken != "" {
		t.Errorf("user = %+v, want blocked with revoked refresh token", user)
	}
	if user.CanLogin() {
		t.Error("blocked account must not log in")
	}

	if err := uc.SetBlocked(context.Background(), "u-admin", user.ID, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if user.IsBlocked {
		t.Error("account should be unblocked")
	}
}

func TestListUsers(t *testing.T) {
	uc, users, _, _ := newFixture()
	seedVerifiedUser(t, users, "hunter2hunter2")
	users.users["u-admin"] = &domain.User{ID: "u-admin", Username: "root", Email: "root@example.com", Role: domain.UserRoleAdmin}

	if _, _, err := uc.ListUsers(context.Background(), "u-dana", 1, 10); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Errorf("non-admin list: err = %v, want FORBIDDEN", err)
	}

	list, total, err := uc.ListUsers(context.Background(), "u-admin", 1, 10)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("got %d/%d users, want 2", len(list), total)
	}
}
