package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
	id, username, email, password_hash, role, is_blocked, is_email_verified,
	COALESCE(verification_token, ''), COALESCE(verification_token_expiry, 'epoch'::timestamptz),
	COALESCE(reset_token, ''), COALESCE(reset_token_expiry, 'epoch'::timestamptz),
	COALESCE(refresh_token, ''), created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, "verification_token = $1", token)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, "reset_token = $1", token)
}

func (r *userRepository) getBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	row := r.pool.QueryRow(ctx, query, arg)
	return scanUser(row)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO users (id, username, email, password_hash, role, is_blocked, is_email_verified, verification_token, verification_token_expiry)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.IsBlocked,
		user.IsEmailVerified,
		user.VerificationToken,
		nullTime(user.VerificationTokenExpiry),
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.NewError(domain.ErrCodeConflict, "username or email is already registered")
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE users
	SET username = $2,
		email = $3,
		password_hash = $4,
		role = $5,
		is_blocked = $6,
		is_email_verified = $7,
		verification_token = NULLIF($8, ''),
		verification_token_expiry = $9,
		reset_token = NULLIF($10, ''),
		reset_token_expiry = $11,
		refresh_token = NULLIF($12, ''),
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.IsBlocked,
		user.IsEmailVerified,
		user.VerificationToken,
		nullTime(user.VerificationTokenExpiry),
		user.ResetToken,
		nullTime(user.ResetTokenExpiry),
		user.RefreshToken,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	const countQuery = `SELECT COUNT(*) FROM users`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, clampLimit(filter.Limit), pageOffset(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*domain.User, error) {
	var user domain.User
	var role string

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.IsBlocked,
		&user.IsEmailVerified,
		&user.VerificationToken,
		&user.VerificationTokenExpiry,
		&user.ResetToken,
		&user.ResetTokenExpiry,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user.Role = domain.UserRole(role)
	return &user, nil
}
