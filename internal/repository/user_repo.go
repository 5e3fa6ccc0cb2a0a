package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserLimitExceeded is returned when a company has reached its member
// quota for the current billing window.
var ErrUserLimitExceeded = errors.New("user_limit_exceeded")

const userColumns = `
    id, email, password_hash, first_name, last_name, company_id,
    is_verified, verification_token, verification_expires_at,
    file_ids, created_at, updated_at`

// UserRepository defines persistence for member records.
type UserRepository interface {
	// CreateWithinWindowLimit atomically counts the company's members created
	// inside the billing window and inserts the new member, in one
	// serializable transaction. Returns ErrUserLimitExceeded when maxUsers > 0
	// and the window count has reached it.
	CreateWithinWindowLimit(ctx context.Context, u *model.User, windowStart, windowEnd time.Time, maxUsers int) error

	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.User, error)

	MarkVerified(ctx context.Context, id string) error
	CompleteSignIn(ctx context.Context, id, firstName, lastName, passwordHash string) error

	AddFileID(ctx context.Context, userID, fileID string) error
	RemoveFileID(ctx context.Context, userID, fileID string) (bool, error)

	Delete(ctx context.Context, id string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) CreateWithinWindowLimit(ctx context.Context, u *model.User, windowStart, windowEnd time.Time, maxUsers int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for member quota check: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var count int
	const countQ = `
        SELECT COUNT(*)
        FROM users
        WHERE company_id = $1
          AND created_at >= $2
          AND created_at < $3
    `
	if err := tx.QueryRow(ctx, countQ, u.CompanyID, windowStart, windowEnd).Scan(&count); err != nil {
		return fmt.Errorf("counting members for company %s: %w", u.CompanyID, err)
	}
	if maxUsers > 0 && count >= maxUsers {
		return ErrUserLimitExceeded
	}

	const insertQ = `
        INSERT INTO users (
            id, email, first_name, last_name, company_id,
            is_verified, verification_token, verification_expires_at,
            file_ids, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}', NOW(), NOW())
        RETURNING created_at, updated_at
    `
	if err := tx.QueryRow(ctx, insertQ,
		u.ID, u.Email, u.FirstName, u.LastName, u.CompanyID,
		u.IsVerified, u.VerificationToken, u.VerificationExpiresAt,
	).Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("creating member %s: %w", u.Email, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing member %s: %w", u.Email, err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepo) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
}

func (r *userRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CompanyID,
		&u.IsVerified, &u.VerificationToken, &u.VerificationExpiresAt,
		&u.FileIDs, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) ListByCompany(ctx context.Context, companyID string) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE company_id = $1 ORDER BY created_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing users for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CompanyID,
			&u.IsVerified, &u.VerificationToken, &u.VerificationExpiresAt,
			&u.FileIDs, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

func (r *userRepo) MarkVerified(ctx context.Context, id string) error {
	const q = `
        UPDATE users
        SET is_verified = TRUE, verification_token = NULL, verification_expires_at = NULL, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("marking user %s verified: %w", id, err)
	}
	return nil
}

func (r *userRepo) CompleteSignIn(ctx context.Context, id, firstName, lastName, passwordHash string) error {
	const q = `
        UPDATE users
        SET first_name = $2, last_name = $3, password_hash = $4, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, firstName, lastName, passwordHash); err != nil {
		return fmt.Errorf("completing sign-in for user %s: %w", id, err)
	}
	return nil
}

func (r *userRepo) AddFileID(ctx context.Context, userID, fileID string) error {
	const q = `
        UPDATE users
        SET file_ids = array_append(file_ids, $2), updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(file_ids))
    `
	if _, err := r.pool.Exec(ctx, q, userID, fileID); err != nil {
		return fmt.Errorf("adding file %s to user %s: %w", fileID, userID, err)
	}
	return nil
}

func (r *userRepo) RemoveFileID(ctx context.Context, userID, fileID string) (bool, error) {
	const q = `
        UPDATE users
        SET file_ids = array_remove(file_ids, $2), updated_at = NOW()
        WHERE id = $1 AND $2 = ANY(file_ids)
    `
	tag, err := r.pool.Exec(ctx, q, userID, fileID)
	if err != nil {
		return false, fmt.Errorf("removing file %s from user %s: %w", fileID, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	return nil
}
