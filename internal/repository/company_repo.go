package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/plan"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const companyColumns = `
    id, name, email, password_hash, country, industry,
    is_verified, verification_token, verification_expires_at,
    link_resend_count, first_resend_at,
    subscription_plan, subscription_update_date,
    premium_charge, extra_user_charge, extra_file_charge,
    user_ids, file_ids, created_at, updated_at`

// CompanyRepository defines persistence for tenant records. The back-reference
// lists (user_ids, file_ids) are mutated with atomic array operations only,
// never read-modify-write.
type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	GetByEmail(ctx context.Context, email string) (*model.Company, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.Company, error)

	UpdateProfile(ctx context.Context, id, name, country, industry string) error
	MarkVerified(ctx context.Context, id string) error
	SetVerification(ctx context.Context, id, token string, expiresAt time.Time, resendCount int, firstResendAt time.Time) error
	SetPasswordHash(ctx context.Context, id, hash string) error

	// SetBilling resets the billing window anchor and writes all three charge
	// fields in one statement.
	SetBilling(ctx context.Context, id string, p plan.Plan, windowStart time.Time, c plan.Charges) error
	// SetCharges rewrites the charge fields without touching the window.
	SetCharges(ctx context.Context, id string, c plan.Charges) error

	AddUserID(ctx context.Context, companyID, userID string) error
	RemoveUserID(ctx context.Context, companyID, userID string) (bool, error)
	AddFileID(ctx context.Context, companyID, fileID string) error
	RemoveFileID(ctx context.Context, companyID, fileID string) (bool, error)
}

type companyRepo struct {
	pool *pgxpool.Pool
}

// NewCompanyRepo creates a new CompanyRepository.
func NewCompanyRepo(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepo{pool: pool}
}

func (r *companyRepo) Create(ctx context.Context, c *model.Company) error {
	const q = `
        INSERT INTO companies (
            id, name, email, password_hash, country, industry,
            is_verified, verification_token, verification_expires_at,
            subscription_plan, subscription_update_date,
            user_ids, file_ids, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '{}', '{}', NOW(), NOW())
        RETURNING created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Country, c.Industry,
		c.IsVerified, c.VerificationToken, c.VerificationExpiresAt,
		string(c.SubscriptionPlan), c.SubscriptionUpdateDate,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating company %s: %w", c.Email, err)
	}
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

func (r *companyRepo) GetByEmail(ctx context.Context, email string) (*model.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE email = $1`, email)
}

func (r *companyRepo) GetByVerificationToken(ctx context.Context, token string) (*model.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE verification_token = $1`, token)
}

func (r *companyRepo) getOne(ctx context.Context, q string, arg any) (*model.Company, error) {
	var c model.Company
	var planStr string
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Country, &c.Industry,
		&c.IsVerified, &c.VerificationToken, &c.VerificationExpiresAt,
		&c.LinkResendCount, &c.FirstResendAt,
		&planStr, &c.SubscriptionUpdateDate,
		&c.PremiumCharge, &c.ExtraUserCharge, &c.ExtraFileCharge,
		&c.UserIDs, &c.FileIDs, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching company: %w", err)
	}
	c.SubscriptionPlan = plan.Plan(planStr)
	return &c, nil
}

func (r *companyRepo) UpdateProfile(ctx context.Context, id, name, country, industry string) error {
	const q = `
        UPDATE companies
        SET name = $2, country = $3, industry = $4, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, name, country, industry); err != nil {
		return fmt.Errorf("updating company %s profile: %w", id, err)
	}
	return nil
}

func (r *companyRepo) MarkVerified(ctx context.Context, id string) error {
	const q = `
        UPDATE companies
        SET is_verified = TRUE, verification_token = NULL, verification_expires_at = NULL, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("marking company %s verified: %w", id, err)
	}
	return nil
}

func (r *companyRepo) SetVerification(ctx context.Context, id, token string, expiresAt time.Time, resendCount int, firstResendAt time.Time) error {
	const q = `
        UPDATE companies
        SET verification_token = $2, verification_expires_at = $3,
            link_resend_count = $4, first_resend_at = $5, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, token, expiresAt, resendCount, firstResendAt); err != nil {
		return fmt.Errorf("setting verification token for company %s: %w", id, err)
	}
	return nil
}

func (r *companyRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	const q = `UPDATE companies SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, hash); err != nil {
		return fmt.Errorf("setting password for company %s: %w", id, err)
	}
	return nil
}

func (r *companyRepo) SetBilling(ctx context.Context, id string, p plan.Plan, windowStart time.Time, c plan.Charges) error {
	const q = `
        UPDATE companies
        SET subscription_plan = $2, subscription_update_date = $3,
            premium_charge = $4, extra_user_charge = $5, extra_file_charge = $6,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, string(p), windowStart, c.Premium, c.ExtraUser, c.ExtraFile); err != nil {
		return fmt.Errorf("setting billing for company %s: %w", id, err)
	}
	return nil
}

func (r *companyRepo) SetCharges(ctx context.Context, id string, c plan.Charges) error {
	const q = `
        UPDATE companies
        SET premium_charge = $2, extra_user_charge = $3, extra_file_charge = $4, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, c.Premium, c.ExtraUser, c.ExtraFile); err != nil {
		return fmt.Errorf("setting charges for company %s: %w", id, err)
	}
	return nil
}

func (r *companyRepo) AddUserID(ctx context.Context, companyID, userID string) error {
	const q = `
        UPDATE companies
        SET user_ids = array_append(user_ids, $2), updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(user_ids))
    `
	if _, err := r.pool.Exec(ctx, q, companyID, userID); err != nil {
		return fmt.Errorf("adding user %s to company %s: %w", userID, companyID, err)
	}
	return nil
}

// RemoveUserID removes userID from the member list and reports whether it was
// present. Absence is the caller's inconsistency to log, not an error here.
func (r *companyRepo) RemoveUserID(ctx context.Context, companyID, userID string) (bool, error) {
	const q = `
        UPDATE companies
        SET user_ids = array_remove(user_ids, $2), updated_at = NOW()
        WHERE id = $1 AND $2 = ANY(user_ids)
    `
	tag, err := r.pool.Exec(ctx, q, companyID, userID)
	if err != nil {
		return false, fmt.Errorf("removing user %s from company %s: %w", userID, companyID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *companyRepo) AddFileID(ctx context.Context, companyID, fileID string) error {
	const q = `
        UPDATE companies
        SET file_ids = array_append(file_ids, $2), updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(file_ids))
    `
	if _, err := r.pool.Exec(ctx, q, companyID, fileID); err != nil {
		return fmt.Errorf("adding file %s to company %s: %w", fileID, companyID, err)
	}
	return nil
}

func (r *companyRepo) RemoveFileID(ctx context.Context, companyID, fileID string) (bool, error) {
	const q = `
        UPDATE companies
        SET file_ids = array_remove(file_ids, $2), updated_at = NOW()
        WHERE id = $1 AND $2 = ANY(file_ids)
    `
	tag, err := r.pool.Exec(ctx, q, companyID, fileID)
	if err != nil {
		return false, fmt.Errorf("removing file %s from company %s: %w", fileID, companyID, err)
	}
	return tag.RowsAffected() > 0, nil
}
