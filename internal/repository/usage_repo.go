package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository counts resource usage inside a tenant's billing window.
// Counts are range-filtered over creation timestamps, never cumulative, and
// must be taken fresh before every quota decision.
type UsageRepository interface {
	CountUsersInWindow(ctx context.Context, companyID string, start, end time.Time) (int, error)
	CountFilesInWindow(ctx context.Context, companyID string, start, end time.Time) (int, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) CountUsersInWindow(ctx context.Context, companyID string, start, end time.Time) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM users
        WHERE company_id = $1
          AND created_at >= $2
          AND created_at < $3
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, companyID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting members in window for company %s: %w", companyID, err)
	}
	return count, nil
}

func (r *usageRepo) CountFilesInWindow(ctx context.Context, companyID string, start, end time.Time) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM files
        WHERE owner_company_id = $1
          AND created_at >= $2
          AND created_at < $3
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, companyID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting files in window for company %s: %w", companyID, err)
	}
	return count, nil
}
