package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fileColumns = `
    id, storage_key, file_name, extension, content_type,
    owner_user_id, owner_company_id, permissions, created_at, updated_at`

// FileRepository defines persistence for file metadata. Grants are stored as
// a structured jsonb list, never as stringified JSON.
type FileRepository interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id string) (*model.File, error)

	// ListByCompany returns one page of the company's files ordered by
	// creation time. Visibility filtering happens above this layer.
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]model.File, error)
	ListAllByCompany(ctx context.Context, companyID string) ([]model.File, error)
	ListByOwner(ctx context.Context, companyID, userID string) ([]model.File, error)
	CountByCompany(ctx context.Context, companyID string) (int, error)

	UpdatePermissions(ctx context.Context, fileID string, grants []model.Grant) error

	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, companyID, userID string) (int64, error)
}

type fileRepo struct {
	pool *pgxpool.Pool
}

// NewFileRepo creates a new FileRepository.
func NewFileRepo(pool *pgxpool.Pool) FileRepository {
	return &fileRepo{pool: pool}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	grants, err := marshalGrants(f.Permissions)
	if err != nil {
		return err
	}
	const q = `
        INSERT INTO files (
            id, storage_key, file_name, extension, content_type,
            owner_user_id, owner_company_id, permissions, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	if err := r.pool.QueryRow(ctx, q,
		f.ID, f.StorageKey, f.FileName, f.Extension, f.ContentType,
		f.OwnerUserID, f.OwnerCompanyID, grants,
	).Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
		return fmt.Errorf("creating file %s: %w", f.FileName, err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.File, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching file %s: %w", id, err)
	}
	return f, nil
}

func (r *fileRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]model.File, error) {
	const q = `
        SELECT ` + fileColumns + `
        FROM files
        WHERE owner_company_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	return r.list(ctx, q, companyID, limit, offset)
}

func (r *fileRepo) ListAllByCompany(ctx context.Context, companyID string) ([]model.File, error) {
	const q = `
        SELECT ` + fileColumns + `
        FROM files
        WHERE owner_company_id = $1
        ORDER BY created_at DESC
    `
	return r.list(ctx, q, companyID)
}

func (r *fileRepo) ListByOwner(ctx context.Context, companyID, userID string) ([]model.File, error) {
	const q = `
        SELECT ` + fileColumns + `
        FROM files
        WHERE owner_company_id = $1 AND owner_user_id = $2
        ORDER BY created_at DESC
    `
	return r.list(ctx, q, companyID, userID)
}

func (r *fileRepo) list(ctx context.Context, q string, args ...any) ([]model.File, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file rows: %w", err)
	}
	return files, nil
}

func (r *fileRepo) CountByCompany(ctx context.Context, companyID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM files WHERE owner_company_id = $1`, companyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting files for company %s: %w", companyID, err)
	}
	return count, nil
}

func (r *fileRepo) UpdatePermissions(ctx context.Context, fileID string, grants []model.Grant) error {
	payload, err := marshalGrants(grants)
	if err != nil {
		return err
	}
	const q = `UPDATE files SET permissions = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, fileID, payload); err != nil {
		return fmt.Errorf("updating permissions for file %s: %w", fileID, err)
	}
	return nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting file %s: %w", id, err)
	}
	return nil
}

func (r *fileRepo) DeleteByOwner(ctx context.Context, companyID, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE owner_company_id = $1 AND owner_user_id = $2`, companyID, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting files owned by user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

func marshalGrants(grants []model.Grant) ([]byte, error) {
	if grants == nil {
		grants = []model.Grant{}
	}
	payload, err := json.Marshal(grants)
	if err != nil {
		return nil, fmt.Errorf("marshaling permission grants: %w", err)
	}
	return payload, nil
}

func scanFile(row pgx.Row) (*model.File, error) {
	var f model.File
	var grants []byte
	if err := row.Scan(
		&f.ID, &f.StorageKey, &f.FileName, &f.Extension, &f.ContentType,
		&f.OwnerUserID, &f.OwnerCompanyID, &grants, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(grants) > 0 {
		if err := json.Unmarshal(grants, &f.Permissions); err != nil {
			return nil, fmt.Errorf("unmarshaling permission grants for file %s: %w", f.ID, err)
		}
	}
	return &f, nil
}
