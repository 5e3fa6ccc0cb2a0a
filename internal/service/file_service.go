package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/metrics"
	"app/internal/model"
	"app/internal/plan"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// FilePage is one page of a tenant's file listing. Total counts every file
// in the tenant, not just those visible to the caller.
type FilePage struct {
	Items    []model.File
	Page     int
	PageSize int
	Total    int
}

// FileService manages the file registry and the blobs behind it. Quota
// enforcement happens before any write so a rejected upload leaves no
// orphaned object in storage.
type FileService interface {
	Upload(ctx context.Context, p model.Principal, fileName, extension, contentType string, data []byte, grants []model.Grant) (*model.File, error)
	ListPage(ctx context.Context, p model.Principal, page, pageSize int) (*FilePage, error)
	Metadata(ctx context.Context, p model.Principal, fileID string) (*model.File, error)
	Download(ctx context.Context, p model.Principal, fileID string) (*model.File, *storage.Object, error)
	UpdatePermissions(ctx context.Context, p model.Principal, fileID string, grants []model.Grant) (*model.File, error)
	Remove(ctx context.Context, p model.Principal, fileID string) error
}

type fileService struct {
	fileRepo        repository.FileRepository
	companyRepo     repository.CompanyRepository
	userRepo        repository.UserRepository
	subscriptionSvc SubscriptionService
	objectStore     storage.ObjectStore
	logger          zerolog.Logger
	now             func() time.Time
}

// NewFileService creates a new FileService with a scoped logger.
func NewFileService(
	fileRepo repository.FileRepository,
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	subscriptionSvc SubscriptionService,
	objectStore storage.ObjectStore,
	logger zerolog.Logger,
) FileService {
	return &fileService{
		fileRepo:        fileRepo,
		companyRepo:     companyRepo,
		userRepo:        userRepo,
		subscriptionSvc: subscriptionSvc,
		objectStore:     objectStore,
		logger:          logger.With().Str("service", "FileService").Logger(),
		now:             time.Now,
	}
}

func (s *fileService) Upload(ctx context.Context, p model.Principal, fileName, extension, contentType string, data []byte, grants []model.Grant) (*model.File, error) {
	c, err := s.companyRepo.GetByID(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCompanyNotFound
	}

	if err := s.subscriptionSvc.Authorize(ctx, c, 0, 1); err != nil {
		var qe *plan.QuotaError
		if errors.As(err, &qe) {
			metrics.ObserveUpload(string(c.SubscriptionPlan), "rejected")
		}
		return nil, err
	}

	f := &model.File{
		ID:             uuid.NewString(),
		StorageKey:     fmt.Sprintf("files/%s/%s", c.ID, uuid.NewString()),
		FileName:       fileName,
		Extension:      extension,
		ContentType:    contentType,
		OwnerUserID:    p.ID,
		OwnerCompanyID: c.ID,
		Permissions:    grants,
	}

	if err := s.objectStore.Put(ctx, f.StorageKey, data, contentType); err != nil {
		metrics.ObserveUpload(string(c.SubscriptionPlan), "error")
		return nil, fmt.Errorf("storing file object: %w", err)
	}
	if err := s.fileRepo.Create(ctx, f); err != nil {
		// Don't leave the blob behind if the row never landed.
		if delErr := s.objectStore.Delete(ctx, f.StorageKey); delErr != nil {
			s.logger.Error().Err(delErr).Str("storage_key", f.StorageKey).Msg("Failed to remove orphaned blob after registry insert failure")
		}
		metrics.ObserveUpload(string(c.SubscriptionPlan), "error")
		return nil, err
	}

	if err := s.companyRepo.AddFileID(ctx, c.ID, f.ID); err != nil {
		s.logger.Error().Err(err).Str("file_id", f.ID).Str("company_id", c.ID).Msg("Failed to register file on company")
	}
	if !p.IsCompany() {
		if err := s.userRepo.AddFileID(ctx, p.ID, f.ID); err != nil {
			s.logger.Error().Err(err).Str("file_id", f.ID).Str("user_id", p.ID).Msg("Failed to register file on member")
		}
	}

	if err := s.subscriptionSvc.Recheck(ctx, c.ID); err != nil {
		s.logger.Error().Err(err).Str("company_id", c.ID).Msg("Failed to recheck subscription after upload")
	}

	metrics.ObserveUpload(string(c.SubscriptionPlan), "ok")
	return f, nil
}

// ListPage paginates over the tenant's full file set and filters for
// visibility afterwards, so a member's page may come back shorter than the
// requested size.
func (s *fileService) ListPage(ctx context.Context, p model.Principal, page, pageSize int) (*FilePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	files, err := s.fileRepo.ListByCompany(ctx, p.CompanyID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.fileRepo.CountByCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	if !p.IsCompany() {
		visible := files[:0]
		for _, f := range files {
			if f.VisibleTo(p.ID) {
				visible = append(visible, f)
			}
		}
		files = visible
	}

	return &FilePage{Items: files, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *fileService) Metadata(ctx context.Context, p model.Principal, fileID string) (*model.File, error) {
	return s.authorizedFile(ctx, p, fileID)
}

func (s *fileService) Download(ctx context.Context, p model.Principal, fileID string) (*model.File, *storage.Object, error) {
	f, err := s.authorizedFile(ctx, p, fileID)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.objectStore.Get(ctx, f.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error().Str("file_id", f.ID).Str("storage_key", f.StorageKey).Msg("Registry row has no backing object")
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}
	return f, obj, nil
}

// UpdatePermissions replaces the grant list wholesale. Re-granting an
// existing pair or revoking a missing one is not an error.
func (s *fileService) UpdatePermissions(ctx context.Context, p model.Principal, fileID string, grants []model.Grant) (*model.File, error) {
	f, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.OwnerCompanyID != p.CompanyID {
		return nil, ErrFileNotFound
	}
	if !p.IsCompany() && f.OwnerUserID != p.ID {
		return nil, ErrForbidden
	}
	if grants == nil {
		grants = []model.Grant{}
	}
	if err := s.fileRepo.UpdatePermissions(ctx, f.ID, grants); err != nil {
		return nil, err
	}
	f.Permissions = grants
	return f, nil
}

func (s *fileService) Remove(ctx context.Context, p model.Principal, fileID string) error {
	f, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if f == nil || f.OwnerCompanyID != p.CompanyID {
		return ErrFileNotFound
	}
	if !p.IsCompany() && f.OwnerUserID != p.ID {
		return ErrForbidden
	}

	if err := s.fileRepo.Delete(ctx, f.ID); err != nil {
		return err
	}
	if err := s.objectStore.Delete(ctx, f.StorageKey); err != nil {
		s.logger.Error().Err(err).Str("storage_key", f.StorageKey).Msg("Failed to delete blob for removed file")
	}
	if removed, err := s.companyRepo.RemoveFileID(ctx, f.OwnerCompanyID, f.ID); err != nil {
		s.logger.Error().Err(err).Str("file_id", f.ID).Msg("Failed to remove file from company list")
	} else if !removed {
		s.logger.Warn().Str("file_id", f.ID).Str("company_id", f.OwnerCompanyID).Msg("File was absent from company file list")
	}
	if f.OwnerUserID != f.OwnerCompanyID {
		if removed, err := s.userRepo.RemoveFileID(ctx, f.OwnerUserID, f.ID); err != nil {
			s.logger.Error().Err(err).Str("file_id", f.ID).Msg("Failed to remove file from owner list")
		} else if !removed {
			s.logger.Warn().Str("file_id", f.ID).Str("user_id", f.OwnerUserID).Msg("File was absent from owner file list")
		}
	}
	return nil
}

func (s *fileService) authorizedFile(ctx context.Context, p model.Principal, fileID string) (*model.File, error) {
	f, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.OwnerCompanyID != p.CompanyID {
		return nil, ErrFileNotFound
	}
	if !p.IsCompany() && !f.VisibleTo(p.ID) {
		return nil, ErrForbidden
	}
	return f, nil
}
