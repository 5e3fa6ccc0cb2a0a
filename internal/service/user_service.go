package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/mail"
	"app/internal/metrics"
	"app/internal/model"
	"app/internal/plan"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages members: creation under the tenant's quota, email
// verification, sign-in completion and the deletion cascade that keeps the
// file registry and permission grants consistent.
type UserService interface {
	Create(ctx context.Context, p model.Principal, email string) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	CompleteSignIn(ctx context.Context, email, firstName, lastName, password string) (*model.User, error)
	Get(ctx context.Context, p model.Principal, id string) (*model.User, error)
	List(ctx context.Context, p model.Principal) ([]model.User, error)
	// Delete removes a member and cascades: permission grants naming the
	// member are stripped from every file in the tenant, the member's own
	// files are removed from storage and registry, and the tenant's
	// back-reference lists are updated. Returns the deleted member snapshot.
	Delete(ctx context.Context, p model.Principal, userID string) (*model.User, error)
}

type userService struct {
	userRepo        repository.UserRepository
	companyRepo     repository.CompanyRepository
	fileRepo        repository.FileRepository
	subscriptionSvc SubscriptionService
	objectStore     storage.ObjectStore
	notifier        mail.Notifier
	verificationTTL time.Duration
	frontendURL     string
	logger          zerolog.Logger
	now             func() time.Time
}

// NewUserService creates a new UserService with a scoped logger.
func NewUserService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	fileRepo repository.FileRepository,
	subscriptionSvc SubscriptionService,
	objectStore storage.ObjectStore,
	notifier mail.Notifier,
	verificationTTL time.Duration,
	frontendURL string,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:        userRepo,
		companyRepo:     companyRepo,
		fileRepo:        fileRepo,
		subscriptionSvc: subscriptionSvc,
		objectStore:     objectStore,
		notifier:        notifier,
		verificationTTL: verificationTTL,
		frontendURL:     frontendURL,
		logger:          logger.With().Str("service", "UserService").Logger(),
		now:             time.Now,
	}
}

func (s *userService) Create(ctx context.Context, p model.Principal, email string) (*model.User, error) {
	if !p.IsCompany() {
		return nil, ErrForbidden
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	c, err := s.companyRepo.GetByID(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCompanyNotFound
	}

	now := s.now()
	token := uuid.NewString()
	expiresAt := now.Add(s.verificationTTL)
	u := &model.User{
		ID:                    uuid.NewString(),
		Email:                 email,
		CompanyID:             c.ID,
		IsVerified:            false,
		VerificationToken:     &token,
		VerificationExpiresAt: &expiresAt,
	}

	// The quota check and the insert run in one serializable transaction so
	// two concurrent invitations cannot both squeeze under a hard cap.
	maxUsers := plan.HardUserLimit(c.SubscriptionPlan)
	if err := s.userRepo.CreateWithinWindowLimit(ctx, u, c.WindowStart(), now, maxUsers); err != nil {
		if errors.Is(err, repository.ErrUserLimitExceeded) {
			metrics.ObserveQuotaRejection(string(c.SubscriptionPlan), string(plan.ResourceUsers))
			return nil, &plan.QuotaError{Plan: c.SubscriptionPlan, Resource: plan.ResourceUsers}
		}
		return nil, err
	}

	link := fmt.Sprintf("%s/user-sign-in?token=%s", s.frontendURL, token)
	if err := s.notifier.SendVerificationLink(ctx, email, "Dear Colleague", link); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to send member verification email")
	}

	// Refresh the overage charges for soft-capped tiers.
	if err := s.subscriptionSvc.Recheck(ctx, c.ID); err != nil {
		s.logger.Error().Err(err).Str("company_id", c.ID).Msg("Failed to recheck subscription after member creation")
	}

	return u, nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	u, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if u == nil || u.IsVerified {
		return nil, ErrTokenInvalid
	}
	if u.VerificationExpiresAt == nil || s.now().After(*u.VerificationExpiresAt) {
		return nil, ErrTokenExpired
	}
	if err := s.userRepo.MarkVerified(ctx, u.ID); err != nil {
		return nil, err
	}
	u.IsVerified = true
	u.VerificationToken = nil
	u.VerificationExpiresAt = nil
	return u, nil
}

func (s *userService) CompleteSignIn(ctx context.Context, email, firstName, lastName, password string) (*model.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.IsVerified {
		return nil, ErrNotVerified
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing member password: %w", err)
	}
	hash := string(hashed)
	if err := s.userRepo.CompleteSignIn(ctx, u.ID, firstName, lastName, hash); err != nil {
		return nil, err
	}

	// The member only joins the tenant's member list once registration is
	// complete.
	if err := s.companyRepo.AddUserID(ctx, u.CompanyID, u.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID).Str("company_id", u.CompanyID).Msg("Failed to register member on company")
		return nil, err
	}

	u.FirstName = firstName
	u.LastName = lastName
	u.PasswordHash = &hash
	return u, nil
}

func (s *userService) Get(ctx context.Context, p model.Principal, id string) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.CompanyID != p.CompanyID {
		return nil, ErrForbidden
	}
	if !p.IsCompany() && p.ID != u.ID {
		return nil, ErrForbidden
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, p model.Principal) ([]model.User, error) {
	if !p.IsCompany() {
		return nil, ErrForbidden
	}
	return s.userRepo.ListByCompany(ctx, p.CompanyID)
}

// Delete runs the removal cascade. The sequence is deliberately best-effort:
// a failing sub-step is logged and skipped so a half-broken tenant can still
// shed the member, and each step is counted so drift stays observable.
func (s *userService) Delete(ctx context.Context, p model.Principal, userID string) (*model.User, error) {
	if !p.IsCompany() {
		return nil, ErrForbidden
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.CompanyID != p.CompanyID {
		return nil, ErrForbidden
	}

	// Snapshot the owned files before anything is deleted; later steps
	// depend on this read.
	owned, err := s.fileRepo.ListByOwner(ctx, u.CompanyID, u.ID)
	if err != nil {
		return nil, err
	}

	// Strip grants naming the member from every file in the tenant, not
	// just the member's own.
	all, err := s.fileRepo.ListAllByCompany(ctx, u.CompanyID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		f := &all[i]
		kept := f.Permissions[:0]
		for _, g := range f.Permissions {
			if g.GranteeUserID != u.ID {
				kept = append(kept, g)
			}
		}
		if len(kept) == len(f.Permissions) {
			continue
		}
		if err := s.fileRepo.UpdatePermissions(ctx, f.ID, kept); err != nil {
			s.logger.Error().Err(err).Str("file_id", f.ID).Str("user_id", u.ID).Msg("Failed to strip permission grant during cascade")
			metrics.ObserveCascadeStep("strip_grants", "error")
			continue
		}
		metrics.ObserveCascadeStep("strip_grants", "ok")
	}

	removed, err := s.companyRepo.RemoveUserID(ctx, u.CompanyID, u.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID).Msg("Failed to remove member from company list")
		metrics.ObserveCascadeStep("member_list", "error")
	} else if !removed {
		// The back-reference lists can drift; log the inconsistency and
		// carry on.
		s.logger.Warn().Str("user_id", u.ID).Str("company_id", u.CompanyID).Msg("Member was absent from company member list")
		metrics.ObserveCascadeStep("member_list", "absent")
	} else {
		metrics.ObserveCascadeStep("member_list", "ok")
	}

	for _, f := range owned {
		if removed, err := s.companyRepo.RemoveFileID(ctx, u.CompanyID, f.ID); err != nil {
			s.logger.Error().Err(err).Str("file_id", f.ID).Msg("Failed to remove file from company list")
			metrics.ObserveCascadeStep("file_list", "error")
		} else if !removed {
			s.logger.Warn().Str("file_id", f.ID).Str("company_id", u.CompanyID).Msg("File was absent from company file list")
			metrics.ObserveCascadeStep("file_list", "absent")
		}
		if err := s.objectStore.Delete(ctx, f.StorageKey); err != nil {
			s.logger.Error().Err(err).Str("storage_key", f.StorageKey).Msg("Failed to delete blob during cascade")
			metrics.ObserveCascadeStep("blob_delete", "error")
		}
	}

	if _, err := s.fileRepo.DeleteByOwner(ctx, u.CompanyID, u.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID).Msg("Failed to bulk-delete member files during cascade")
		metrics.ObserveCascadeStep("file_rows", "error")
	}

	if err := s.userRepo.Delete(ctx, u.ID); err != nil {
		metrics.ObserveCascadeStep("user_row", "error")
		return nil, err
	}
	metrics.ObserveCascadeStep("user_row", "ok")
	return u, nil
}
