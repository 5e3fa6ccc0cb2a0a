package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/mail"
	"app/internal/model"
	"app/internal/plan"
	"app/internal/repository"
	"app/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles tenant registration, email verification and sign-in
// for both companies and members.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password, country, industry string) (*model.Company, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	// SignIn authenticates a company or a member by email and returns a
	// signed access token.
	SignIn(ctx context.Context, email, password string) (string, error)
	ChangePassword(ctx context.Context, p model.Principal, currentPassword, newPassword string) error
	// UpdateCompany updates the tenant profile; a plan change routes through
	// the subscription service.
	UpdateCompany(ctx context.Context, p model.Principal, name, country, industry string, newPlan *plan.Plan) error
	// CurrentUser returns the tenant record and, for member principals, the
	// member record.
	CurrentUser(ctx context.Context, p model.Principal) (*model.Company, *model.User, error)
}

// AuthConfig carries the knobs the auth flows need.
type AuthConfig struct {
	JWTSecret       string
	JWTTTL          time.Duration
	VerificationTTL time.Duration
	ResendLimit     int
	ResendWindow    time.Duration
	FrontendURL     string
}

type authService struct {
	companyRepo     repository.CompanyRepository
	userRepo        repository.UserRepository
	subscriptionSvc SubscriptionService
	notifier        mail.Notifier
	cfg             AuthConfig
	logger          zerolog.Logger
	now             func() time.Time
}

// NewAuthService creates a new AuthService with a scoped logger.
func NewAuthService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	subscriptionSvc SubscriptionService,
	notifier mail.Notifier,
	cfg AuthConfig,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		companyRepo:     companyRepo,
		userRepo:        userRepo,
		subscriptionSvc: subscriptionSvc,
		notifier:        notifier,
		cfg:             cfg,
		logger:          logger.With().Str("service", "AuthService").Logger(),
		now:             time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, name, email, password, country, industry string) (*model.Company, error) {
	existing, err := s.companyRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	token := uuid.NewString()
	expiresAt := now.Add(s.cfg.VerificationTTL)
	c := &model.Company{
		ID:                     uuid.NewString(),
		Name:                   name,
		Email:                  email,
		PasswordHash:           string(hash),
		Country:                country,
		Industry:               industry,
		IsVerified:             false,
		VerificationToken:      &token,
		VerificationExpiresAt:  &expiresAt,
		SubscriptionPlan:       plan.Free,
		SubscriptionUpdateDate: now,
	}
	if err := s.companyRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	// Delivery failures do not roll back the registration; the company can
	// request a new link.
	link := fmt.Sprintf("%s/sign-in?token=%s", s.cfg.FrontendURL, token)
	if err := s.notifier.SendVerificationLink(ctx, email, name, link); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to send verification email")
	}

	return c, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	c, err := s.companyRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrTokenInvalid
	}
	if c.VerificationExpiresAt == nil || s.now().After(*c.VerificationExpiresAt) {
		return ErrTokenExpired
	}
	return s.companyRepo.MarkVerified(ctx, c.ID)
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	c, err := s.companyRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCompanyNotFound
	}
	if c.IsVerified {
		return ErrAlreadyVerified
	}

	now := s.now()
	resendCount := c.LinkResendCount
	firstResendAt := c.FirstResendAt
	if firstResendAt == nil || now.Sub(*firstResendAt) > s.cfg.ResendWindow {
		resendCount = 0
		firstResendAt = &now
	}
	if resendCount >= s.cfg.ResendLimit {
		return ErrResendLimit
	}

	token := uuid.NewString()
	expiresAt := now.Add(s.cfg.VerificationTTL)
	if err := s.companyRepo.SetVerification(ctx, c.ID, token, expiresAt, resendCount+1, *firstResendAt); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/sign-in?token=%s", s.cfg.FrontendURL, token)
	if err := s.notifier.SendVerificationLink(ctx, email, c.Name, link); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to resend verification email")
	}
	return nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (string, error) {
	c, err := s.companyRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if c != nil {
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
		p := model.Principal{Kind: model.PrincipalCompany, ID: c.ID, CompanyID: c.ID, Plan: c.SubscriptionPlan}
		return util.SignToken(p, s.cfg.JWTSecret, s.cfg.JWTTTL)
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}
	// Members cannot authenticate until verified; the credential is only set
	// at sign-in completion, after verification.
	if !u.IsVerified || u.PasswordHash == nil {
		return "", ErrNotVerified
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	p := model.Principal{Kind: model.PrincipalMember, ID: u.ID, CompanyID: u.CompanyID}
	return util.SignToken(p, s.cfg.JWTSecret, s.cfg.JWTTTL)
}

func (s *authService) ChangePassword(ctx context.Context, p model.Principal, currentPassword, newPassword string) error {
	if !p.IsCompany() {
		return ErrForbidden
	}
	c, err := s.companyRepo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCompanyNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.companyRepo.SetPasswordHash(ctx, c.ID, string(hash))
}

func (s *authService) UpdateCompany(ctx context.Context, p model.Principal, name, country, industry string, newPlan *plan.Plan) error {
	if !p.IsCompany() {
		return ErrForbidden
	}
	c, err := s.companyRepo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCompanyNotFound
	}

	if name == "" {
		name = c.Name
	}
	if country == "" {
		country = c.Country
	}
	if industry == "" {
		industry = c.Industry
	}
	// The plan change can be rejected, so it runs before the profile write:
	// a refused change must not leave a half-applied update behind.
	if newPlan != nil && *newPlan != c.SubscriptionPlan {
		if err := s.subscriptionSvc.ChangePlan(ctx, c.ID, *newPlan); err != nil {
			return err
		}
	}
	return s.companyRepo.UpdateProfile(ctx, c.ID, name, country, industry)
}

func (s *authService) CurrentUser(ctx context.Context, p model.Principal) (*model.Company, *model.User, error) {
	c, err := s.companyRepo.GetByID(ctx, p.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, ErrCompanyNotFound
	}
	if p.IsCompany() {
		return c, nil, nil
	}
	u, err := s.userRepo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, ErrUserNotFound
	}
	return c, u, nil
}
