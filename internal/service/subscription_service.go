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

	"github.com/rs/zerolog"
)

// SubscriptionService owns the usage-metering and plan-enforcement core:
// it computes resource counts inside a tenant's current billing window,
// enforces tier quotas and keeps the charge fields on the tenant record
// up to date.
type SubscriptionService interface {
	// Authorize decides whether an operation adding addUsers members and
	// addFiles files may proceed under the company's plan. Counts are taken
	// fresh from the current billing window; hard-capped plans return a
	// *plan.QuotaError naming the exhausted resource.
	Authorize(ctx context.Context, c *model.Company, addUsers, addFiles int) error

	// Recheck recomputes usage for the company's existing window and persists
	// the recomputed charge fields. FREE hard caps are enforced retroactively:
	// a violation fails the enclosing operation.
	Recheck(ctx context.Context, companyID string) error

	// ChangePlan moves the company to newPlan, restarting the billing window
	// and resetting the charge fields. At most one change per calendar month.
	ChangePlan(ctx context.Context, companyID string, newPlan plan.Plan) error
}

type subscriptionService struct {
	companyRepo repository.CompanyRepository
	usageRepo   repository.UsageRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(companyRepo repository.CompanyRepository, usageRepo repository.UsageRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		companyRepo: companyRepo,
		usageRepo:   usageRepo,
		logger:      logger.With().Str("service", "SubscriptionService").Logger(),
		now:         time.Now,
	}
}

// windowUsage counts the company's members and files created inside the
// current billing window [subscription_update_date, now).
func (s *subscriptionService) windowUsage(ctx context.Context, c *model.Company) (plan.Usage, error) {
	start, end := c.WindowStart(), s.now()
	users, err := s.usageRepo.CountUsersInWindow(ctx, c.ID, start, end)
	if err != nil {
		return plan.Usage{}, err
	}
	files, err := s.usageRepo.CountFilesInWindow(ctx, c.ID, start, end)
	if err != nil {
		return plan.Usage{}, err
	}
	return plan.Usage{Users: users, Files: files}, nil
}

func (s *subscriptionService) Authorize(ctx context.Context, c *model.Company, addUsers, addFiles int) error {
	usage, err := s.windowUsage(ctx, c)
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", c.ID).Msg("Failed to count window usage")
		return err
	}
	usage.Users += addUsers
	usage.Files += addFiles

	if _, err := plan.Evaluate(c.SubscriptionPlan, usage); err != nil {
		var qe *plan.QuotaError
		if errors.As(err, &qe) {
			metrics.ObserveQuotaRejection(string(qe.Plan), string(qe.Resource))
		}
		return err
	}
	return nil
}

func (s *subscriptionService) Recheck(ctx context.Context, companyID string) error {
	c, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCompanyNotFound
	}

	usage, err := s.windowUsage(ctx, c)
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to count window usage")
		return err
	}

	charges, err := plan.Evaluate(c.SubscriptionPlan, usage)
	if err != nil {
		var qe *plan.QuotaError
		if errors.As(err, &qe) {
			metrics.ObserveQuotaRejection(string(qe.Plan), string(qe.Resource))
		}
		return err
	}

	if err := s.companyRepo.SetCharges(ctx, companyID, charges); err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to persist recomputed charges")
		return err
	}
	metrics.ObserveChargeRecompute(string(c.SubscriptionPlan))
	return nil
}

func (s *subscriptionService) ChangePlan(ctx context.Context, companyID string, newPlan plan.Plan) error {
	c, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCompanyNotFound
	}

	// Same plan: nothing to change, just refresh the charges for the
	// existing window.
	if c.SubscriptionPlan == newPlan {
		return s.Recheck(ctx, companyID)
	}

	now := s.now()
	if sameCalendarMonth(c.SubscriptionUpdateDate, now) {
		return ErrPlanChangeTooSoon
	}

	// Usage in the window that is about to close. FREE hard limits are
	// re-validated whenever the change touches the free tier on either
	// side, so an already-over-quota tenant is caught instead of carried.
	usage, err := s.windowUsage(ctx, c)
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to count window usage")
		return err
	}
	if c.SubscriptionPlan == plan.Free || newPlan == plan.Free {
		if _, err := plan.Evaluate(plan.Free, usage); err != nil {
			var qe *plan.QuotaError
			if errors.As(err, &qe) {
				metrics.ObserveQuotaRejection(string(qe.Plan), string(qe.Resource))
			}
			return err
		}
	}

	// The window restarts at now, so the fresh window is empty: the only
	// non-zero charge is a flat fee the new tier may carry.
	charges, err := plan.Evaluate(newPlan, plan.Usage{})
	if err != nil {
		return fmt.Errorf("evaluating plan %s: %w", newPlan, err)
	}
	if err := s.companyRepo.SetBilling(ctx, companyID, newPlan, now, charges); err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Str("plan", string(newPlan)).Msg("Failed to persist plan change")
		return err
	}

	s.logger.Info().
		Str("company_id", companyID).
		Str("from", string(c.SubscriptionPlan)).
		Str("to", string(newPlan)).
		Msg("Subscription plan changed, billing window restarted")
	metrics.ObserveChargeRecompute(string(newPlan))
	return nil
}

func sameCalendarMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
