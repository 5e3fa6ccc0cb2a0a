package service

import "errors"

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrFileNotFound    = errors.New("file not found")

	ErrEmailTaken = errors.New("email already registered")

	// ErrForbidden means the caller is authenticated but not permitted to
	// perform this tenant-scoped action.
	ErrForbidden = errors.New("permission denied")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")

	ErrTokenInvalid = errors.New("invalid verification token")
	ErrTokenExpired = errors.New("verification link has expired, please request a new one")

	ErrAlreadyVerified = errors.New("account already verified")
	ErrResendLimit     = errors.New("resend limit reached, try again later")

	// ErrPlanChangeTooSoon enforces the one-plan-change-per-calendar-month
	// policy.
	ErrPlanChangeTooSoon = errors.New("subscription plan already changed this month")
)
