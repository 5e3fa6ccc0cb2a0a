package model

import (
	"time"

	"app/internal/plan"
)

// Company is the tenant record: the billing and isolation unit.
type Company struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Country      string `db:"country" json:"country"`
	Industry     string `db:"industry" json:"industry"`

	IsVerified            bool       `db:"is_verified" json:"is_verified"`
	VerificationToken     *string    `db:"verification_token" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`
	LinkResendCount       int        `db:"link_resend_count" json:"-"`
	FirstResendAt         *time.Time `db:"first_resend_at" json:"-"`

	// SubscriptionUpdateDate anchors the current billing window
	// [SubscriptionUpdateDate, now). It is set at sign-up and reset on
	// every accepted plan change.
	SubscriptionPlan       plan.Plan `db:"subscription_plan" json:"subscription_plan"`
	SubscriptionUpdateDate time.Time `db:"subscription_update_date" json:"subscription_update_date"`
	PremiumCharge          float64   `db:"premium_charge" json:"premium_charge"`
	ExtraUserCharge        float64   `db:"extra_user_charge" json:"extra_user_charge"`
	ExtraFileCharge        float64   `db:"extra_file_charge" json:"extra_file_charge"`

	// Back-references only; authoritative ownership lives on the User and
	// File rows.
	UserIDs []string `db:"user_ids" json:"user_ids"`
	FileIDs []string `db:"file_ids" json:"file_ids"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WindowStart returns the start of the company's current billing window.
func (c *Company) WindowStart() time.Time {
	return c.SubscriptionUpdateDate
}
