package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/plan"
	"app/internal/util"

	"golang.org/x/crypto/bcrypt"
)

func TestSignUpStartsOnFreePlan(t *testing.T) {
	env := newTestEnv()

	c, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "DE", "logistics")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if c.SubscriptionPlan != plan.Free {
		t.Fatalf("expected free plan at sign-up, got %s", c.SubscriptionPlan)
	}
	if !c.SubscriptionUpdateDate.Equal(env.store.clock) {
		t.Fatal("billing window must be anchored at sign-up time")
	}
	if c.IsVerified {
		t.Fatal("new company must start unverified")
	}
	if len(env.notifier.sent) != 1 {
		t.Fatalf("expected one verification email, got %d", len(env.notifier.sent))
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.seedCompany("c1", plan.Free)

	if _, err := env.auth.SignUp(context.Background(), "Other", "c1@example.com", "s3cret-pass", "", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestVerifyEmailAndSignIn(t *testing.T) {
	env := newTestEnv()
	c, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "", "")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	token := *env.store.companies[c.ID].VerificationToken
	if err := env.auth.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	jwt, err := env.auth.SignIn(context.Background(), "acme@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	p, err := util.ValidateToken(jwt, "test-secret")
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if !p.IsCompany() || p.CompanyID != c.ID {
		t.Fatalf("unexpected principal %+v", p)
	}
	if p.Plan != plan.Free {
		t.Fatalf("expected free plan claim, got %s", p.Plan)
	}
}

func TestVerifyEmailExpired(t *testing.T) {
	env := newTestEnv()
	c, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "", "")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	token := *env.store.companies[c.ID].VerificationToken

	env.advance(10 * time.Minute)
	if err := env.auth.VerifyEmail(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	env := newTestEnv()
	if _, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if _, err := env.auth.SignIn(context.Background(), "acme@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.auth.SignIn(context.Background(), "nobody@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignInMemberBeforeCompletion(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompany("c1", plan.Basic)
	if _, err := env.users.Create(context.Background(), companyPrincipal(c), "new@example.com"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// Invited but not yet verified, no password set.
	if _, err := env.auth.SignIn(context.Background(), "new@example.com", "anything"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
}

func TestSignInMember(t *testing.T) {
	env := newTestEnv()
	env.seedCompany("c1", plan.Basic)
	u := env.seedUser("u1", "c1")
	hash, err := bcrypt.GenerateFromPassword([]byte("member-pass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	h := string(hash)
	env.store.users[u.ID].PasswordHash = &h

	jwt, err := env.auth.SignIn(context.Background(), "u1@example.com", "member-pass")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	p, err := util.ValidateToken(jwt, "test-secret")
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if p.IsCompany() || p.ID != u.ID || p.CompanyID != "c1" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestResendVerificationLimit(t *testing.T) {
	env := newTestEnv()
	if _, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		env.advance(time.Minute)
		if err := env.auth.ResendVerification(context.Background(), "acme@example.com"); err != nil {
			t.Fatalf("resend %d returned error: %v", i+1, err)
		}
	}
	env.advance(time.Minute)
	if err := env.auth.ResendVerification(context.Background(), "acme@example.com"); !errors.Is(err, ErrResendLimit) {
		t.Fatalf("expected ErrResendLimit on the fourth resend, got %v", err)
	}

	// The counter resets once the 24h window has passed.
	env.advance(25 * time.Hour)
	if err := env.auth.ResendVerification(context.Background(), "acme@example.com"); err != nil {
		t.Fatalf("resend after window reset returned error: %v", err)
	}
}

func TestUpdateCompanyPlanChange(t *testing.T) {
	env := newTestEnv()
	c, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "", "")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	env.advance(35 * 24 * time.Hour)
	newPlan := plan.Premium
	if err := env.auth.UpdateCompany(context.Background(), companyPrincipal(c), "", "", "", &newPlan); err != nil {
		t.Fatalf("UpdateCompany returned error: %v", err)
	}
	got := env.store.companies[c.ID]
	if got.SubscriptionPlan != plan.Premium {
		t.Fatalf("expected premium plan, got %s", got.SubscriptionPlan)
	}
	if got.Name != "Acme" {
		t.Fatalf("empty profile fields must keep their values, got %q", got.Name)
	}
}

func TestUpdateCompanyRejectedPlanChangeKeepsProfile(t *testing.T) {
	env := newTestEnv()
	c, err := env.auth.SignUp(context.Background(), "Acme", "acme@example.com", "s3cret-pass", "DE", "logistics")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	// Still inside the calendar month of the last change, so the plan change
	// is refused and the profile update must not have happened either.
	newPlan := plan.Premium
	err = env.auth.UpdateCompany(context.Background(), companyPrincipal(c), "Globex", "US", "finance", &newPlan)
	if !errors.Is(err, ErrPlanChangeTooSoon) {
		t.Fatalf("expected ErrPlanChangeTooSoon, got %v", err)
	}
	got := env.store.companies[c.ID]
	if got.SubscriptionPlan != plan.Free {
		t.Fatalf("expected plan unchanged, got %s", got.SubscriptionPlan)
	}
	if got.Name != "Acme" || got.Country != "DE" || got.Industry != "logistics" {
		t.Fatalf("rejected plan change must leave the profile untouched, got %q/%q/%q", got.Name, got.Country, got.Industry)
	}
}

func TestChangePasswordMembersForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedCompany("c1", plan.Basic)
	u := env.seedUser("u1", "c1")

	if err := env.auth.ChangePassword(context.Background(), memberPrincipal(u), "old", "new-password"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
