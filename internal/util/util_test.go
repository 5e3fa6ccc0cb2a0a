package util

import (
	"testing"
	"time"

	"app/internal/model"
	"app/internal/plan"
)

const testSecret = "test-secret"

func TestCompanyTokenRoundTrip(t *testing.T) {
	in := model.Principal{
		Kind:      model.PrincipalCompany,
		ID:        "company-1",
		CompanyID: "company-1",
		Plan:      plan.Basic,
	}
	token, err := SignToken(in, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	out, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMemberTokenRoundTrip(t *testing.T) {
	in := model.Principal{
		Kind:      model.PrincipalMember,
		ID:        "user-1",
		CompanyID: "company-1",
	}
	token, err := SignToken(in, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	out, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
	if out.IsCompany() {
		t.Fatal("member principal reported as company")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	in := model.Principal{Kind: model.PrincipalCompany, ID: "company-1", CompanyID: "company-1", Plan: plan.Free}
	token, err := SignToken(in, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Fatal("expected validation to fail with the wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	in := model.Principal{Kind: model.PrincipalCompany, ID: "company-1", CompanyID: "company-1", Plan: plan.Free}
	token, err := SignToken(in, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", testSecret); err == nil {
		t.Fatal("expected validation to fail for garbage input")
	}
}
