package model

import "app/internal/plan"

// PrincipalKind distinguishes an authenticated company from a member.
type PrincipalKind string

const (
	PrincipalCompany PrincipalKind = "company"
	PrincipalMember  PrincipalKind = "member"
)

// Principal is the authenticated caller, resolved once from the token at the
// API boundary and passed by parameter into every core operation. For a
// company principal ID equals CompanyID and Plan carries the subscription
// tier from the token claims.
type Principal struct {
	Kind      PrincipalKind
	ID        string
	CompanyID string
	Plan      plan.Plan
}

// IsCompany reports whether the caller is the tenant itself
// (admin-equivalent for tenant-scoped actions).
func (p Principal) IsCompany() bool {
	return p.Kind == PrincipalCompany
}
