// Package plan holds the subscription tiers, their quota policy and the
// overage charge calculator. Everything here is pure: usage counts come in,
// an allow/deny decision and a set of charges come out.
package plan

import (
	"fmt"
)

// Plan is a subscription tier.
type Plan string

const (
	Free    Plan = "free"
	Basic   Plan = "basic"
	Premium Plan = "premium"
)

// Parse returns the Plan for s, or an error for unknown tiers.
func Parse(s string) (Plan, error) {
	switch Plan(s) {
	case Free, Basic, Premium:
		return Plan(s), nil
	}
	return "", fmt.Errorf("unknown subscription plan %q", s)
}

// Usage is the resource usage counted inside a tenant's current billing window.
type Usage struct {
	Users int
	Files int
}

// Charges are the computed billing amounts stored on the tenant record.
// They are recorded, never collected, by this system.
type Charges struct {
	Premium   float64
	ExtraUser float64
	ExtraFile float64
}

// Resource names the quota that was exhausted.
type Resource string

const (
	ResourceUsers Resource = "users"
	ResourceFiles Resource = "files"
)

// QuotaError is returned when a hard-capped plan rejects an operation.
type QuotaError struct {
	Plan     Plan
	Resource Resource
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s plan limit reached for %s: upgrade your plan to add more", e.Plan, e.Resource)
}

// policy describes one tier. A zero limit means "no limit". Hard-capped
// tiers reject when a limit is exceeded; soft tiers charge overage instead.
type policy struct {
	hardUserLimit int
	hardFileLimit int

	includedUsers int
	includedFiles int
	userOverage   float64
	fileOverage   float64
	flatCharge    float64
}

var policies = map[Plan]policy{
	Free: {
		hardUserLimit: 1,
		hardFileLimit: 5,
	},
	Basic: {
		includedUsers: 3,
		includedFiles: 5,
		userOverage:   5,
		fileOverage:   0.5,
	},
	Premium: {
		includedFiles: 10,
		fileOverage:   0.5,
		flatCharge:    30,
	},
}

// HardUserLimit returns the hard member cap for p, or 0 when p has none.
func HardUserLimit(p Plan) int {
	return policies[p].hardUserLimit
}

// Evaluate applies p's policy to the given window usage. For hard-capped
// tiers it returns a QuotaError naming the exhausted resource; for soft
// tiers it computes the overage charges.
func Evaluate(p Plan, u Usage) (Charges, error) {
	pol, ok := policies[p]
	if !ok {
		return Charges{}, fmt.Errorf("unknown subscription plan %q", p)
	}

	if pol.hardUserLimit > 0 && u.Users > pol.hardUserLimit {
		return Charges{}, &QuotaError{Plan: p, Resource: ResourceUsers}
	}
	if pol.hardFileLimit > 0 && u.Files > pol.hardFileLimit {
		return Charges{}, &QuotaError{Plan: p, Resource: ResourceFiles}
	}

	c := Charges{Premium: pol.flatCharge}
	if pol.userOverage > 0 && u.Users > pol.includedUsers {
		c.ExtraUser = float64(u.Users-pol.includedUsers) * pol.userOverage
	}
	if pol.fileOverage > 0 && u.Files > pol.includedFiles {
		c.ExtraFile = float64(u.Files-pol.includedFiles) * pol.fileOverage
	}
	return c, nil
}
