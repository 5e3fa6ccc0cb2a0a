package util

import (
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/plan"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated principal. Company tokens have a
// subscription claim and sub == companyId; member tokens carry the owning
// companyId separately. The kind is explicit so downstream code never has
// to infer it from which fields happen to be present.
type Claims struct {
	Kind         string `json:"kind"`
	CompanyID    string `json:"companyId,omitempty"`
	Subscription string `json:"subscription,omitempty"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for the given principal.
func SignToken(p model.Principal, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind:      string(p.Kind),
		CompanyID: p.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if p.Kind == model.PrincipalCompany {
		claims.Subscription = string(p.Plan)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies an HS256 token and resolves it into a Principal.
func ValidateToken(tokenString, secret string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.Principal{}, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return model.Principal{}, errors.New("invalid token")
	}

	p := model.Principal{ID: claims.Subject, CompanyID: claims.CompanyID}
	switch model.PrincipalKind(claims.Kind) {
	case model.PrincipalCompany:
		p.Kind = model.PrincipalCompany
		p.CompanyID = claims.Subject
		if claims.Subscription != "" {
			tier, err := plan.Parse(claims.Subscription)
			if err != nil {
				return model.Principal{}, err
			}
			p.Plan = tier
		}
	case model.PrincipalMember:
		p.Kind = model.PrincipalMember
		if p.CompanyID == "" {
			return model.Principal{}, errors.New("member token missing companyId claim")
		}
	default:
		return model.Principal{}, fmt.Errorf("unknown principal kind %q in token", claims.Kind)
	}
	return p, nil
}
