// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenClaims represents the claims contained in a JWT access token.
type TokenClaims struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// TokenService defines the interface for validating externally issued JWT
// access tokens. Token issuance belongs to the identity provider, not this
// service.
type TokenService interface {
	// ValidateAccessToken checks the token signature and expiry and returns
	// the identity claims it carries.
	ValidateAccessToken(ctx context.Context, token string) (*TokenClaims, error)
}
