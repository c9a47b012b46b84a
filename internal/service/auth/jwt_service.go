// Package auth validates the JWTs issued by the external identity
// service. This API never issues tokens; it only verifies them and
// extracts the subject user ID.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claims carries the validated token contents the rest of the API
// cares about.
type Claims struct {
	// UserID is the authenticated user, taken from the token subject.
	UserID uuid.UUID

	// ExpiresAt is when the token stops being valid.
	ExpiresAt time.Time
}

// TokenValidator validates access tokens.
type TokenValidator interface {
	// ValidateToken verifies the token's signature and time claims and
	// returns the extracted claims. Returns ErrInvalidToken,
	// ErrExpiredToken or ErrTokenNotYetValid on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
