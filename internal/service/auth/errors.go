package auth

import "errors"

// Token validation errors
var (
	// ErrInvalidToken is returned when a token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid is returned when a token's not-before time
	// is in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrEmptyToken is returned when no token was supplied at all.
	ErrEmptyToken = errors.New("token cannot be empty")
)
