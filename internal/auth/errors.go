package auth

import "errors"

var (
	// ErrInvalidToken is returned when a bearer token can not be parsed or verified.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a bearer token is past its expiry.
	ErrExpiredToken = errors.New("token expired")

	// ErrMissingClaim is returned when a verified token lacks a required claim.
	ErrMissingClaim = errors.New("missing required claim")

	// ErrUnsupportedHash is returned when a stored password hash uses an unknown scheme.
	ErrUnsupportedHash = errors.New("unsupported password hash scheme")

	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
)
