package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is a signed bearer credential.
type Token struct {
	Value     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenIssuer mints and verifies bearer tokens bound to a principal id.
type TokenIssuer interface {
	Issue(principalID uint64) (*Token, error)
	Verify(value string) (principalID uint64, err error)
}

// JWTIssuer implements TokenIssuer with HS256 signed JWTs.
// The principal id is the "sub" claim and every token carries a random "jti".
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  Clock
}

// NewJWTIssuer returns an issuer signing with secret.
func NewJWTIssuer(secret []byte, issuer string, ttl time.Duration, clock Clock) *JWTIssuer {
	if clock == nil {
		clock = SystemClock{}
	}

	return &JWTIssuer{secret: secret, issuer: issuer, ttl: ttl, clock: clock}
}

// Issue signs a token for principalID valid for the configured TTL.
func (j *JWTIssuer) Issue(principalID uint64) (*Token, error) {
	now := j.clock.Now()
	exp := now.Add(j.ttl)
	id := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(principalID, 10),
		Issuer:    j.issuer,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{Value: signed, ID: id, ExpiresAt: exp}, nil
}

// Verify checks signature, issuer and expiry and returns the principal id.
func (j *JWTIssuer) Verify(value string) (uint64, error) {
	claims := &jwt.RegisteredClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}

		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return 0, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: sub is not a principal id", ErrInvalidToken)
	}

	return id, nil
}
