// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/credentials"
)

// Bearer token defaults.
const (
	DefaultBearerTTL = 7 * 24 * time.Hour
	DefaultIssuer    = "trackpanel"
	BearerTokenType  = "bearer"
	minSecretLength  = 32
)

// BearerClaims are the claims carried by a bearer token.
type BearerClaims struct {
	AccountID string           `json:"id"`
	Username  string           `json:"username"`
	Role      credentials.Role `json:"role"`
	PatientID string           `json:"patientId,omitempty"`
	TokenType string           `json:"typ"`
	jwt.RegisteredClaims
}

// IssuerOption configures a JWTIssuer.
type IssuerOption func(*JWTIssuer)

// WithBearerTTL sets the bearer token lifetime.
func WithBearerTTL(d time.Duration) IssuerOption {
	return func(i *JWTIssuer) {
		i.ttl = d
	}
}

// WithIssuerName sets the iss claim.
func WithIssuerName(name string) IssuerOption {
	return func(i *JWTIssuer) {
		i.issuer = name
	}
}

// WithIssuerClock replaces time.Now for issuing and validating.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *JWTIssuer) {
		i.now = now
	}
}

// JWTIssuer signs and parses HS256 bearer tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTIssuer creates an issuer using the shared secret.
func NewJWTIssuer(secret string, opts ...IssuerOption) (*JWTIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, oops.Code("CONFIG_INVALID").
			With("min_length", minSecretLength).
			Errorf("bearer token secret must be at least %d bytes", minSecretLength)
	}
	i := &JWTIssuer{
		secret: []byte(secret),
		ttl:    DefaultBearerTTL,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.ttl <= 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("bearer token TTL must be positive")
	}
	return i, nil
}

// Issue signs a bearer token for account and returns it with its expiry.
func (i *JWTIssuer) Issue(account *credentials.Account) (string, time.Time, error) {
	if account == nil || account.ID == "" {
		return "", time.Time{}, oops.Code("TOKEN_INVALID_ACCOUNT").Errorf("account ID cannot be empty")
	}
	now := i.now()
	expires := now.Add(i.ttl)
	claims := BearerClaims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		PatientID: account.PatientID,
		TokenType: BearerTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, expires, nil
}

// Parse verifies token and returns its claims. Any failure yields an
// AUTH_UNAUTHORIZED error.
func (i *JWTIssuer) Parse(token string) (*BearerClaims, error) {
	claims := &BearerClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, oops.Code(CodeUnauthorized).With("reason", err.Error()).Errorf(msgUnauthorized)
	}
	if claims.TokenType != BearerTokenType || claims.AccountID == "" {
		return nil, unauthorized()
	}
	return claims, nil
}

// IsBearerToken reports whether token has the three-segment shape of a
// signed bearer token. Session tokens are hex and never contain dots.
func IsBearerToken(token string) bool {
	return strings.Count(token, ".") == 2
}
