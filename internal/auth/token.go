// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = time.Hour

// Identity is the authenticated principal carried by a token.
type Identity struct {
	ID    ulid.ULID
	Email string
}

// Claims is the token payload.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens.
type TokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithIssuer sets the iss claim. Verification then requires it.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// WithClock replaces the wall clock used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService signing with key.
func NewTokenService(key []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(key) == 0 {
		return nil, oops.Code("TOKEN_KEY_REQUIRED").Errorf("signing key is required")
	}
	if ttl <= 0 {
		return nil, oops.Code("TOKEN_TTL_INVALID").With("ttl", ttl).Errorf("token ttl must be positive")
	}

	s := &TokenService{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for id. It returns the token and its expiry.
func (s *TokenService) Issue(id Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		UID:   id.ID.String(),
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, oops.Code("TOKEN_SIGN_FAILED").With("user_id", id.ID.String()).Wrap(err)
	}
	return signed, expiresAt, nil
}

// Verify checks the token's signature, algorithm, issuer and expiry and
// returns the identity it carries. Every failure is ErrInvalidToken.
func (s *TokenService) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return Identity{}, invalidToken(err)
	}
	if !parsed.Valid {
		return Identity{}, invalidToken(errors.New("token not valid"))
	}

	id, err := ulid.ParseStrict(claims.UID)
	if err != nil {
		return Identity{}, invalidToken(err)
	}
	return Identity{ID: id, Email: claims.Email}, nil
}

func invalidToken(cause error) error {
	return oops.Code("TOKEN_INVALID").With("reason", cause.Error()).Wrap(ErrInvalidToken)
}
