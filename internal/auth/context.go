// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth

import (
	"context"

	"github.com/feedline/feedline/internal/fault"
)

// AuthContext is the outcome of authenticating a request: either anonymous
// or authenticated with an Identity.
type AuthContext struct {
	identity *Identity
}

// Anonymous returns an unauthenticated context.
func Anonymous() AuthContext {
	return AuthContext{}
}

// Authenticated returns a context carrying id.
func Authenticated(id Identity) AuthContext {
	return AuthContext{identity: &id}
}

// IsAuthenticated reports whether a verified identity is present.
func (a AuthContext) IsAuthenticated() bool {
	return a.identity != nil
}

// Identity returns the identity and whether one is present.
func (a AuthContext) Identity() (Identity, bool) {
	if a.identity == nil {
		return Identity{}, false
	}
	return *a.identity, true
}

// Require returns the identity, or an unauthenticated fault for anonymous
// contexts.
func (a AuthContext) Require() (Identity, error) {
	if a.identity == nil {
		return Identity{}, fault.Unauthenticated("Not authenticated.")
	}
	return *a.identity, nil
}

// RequireAuthenticated fails with an unauthenticated fault for anonymous
// contexts.
func RequireAuthenticated(a AuthContext) error {
	_, err := a.Require()
	return err
}

type authContextKey struct{}

// WithAuthContext returns a copy of ctx carrying a.
func WithAuthContext(ctx context.Context, a AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, a)
}

// AuthContextFrom returns the AuthContext stored in ctx, or an anonymous one.
func AuthContextFrom(ctx context.Context) AuthContext {
	if a, ok := ctx.Value(authContextKey{}).(AuthContext); ok {
		return a
	}
	return Anonymous()
}
