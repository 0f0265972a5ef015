// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/auth/mocks"
	"github.com/feedline/feedline/internal/fault"
	"github.com/feedline/feedline/pkg/errutil"
)

func newGuard(t *testing.T, v auth.TokenVerifier) (*auth.Guard, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g, err := auth.NewGuard(v, logger)
	require.NoError(t, err)
	return g, &buf
}

func TestNewGuard_RequiresVerifier(t *testing.T) {
	g, err := auth.NewGuard(nil, nil)
	require.Error(t, err)
	assert.Nil(t, g)
}

func TestGuard_Authenticate(t *testing.T) {
	ctx := context.Background()
	id := auth.Identity{ID: ulid.Make(), Email: "ada@example.com"}

	t.Run("absent header is anonymous and silent", func(t *testing.T) {
		g, logs := newGuard(t, mocks.NewMockTokenVerifier(t))

		ac := g.Authenticate(ctx, "")
		assert.False(t, ac.IsAuthenticated())
		assert.Empty(t, logs.String())

		ac = g.Authenticate(ctx, "   ")
		assert.False(t, ac.IsAuthenticated())
		assert.Empty(t, logs.String())
	})

	t.Run("valid bearer token authenticates", func(t *testing.T) {
		v := mocks.NewMockTokenVerifier(t)
		v.On("Verify", "tok").Return(id, nil)
		g, logs := newGuard(t, v)

		ac := g.Authenticate(ctx, "Bearer tok")
		got, ok := ac.Identity()
		require.True(t, ok)
		assert.Equal(t, id, got)
		assert.Empty(t, logs.String())
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		v := mocks.NewMockTokenVerifier(t)
		v.On("Verify", "tok").Return(id, nil).Twice()
		g, _ := newGuard(t, v)

		assert.True(t, g.Authenticate(ctx, "bearer tok").IsAuthenticated())
		assert.True(t, g.Authenticate(ctx, "BEARER tok").IsAuthenticated())
	})

	malformed := []string{
		"tok",
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"Bearer ",
		"Bearer a b",
	}
	for _, header := range malformed {
		t.Run("malformed "+header, func(t *testing.T) {
			g, logs := newGuard(t, mocks.NewMockTokenVerifier(t))

			ac := g.Authenticate(ctx, header)
			assert.False(t, ac.IsAuthenticated())
			assert.Contains(t, logs.String(), `"level":"WARN"`)
			assert.Contains(t, logs.String(), "malformed authorization header")
		})
	}

	t.Run("long scheme is cut on a rune boundary", func(t *testing.T) {
		g, logs := newGuard(t, mocks.NewMockTokenVerifier(t))
		scheme := "x" + strings.Repeat("é", 20)

		ac := g.Authenticate(ctx, scheme+" tok")
		assert.False(t, ac.IsAuthenticated())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
		logged, _ := entry["scheme"].(string)
		assert.Equal(t, "x"+strings.Repeat("é", 7), logged)
		assert.True(t, utf8.ValidString(logged))
	})

	t.Run("rejected token is anonymous and logged", func(t *testing.T) {
		v := mocks.NewMockTokenVerifier(t)
		v.On("Verify", "expired").Return(auth.Identity{}, auth.ErrInvalidToken)
		g, logs := newGuard(t, v)

		ac := g.Authenticate(ctx, "Bearer expired")
		assert.False(t, ac.IsAuthenticated())
		assert.Contains(t, logs.String(), `"level":"WARN"`)
		assert.Contains(t, logs.String(), "rejected bearer token")
	})
}

func TestAuthContext(t *testing.T) {
	t.Run("anonymous requires fails unauthenticated", func(t *testing.T) {
		_, err := auth.Anonymous().Require()
		errutil.AssertKind(t, err, fault.KindUnauthenticated)
		errutil.AssertKind(t, auth.RequireAuthenticated(auth.Anonymous()), fault.KindUnauthenticated)
	})

	t.Run("authenticated requires passes", func(t *testing.T) {
		id := auth.Identity{ID: ulid.Make(), Email: "ada@example.com"}
		got, err := auth.Authenticated(id).Require()
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("travels in context", func(t *testing.T) {
		id := auth.Identity{ID: ulid.Make(), Email: "ada@example.com"}
		ctx := auth.WithAuthContext(context.Background(), auth.Authenticated(id))

		got, ok := auth.AuthContextFrom(ctx).Identity()
		require.True(t, ok)
		assert.Equal(t, id, got)

		assert.False(t, auth.AuthContextFrom(context.Background()).IsAuthenticated())
	})
}

func TestGuard_TokenLifetime(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens := newTokenService(t, clock)
	g, _ := newGuard(t, tokens)

	id := auth.Identity{ID: ulid.Make(), Email: "ada@example.com"}
	token, _, err := tokens.Issue(id)
	require.NoError(t, err)

	ac := g.Authenticate(ctx, "Bearer "+token)
	got, ok := ac.Identity()
	require.True(t, ok)
	assert.Equal(t, id, got)

	clock.Advance(tokens.TTL() + time.Second)
	assert.False(t, g.Authenticate(ctx, "Bearer "+token).IsAuthenticated())
}
