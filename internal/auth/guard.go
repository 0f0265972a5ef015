// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Guard resolves Authorization header values into AuthContexts.
type Guard struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewGuard creates a Guard. A nil logger uses slog.Default.
func NewGuard(verifier TokenVerifier, logger *slog.Logger) (*Guard, error) {
	if verifier == nil {
		return nil, oops.Code("GUARD_INVALID_CONFIG").Errorf("token verifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{verifier: verifier, logger: logger}, nil
}

// Authenticate never fails. A missing header is anonymous. A malformed
// header or a rejected token is anonymous and logged at WARN.
func (g *Guard) Authenticate(ctx context.Context, header string) AuthContext {
	header = strings.TrimSpace(header)
	if header == "" {
		return Anonymous()
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		g.logger.WarnContext(ctx, "malformed authorization header",
			"scheme", truncate(scheme, 16))
		return Anonymous()
	}

	id, err := g.verifier.Verify(token)
	if err != nil {
		g.logger.WarnContext(ctx, "rejected bearer token", "error", err)
		return Anonymous()
	}
	return Authenticated(id)
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
