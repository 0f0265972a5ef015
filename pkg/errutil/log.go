// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package errutil holds helpers for logging and asserting errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/fault"
)

// LogError logs err at ERROR with its fault kind, and for oops errors its
// code and context.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	attrs := []any{"error", err.Error(), "kind", fault.KindOf(err).String()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			attrs = append(attrs, "context", c)
		}
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
