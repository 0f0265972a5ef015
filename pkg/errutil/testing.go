// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/internal/fault"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	c := oopsErr.Context()
	assert.Contains(t, c, key)
	assert.Equal(t, value, c[key])
}

// AssertKind asserts that err carries a fault of the given kind.
func AssertKind(t *testing.T, err error, kind fault.Kind) {
	t.Helper()
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok, "expected fault error, got %T: %v", err, err)
	assert.Equal(t, kind, fe.Kind, "error: %v", err)
}
