// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package errutil_test

import (
	"fmt"
	"testing"

	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/fault"
	"github.com/feedline/feedline/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("POST_NOT_FOUND").Errorf("post not found")
	errutil.AssertErrorCode(t, err, "POST_NOT_FOUND")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("post_id", "01J").Errorf("test error")
	errutil.AssertErrorContext(t, err, "post_id", "01J")
}

func TestAssertKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", fault.Forbidden("Not authorized!"))
	errutil.AssertKind(t, err, fault.KindForbidden)
}
