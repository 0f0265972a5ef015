// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned by repositories when the email is taken.
var ErrDuplicateEmail = errors.New("email already in use")

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")
