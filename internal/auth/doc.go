// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package auth provides credential and identity primitives for Feedline.
//
// # Tokens
//
// TokenService issues HS256 bearer tokens binding a user identity for a fixed
// lifetime and verifies them. Every verification failure (bad signature,
// malformed token, wrong algorithm, expiry) collapses to ErrInvalidToken.
//
// # Guard
//
// Guard turns an Authorization header value into an AuthContext. It never
// fails: a missing header and a rejected token both yield an anonymous
// context, and each operation decides whether anonymous callers are allowed
// via AuthContext.Require.
//
// # Accounts
//
// Service covers signup, login and the free-text user status. Users are
// persisted through UserRepository; the owned-posts list is maintained by the
// feed package through AddPost and RemovePost.
package auth
