// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package feed implements post mutations and queries.
//
// Every operation takes the caller's auth.AuthContext and applies its checks
// in a fixed order: authentication, input validation, existence, ownership.
// Successful mutations publish exactly one Event; failed ones publish none.
package feed
