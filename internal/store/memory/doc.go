// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package memory provides in-process user and post repositories. They back
// the `storage: memory` mode and the service-level tests.
package memory
