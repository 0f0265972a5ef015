// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed

// DefaultPageSize is the number of posts per page.
const DefaultPageSize = 2

// Window is a contiguous slice of the newest-first post list.
type Window struct {
	Skip  int
	Limit int
}

// PageWindow maps a 1-based page number to a window. Page numbers below 1
// are treated as 1 and a non-positive size as DefaultPageSize.
func PageWindow(page, size int) Window {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return Window{Skip: (page - 1) * size, Limit: size}
}

// Page is one page of posts.
type Page struct {
	Items    []*Post
	Total    int
	Page     int
	PageSize int
}
