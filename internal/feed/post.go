// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by repositories when a post does not exist.
var ErrNotFound = errors.New("post not found")

// Creator is the author of a post as shown to readers.
type Creator struct {
	ID   ulid.ULID `json:"_id"`
	Name string    `json:"name"`
}

// Post is a titled piece of content owned by its creator.
// Repositories only fill Creator.ID; the service resolves Creator.Name.
type Post struct {
	ID        ulid.ULID `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageRef  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostRepository manages post persistence. Repositories set CreatedAt and
// UpdatedAt and keep UpdatedAt >= CreatedAt.
type PostRepository interface {
	// Create stores a new post and fills its timestamps.
	Create(ctx context.Context, post *Post) error

	// Get retrieves a post by ID.
	Get(ctx context.Context, id ulid.ULID) (*Post, error)

	// Update saves title, content and image reference and refreshes UpdatedAt.
	Update(ctx context.Context, post *Post) error

	// Delete removes a post.
	Delete(ctx context.Context, id ulid.ULID) error

	// Count returns the total number of posts.
	Count(ctx context.Context) (int, error)

	// List returns up to limit posts after skipping skip, newest first.
	List(ctx context.Context, skip, limit int) ([]*Post, error)
}
