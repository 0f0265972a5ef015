// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/feed"
)

// Posts is an in-memory feed.PostRepository.
type Posts struct {
	mu    sync.RWMutex
	posts map[ulid.ULID]*feed.Post
	now   func() time.Time
}

// NewPosts creates an empty post repository.
func NewPosts() *Posts {
	return &Posts{
		posts: make(map[ulid.ULID]*feed.Post),
		now:   time.Now,
	}
}

func clonePost(p *feed.Post) *feed.Post {
	c := *p
	c.Creator.Name = ""
	return &c
}

func notFound(id ulid.ULID) error {
	return oops.Code("POST_NOT_FOUND").With("post_id", id.String()).Wrap(feed.ErrNotFound)
}

// Create stores a new post and sets its timestamps.
func (r *Posts) Create(_ context.Context, post *feed.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; exists {
		return oops.Code("POST_CREATE_FAILED").With("post_id", post.ID.String()).Errorf("post id already exists")
	}

	now := r.now()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts[post.ID] = clonePost(post)
	return nil
}

// Get retrieves a post by ID.
func (r *Posts) Get(_ context.Context, id ulid.ULID) (*feed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, notFound(id)
	}
	return clonePost(p), nil
}

// Update saves title, content and image reference.
func (r *Posts) Update(_ context.Context, post *feed.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok {
		return notFound(post.ID)
	}

	existing.Title = post.Title
	existing.Content = post.Content
	existing.ImageRef = post.ImageRef
	existing.UpdatedAt = r.now()
	if existing.UpdatedAt.Before(existing.CreatedAt) {
		existing.UpdatedAt = existing.CreatedAt
	}

	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = existing.UpdatedAt
	post.Creator.ID = existing.Creator.ID
	return nil
}

// Delete removes a post.
func (r *Posts) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return notFound(id)
	}
	delete(r.posts, id)
	return nil
}

// Count returns the number of stored posts.
func (r *Posts) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts), nil
}

// List returns posts newest first. Posts created at the same instant are
// ordered by descending id.
func (r *Posts) List(_ context.Context, skip, limit int) ([]*feed.Post, error) {
	if skip < 0 || limit < 0 {
		return nil, oops.Code("POST_LIST_FAILED").With("skip", skip).With("limit", limit).Errorf("negative window")
	}

	r.mu.RLock()
	all := make([]*feed.Post, 0, len(r.posts))
	for _, p := range r.posts {
		all = append(all, clonePost(p))
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b *feed.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return b.ID.Compare(a.ID)
	})

	if skip >= len(all) {
		return []*feed.Post{}, nil
	}
	end := min(skip+limit, len(all))
	return all[skip:end], nil
}
