// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/feed"
)

const postColumns = `id, title, content, image_ref, creator_id, created_at, updated_at`

// PostRepository implements feed.PostRepository using PostgreSQL.
type PostRepository struct {
	pool poolIface
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(pool poolIface) *PostRepository {
	return &PostRepository{pool: pool}
}

func postNotFound(id ulid.ULID) error {
	return oops.Code("POST_NOT_FOUND").With("post_id", id.String()).Wrap(feed.ErrNotFound)
}

// Create stores a new post and fills its timestamps.
func (r *PostRepository) Create(ctx context.Context, post *feed.Post) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (id, title, content, image_ref, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`,
		post.ID.String(),
		post.Title,
		post.Content,
		post.ImageRef,
		post.Creator.ID.String(),
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return oops.Code("POST_CREATE_FAILED").
			With("post_id", post.ID.String()).
			With("creator_id", post.Creator.ID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves a post by ID.
func (r *PostRepository) Get(ctx context.Context, id ulid.ULID) (*feed.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id.String())
	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, postNotFound(id)
	}
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").With("post_id", id.String()).Wrap(err)
	}
	return post, nil
}

// Update saves title, content and image reference. The creator never
// changes; it is read back along with the timestamps.
func (r *PostRepository) Update(ctx context.Context, post *feed.Post) error {
	var creator string
	err := r.pool.QueryRow(ctx, `
		UPDATE posts
		SET title = $2, content = $3, image_ref = $4, updated_at = GREATEST(now(), created_at)
		WHERE id = $1
		RETURNING created_at, updated_at, creator_id
	`,
		post.ID.String(),
		post.Title,
		post.Content,
		post.ImageRef,
	).Scan(&post.CreatedAt, &post.UpdatedAt, &creator)
	if errors.Is(err, pgx.ErrNoRows) {
		return postNotFound(post.ID)
	}
	if err != nil {
		return oops.Code("POST_UPDATE_FAILED").With("post_id", post.ID.String()).Wrap(err)
	}

	creatorID, err := ulid.Parse(creator)
	if err != nil {
		return oops.Code("POST_CORRUPT_CREATOR").With("post_id", post.ID.String()).Wrap(err)
	}
	post.Creator.ID = creatorID
	return nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").With("post_id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return postNotFound(id)
	}
	return nil
}

// Count returns the total number of posts.
func (r *PostRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, oops.Code("POST_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}

// List returns up to limit posts after skipping skip, newest first.
func (r *PostRepository) List(ctx context.Context, skip, limit int) ([]*feed.Post, error) {
	if skip < 0 || limit < 0 {
		return nil, oops.Code("POST_LIST_INVALID").
			With("skip", skip).
			With("limit", limit).
			Errorf("skip and limit must not be negative")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("skip", skip).With("limit", limit).Wrap(err)
	}
	defer rows.Close()

	posts := make([]*feed.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, oops.Code("POST_SCAN_FAILED").Wrap(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("skip", skip).With("limit", limit).Wrap(err)
	}
	return posts, nil
}

func scanPost(row pgx.Row) (*feed.Post, error) {
	var (
		p              feed.Post
		idStr, creator string
	)
	if err := row.Scan(&idStr, &p.Title, &p.Content, &p.ImageRef, &creator, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify pgx.ErrNoRows
	}

	var err error
	if p.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("POST_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if p.Creator.ID, err = ulid.Parse(creator); err != nil {
		return nil, oops.Code("POST_CORRUPT_CREATOR").With("post_id", idStr).Wrap(err)
	}
	return &p, nil
}

var _ feed.PostRepository = (*PostRepository)(nil)
