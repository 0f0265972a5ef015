// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/blob"
	"github.com/feedline/feedline/internal/fault"
)

// UserStore is the subset of auth.UserRepository the feed needs.
type UserStore interface {
	GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error)
	AddPost(ctx context.Context, userID, postID ulid.ULID) error
	RemovePost(ctx context.Context, userID, postID ulid.ULID) error
}

// BlobRemover deletes stored images by reference.
type BlobRemover interface {
	Delete(ctx context.Context, ref string) error
}

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Posts     PostRepository
	Users     UserStore
	Blobs     BlobRemover
	Publisher Publisher
	// PageSize defaults to DefaultPageSize.
	PageSize int
	Logger   *slog.Logger
}

// Service provides authorized post mutations and queries.
type Service struct {
	posts     PostRepository
	users     UserStore
	blobs     BlobRemover
	publisher Publisher
	pageSize  int
	logger    *slog.Logger
}

const (
	msgPostNotFound = "Could not find post."
	msgNotOwner     = "Not authorized!"
	msgInvalidInput = "Validation failed, entered data is incorrect."
)

// NewService creates a Service. Blobs may be nil when images are not stored.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Posts == nil {
		return nil, oops.Code("FEED_INVALID_SERVICE").Errorf("post repository is required")
	}
	if cfg.Users == nil {
		return nil, oops.Code("FEED_INVALID_SERVICE").Errorf("user store is required")
	}
	if cfg.Publisher == nil {
		return nil, oops.Code("FEED_INVALID_SERVICE").Errorf("publisher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		posts:     cfg.Posts,
		users:     cfg.Users,
		blobs:     cfg.Blobs,
		publisher: cfg.Publisher,
		pageSize:  pageSize,
		logger:    logger,
	}, nil
}

// PageSize returns the number of posts per page.
func (s *Service) PageSize() int {
	return s.pageSize
}

// CreatePost stores a post owned by the caller, links it into the caller's
// posts and publishes a create event.
//
// If the link fails after the post is stored, the post is left in place and
// an internal error is returned without publishing.
func (s *Service) CreatePost(ctx context.Context, ac auth.AuthContext, in PostInput) (*Post, error) {
	caller, err := ac.Require()
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := fault.FromValidation(msgInvalidInput, in.Validate(caller.ID)); err != nil {
		return nil, err
	}

	creator, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fault.NotFound("User not found.", err)
		}
		return nil, fault.Internal("create post failed", err)
	}

	post := &Post{
		ID:       ulid.Make(),
		Title:    in.Title,
		Content:  in.Content,
		ImageRef: in.ImageRef,
		Creator:  Creator{ID: creator.ID},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fault.Internal("create post failed", err)
	}

	if err := s.users.AddPost(ctx, creator.ID, post.ID); err != nil {
		s.logger.ErrorContext(ctx, "post stored but not linked to creator",
			"post_id", post.ID.String(), "user_id", creator.ID.String(), "error", err)
		return nil, fault.Internal("create post failed", err)
	}

	post.Creator.Name = creator.Name
	s.publish(ActionCreate, post)
	return post, nil
}

// UpdatePost replaces title and content of a post owned by the caller. The
// image reference is only replaced when in.ImageRef is non-empty; a replaced
// image is deleted best-effort.
func (s *Service) UpdatePost(ctx context.Context, ac auth.AuthContext, postID string, in PostInput) (*Post, error) {
	caller, err := ac.Require()
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := fault.FromValidation(msgInvalidInput, in.Validate(caller.ID)); err != nil {
		return nil, err
	}

	post, err := s.ownedPost(ctx, caller, postID)
	if err != nil {
		return nil, err
	}

	oldImage := post.ImageRef
	post.Title = in.Title
	post.Content = in.Content
	if in.ImageRef != "" {
		post.ImageRef = in.ImageRef
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fault.NotFound(msgPostNotFound, err)
		}
		return nil, fault.Internal("update post failed", err)
	}

	if oldImage != "" && oldImage != post.ImageRef {
		s.removeBlob(ctx, post, oldImage)
	}

	s.resolveCreators(ctx, []*Post{post})
	s.publish(ActionUpdate, post)
	return post, nil
}

// DeletePost removes a post owned by the caller, unlinks it from the
// caller's posts, deletes its image best-effort and publishes a delete event.
func (s *Service) DeletePost(ctx context.Context, ac auth.AuthContext, postID string) error {
	caller, err := ac.Require()
	if err != nil {
		return err
	}

	post, err := s.ownedPost(ctx, caller, postID)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fault.NotFound(msgPostNotFound, err)
		}
		return fault.Internal("delete post failed", err)
	}

	if err := s.users.RemovePost(ctx, post.Creator.ID, post.ID); err != nil {
		s.logger.ErrorContext(ctx, "post deleted but not unlinked from creator",
			"post_id", post.ID.String(), "user_id", post.Creator.ID.String(), "error", err)
		return fault.Internal("delete post failed", err)
	}

	if post.ImageRef != "" {
		s.removeBlob(ctx, post, post.ImageRef)
	}

	s.publisher.Publish(Event{Action: ActionDelete, PostID: post.ID})
	return nil
}

// GetPost returns a single post with its creator resolved.
func (s *Service) GetPost(ctx context.Context, ac auth.AuthContext, postID string) (*Post, error) {
	if err := auth.RequireAuthenticated(ac); err != nil {
		return nil, err
	}

	post, err := s.lookup(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.resolveCreators(ctx, []*Post{post})
	return post, nil
}

// ListPosts returns one page of posts, newest first, and the total count.
func (s *Service) ListPosts(ctx context.Context, ac auth.AuthContext, page int) (*Page, error) {
	if err := auth.RequireAuthenticated(ac); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, fault.Internal("list posts failed", err)
	}

	w := PageWindow(page, s.pageSize)
	items, err := s.posts.List(ctx, w.Skip, w.Limit)
	if err != nil {
		return nil, fault.Internal("list posts failed", err)
	}
	s.resolveCreators(ctx, items)

	return &Page{Items: items, Total: total, Page: page, PageSize: s.pageSize}, nil
}

// lookup resolves postID. Malformed ids do not resolve.
func (s *Service) lookup(ctx context.Context, postID string) (*Post, error) {
	id, err := ulid.ParseStrict(postID)
	if err != nil {
		return nil, fault.NotFound(msgPostNotFound, nil)
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fault.NotFound(msgPostNotFound, err)
		}
		return nil, fault.Internal("get post failed", err)
	}
	return post, nil
}

func (s *Service) ownedPost(ctx context.Context, caller auth.Identity, postID string) (*Post, error) {
	post, err := s.lookup(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Creator.ID != caller.ID {
		return nil, fault.Forbidden(msgNotOwner)
	}
	return post, nil
}

// resolveCreators fills Creator.Name. A creator that cannot be loaded
// leaves the name empty.
func (s *Service) resolveCreators(ctx context.Context, posts []*Post) {
	names := make(map[ulid.ULID]string, len(posts))
	for _, p := range posts {
		name, ok := names[p.Creator.ID]
		if !ok {
			user, err := s.users.GetByID(ctx, p.Creator.ID)
			if err != nil {
				s.logger.WarnContext(ctx, "creator lookup failed",
					"post_id", p.ID.String(), "user_id", p.Creator.ID.String(), "error", err)
			} else {
				name = user.Name
			}
			names[p.Creator.ID] = name
		}
		p.Creator.Name = name
	}
}

// publish sends a copy of post so subscribers never share the caller's value.
func (s *Service) publish(action Action, post *Post) {
	snapshot := *post
	s.publisher.Publish(Event{Action: action, Post: &snapshot, PostID: post.ID})
}

func (s *Service) removeBlob(ctx context.Context, post *Post, ref string) {
	if s.blobs == nil {
		return
	}
	if !blob.OwnedBy(ref, post.Creator.ID) {
		s.logger.WarnContext(ctx, "image not removed, not uploaded by post creator",
			"post_id", post.ID.String(), "image", ref)
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.logger.WarnContext(ctx, "image cleanup failed",
			"post_id", post.ID.String(), "image", ref, "error", err)
	}
}
