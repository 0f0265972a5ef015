// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/auth"
)

// Users is an in-memory auth.UserRepository.
type Users struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
	now     func() time.Time
}

// NewUsers creates an empty user repository.
func NewUsers() *Users {
	return &Users{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
		now:     time.Now,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	c.Posts = slices.Clone(u.Posts)
	return &c
}

// Create stores a new user.
func (r *Users) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return oops.Code("USER_DUPLICATE_EMAIL").With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
	}
	if _, exists := r.byID[user.ID]; exists {
		return oops.Code("USER_CREATE_FAILED").With("user_id", user.ID.String()).Errorf("user id already exists")
	}

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = cloneUser(user)
	r.byEmail[key] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *Users) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	return cloneUser(u), nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *Users) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[emailKey(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// Update saves everything but the owned posts.
func (r *Users) Update(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", user.ID.String()).Wrap(auth.ErrNotFound)
	}

	oldKey, newKey := emailKey(existing.Email), emailKey(user.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return oops.Code("USER_DUPLICATE_EMAIL").With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = user.ID
	}

	existing.Email = user.Email
	existing.Name = user.Name
	existing.PasswordHash = user.PasswordHash
	existing.Status = user.Status
	existing.UpdatedAt = r.now()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

// AddPost appends postID to the user's posts if not already present.
func (r *Users) AddPost(_ context.Context, userID, postID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	if !slices.Contains(u.Posts, postID) {
		u.Posts = append(u.Posts, postID)
		u.UpdatedAt = r.now()
	}
	return nil
}

// RemovePost removes postID from the user's posts.
func (r *Users) RemovePost(_ context.Context, userID, postID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	u.Posts = slices.DeleteFunc(u.Posts, func(id ulid.ULID) bool { return id == postID })
	u.UpdatedAt = r.now()
	return nil
}
