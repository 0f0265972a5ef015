// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth

import (
	"context"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultStatus is the status every new user starts with.
const DefaultStatus = "I am new!"

// User is a feed account.
type User struct {
	ID           ulid.ULID
	Email        string
	Name         string
	PasswordHash string
	Status       string
	// Posts holds the ids of posts created by the user, oldest first.
	Posts     []ulid.ULID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Owns reports whether postID is in the user's owned posts.
func (u *User) Owns(postID ulid.ULID) bool {
	return slices.Contains(u.Posts, postID)
}

// Identity returns the token identity for the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicateEmail if the email
	// (case-insensitive) is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update saves name, email, password hash and status.
	// The owned-posts list is not touched.
	Update(ctx context.Context, user *User) error

	// AddPost appends postID to the user's owned posts unless already present.
	AddPost(ctx context.Context, userID, postID ulid.ULID) error

	// RemovePost removes postID from the user's owned posts.
	RemovePost(ctx context.Context, userID, postID ulid.ULID) error
}
