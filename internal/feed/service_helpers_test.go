// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed_test

import (
	"context"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/feed"
	"github.com/feedline/feedline/internal/store/memory"
)

// recorder is a feed.Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []feed.Event
}

func (r *recorder) Publish(ev feed.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []feed.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feed.Event(nil), r.events...)
}

type fixture struct {
	users *memory.Users
	posts *memory.Posts
	pub   *recorder
	svc   *feed.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users: memory.NewUsers(),
		posts: memory.NewPosts(),
		pub:   &recorder{},
	}
	svc, err := feed.NewService(feed.ServiceConfig{
		Posts:     f.posts,
		Users:     f.users,
		Publisher: f.pub,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

// user stores a user directly and returns an authenticated context for it.
func (f *fixture) user(t *testing.T, name string) auth.AuthContext {
	t.Helper()
	u := &auth.User{
		ID:           ulid.Make(),
		Email:        name + "@example.com",
		Name:         name,
		PasswordHash: "unused",
		Status:       auth.DefaultStatus,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return auth.Authenticated(u.Identity())
}

func (f *fixture) ownedPosts(t *testing.T, ac auth.AuthContext) []ulid.ULID {
	t.Helper()
	id, ok := ac.Identity()
	require.True(t, ok)
	u, err := f.users.GetByID(context.Background(), id.ID)
	require.NoError(t, err)
	return u.Posts
}

func validInput() feed.PostInput {
	return feed.PostInput{Title: "Hello World", Content: "This is content"}
}

// imageOf returns a well-formed image reference uploaded by ac's user.
func imageOf(t *testing.T, ac auth.AuthContext, name string) string {
	t.Helper()
	id, ok := ac.Identity()
	require.True(t, ok)
	return "images/" + id.ID.String() + "/" + name
}
