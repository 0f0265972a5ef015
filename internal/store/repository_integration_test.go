// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/feed"
	"github.com/feedline/feedline/internal/store"
)

// setupPostgres starts a PostgreSQL container and applies all migrations.
func setupPostgres() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("feedline_test"),
		postgres.WithUsername("feedline"),
		postgres.WithPassword("feedline"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, connStr, store.ConnectOptions{Retries: 3, Backoff: 100 * time.Millisecond})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

func newUser(email string) *auth.User {
	return &auth.User{
		ID:           ulid.Make(),
		Email:        email,
		Name:         "Someone",
		PasswordHash: "hash",
		Status:       auth.DefaultStatus,
	}
}

var _ = Describe("PostgreSQL repositories", func() {
	var (
		ctx     context.Context
		cleanup func()
		users   *store.UserRepository
		posts   *store.PostRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		pool, c, err := setupPostgres()
		Expect(err).NotTo(HaveOccurred())
		cleanup = c
		users = store.NewUserRepository(pool)
		posts = store.NewPostRepository(pool)
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("UserRepository", func() {
		It("creates and reads back a user", func() {
			u := newUser("ada@example.com")
			Expect(users.Create(ctx, u)).To(Succeed())
			Expect(u.CreatedAt).NotTo(BeZero())

			got, err := users.GetByEmail(ctx, "ADA@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(u.ID))
			Expect(got.Status).To(Equal(auth.DefaultStatus))
			Expect(got.Posts).To(BeEmpty())
		})

		It("rejects a second user with the same email in any case", func() {
			Expect(users.Create(ctx, newUser("ada@example.com"))).To(Succeed())

			err := users.Create(ctx, newUser("Ada@Example.com"))
			Expect(err).To(MatchError(auth.ErrDuplicateEmail))
		})

		It("reports unknown users", func() {
			_, err := users.GetByID(ctx, ulid.Make())
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("adds and removes owned posts without duplicates", func() {
			u := newUser("ada@example.com")
			Expect(users.Create(ctx, u)).To(Succeed())
			postID := ulid.Make()

			Expect(users.AddPost(ctx, u.ID, postID)).To(Succeed())
			Expect(users.AddPost(ctx, u.ID, postID)).To(Succeed())

			got, err := users.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Posts).To(Equal([]ulid.ULID{postID}))

			Expect(users.RemovePost(ctx, u.ID, postID)).To(Succeed())
			got, err = users.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Posts).To(BeEmpty())
		})

		It("keeps owned posts when the profile is updated", func() {
			u := newUser("ada@example.com")
			Expect(users.Create(ctx, u)).To(Succeed())
			postID := ulid.Make()
			Expect(users.AddPost(ctx, u.ID, postID)).To(Succeed())

			u.Status = "busy"
			u.Posts = nil
			Expect(users.Update(ctx, u)).To(Succeed())

			got, err := users.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal("busy"))
			Expect(got.Posts).To(Equal([]ulid.ULID{postID}))
		})

		It("fails to add a post to an unknown user", func() {
			err := users.AddPost(ctx, ulid.Make(), ulid.Make())
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("PostRepository", func() {
		var owner *auth.User

		BeforeEach(func() {
			owner = newUser("owner@example.com")
			Expect(users.Create(ctx, owner)).To(Succeed())
		})

		newPost := func(title string) *feed.Post {
			return &feed.Post{
				ID:      ulid.Make(),
				Title:   title,
				Content: "Some content",
				Creator: feed.Creator{ID: owner.ID},
			}
		}

		It("creates, updates and deletes a post", func() {
			p := newPost("First post")
			Expect(posts.Create(ctx, p)).To(Succeed())

			p.Title = "Edited post"
			p.ImageRef = "images/x.png"
			Expect(posts.Update(ctx, p)).To(Succeed())
			Expect(p.UpdatedAt).To(BeTemporally(">=", p.CreatedAt))
			Expect(p.Creator.ID).To(Equal(owner.ID))

			got, err := posts.Get(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Edited post"))
			Expect(got.ImageRef).To(Equal("images/x.png"))

			Expect(posts.Delete(ctx, p.ID)).To(Succeed())
			_, err = posts.Get(ctx, p.ID)
			Expect(err).To(MatchError(feed.ErrNotFound))
			Expect(posts.Delete(ctx, p.ID)).To(MatchError(feed.ErrNotFound))
		})

		It("rejects posts from unknown creators", func() {
			p := newPost("Orphan post")
			p.Creator.ID = ulid.Make()
			Expect(posts.Create(ctx, p)).NotTo(Succeed())
		})

		It("lists newest first and counts all posts", func() {
			var ids []ulid.ULID
			for _, title := range []string{"Post one", "Post two", "Post three"} {
				p := newPost(title)
				Expect(posts.Create(ctx, p)).To(Succeed())
				ids = append(ids, p.ID)
				time.Sleep(2 * time.Millisecond)
			}

			n, err := posts.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))

			first, err := posts.List(ctx, 0, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(2))
			Expect(first[0].ID).To(Equal(ids[2]))
			Expect(first[1].ID).To(Equal(ids[1]))

			second, err := posts.List(ctx, 2, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(HaveLen(1))
			Expect(second[0].ID).To(Equal(ids[0]))
		})
	})
})
