// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/internal/feed"
)

func TestEvent_MarshalJSON(t *testing.T) {
	post := &feed.Post{
		ID:        ulid.Make(),
		Title:     "Hello World",
		Content:   "This is content",
		Creator:   feed.Creator{ID: ulid.Make(), Name: "Ada"},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("create carries the post", func(t *testing.T) {
		raw, err := json.Marshal(feed.Event{Action: feed.ActionCreate, Post: post, PostID: post.ID})
		require.NoError(t, err)

		var got struct {
			Action string         `json:"action"`
			Post   map[string]any `json:"post"`
		}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "create", got.Action)
		assert.Equal(t, post.ID.String(), got.Post["_id"])
		assert.Equal(t, "Hello World", got.Post["title"])
		assert.Equal(t, map[string]any{"_id": post.Creator.ID.String(), "name": "Ada"}, got.Post["creator"])
	})

	t.Run("delete carries the id", func(t *testing.T) {
		raw, err := json.Marshal(feed.Event{Action: feed.ActionDelete, PostID: post.ID})
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"delete","post":"`+post.ID.String()+`"}`, string(raw))
	})
}
