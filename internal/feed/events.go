// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

// Action names the mutation an Event reports.
type Action string

// Event actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is published after a successful mutation. Create and update carry
// the post; delete carries only the post id.
type Event struct {
	Action Action
	Post   *Post
	PostID ulid.ULID
}

// Publisher fans events out to subscribers. Publish must not block.
type Publisher interface {
	Publish(ev Event)
}

// MarshalJSON renders {"action": ..., "post": ...} where post is the post
// object, or the id string for deletes.
func (e Event) MarshalJSON() ([]byte, error) {
	var post any = e.Post
	if e.Action == ActionDelete || e.Post == nil {
		post = e.PostID.String()
	}
	return json.Marshal(struct {
		Action Action `json:"action"`
		Post   any    `json:"post"`
	}{Action: e.Action, Post: post})
}
