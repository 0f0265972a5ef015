// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"net/http"
	"strconv"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/feed"
)

type listPostsResponse struct {
	Message    string       `json:"message"`
	Posts      []*feed.Post `json:"posts"`
	TotalItems int          `json:"totalItems"`
}

type createPostResponse struct {
	Message string       `json:"message"`
	Post    *feed.Post   `json:"post"`
	Creator feed.Creator `json:"creator"`
}

type postResponse struct {
	Message string     `json:"message"`
	Post    *feed.Post `json:"post"`
}

// pageParam returns the page query parameter; missing or unparsable
// values mean the first page.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := s.feed.ListPosts(r.Context(), auth.AuthContextFrom(r.Context()), pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	posts := page.Items
	if posts == nil {
		posts = []*feed.Post{}
	}
	s.writeJSON(w, r, http.StatusOK, listPostsResponse{
		Message:    "Fetched posts successfully.",
		Posts:      posts,
		TotalItems: page.Total,
	})
}

// postInput decodes the body after checking the caller is authenticated,
// so anonymous requests fail the same way whatever they send.
func (s *Server) postInput(w http.ResponseWriter, r *http.Request) (auth.AuthContext, feed.PostInput, bool) {
	ac := auth.AuthContextFrom(r.Context())
	var in feed.PostInput
	if err := auth.RequireAuthenticated(ac); err != nil {
		s.writeError(w, r, err)
		return ac, in, false
	}
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return ac, in, false
	}
	return ac, in, true
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ac, in, ok := s.postInput(w, r)
	if !ok {
		return
	}

	post, err := s.feed.CreatePost(r.Context(), ac, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, createPostResponse{
		Message: "Post created successfully!",
		Post:    post,
		Creator: post.Creator,
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.feed.GetPost(r.Context(), auth.AuthContextFrom(r.Context()), r.PathValue("postId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, postResponse{Message: "Post fetched.", Post: post})
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	ac, in, ok := s.postInput(w, r)
	if !ok {
		return
	}

	post, err := s.feed.UpdatePost(r.Context(), ac, r.PathValue("postId"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, postResponse{Message: "Post updated!", Post: post})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.feed.DeletePost(r.Context(), auth.AuthContextFrom(r.Context()), r.PathValue("postId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"message": "Deleted post."})
}
