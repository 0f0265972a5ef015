// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"net/http"
	"time"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "PUT /auth/signup", s.handleSignup)
	s.handle(mux, "POST /auth/login", s.handleLogin)
	s.handle(mux, "GET /auth/status", s.handleGetStatus)
	s.handle(mux, "PATCH /auth/status", s.handleUpdateStatus)

	s.handle(mux, "GET /feed/posts", s.handleListPosts)
	s.handle(mux, "POST /feed/post", s.handleCreatePost)
	s.handle(mux, "GET /feed/post/{postId}", s.handleGetPost)
	s.handle(mux, "PUT /feed/post/{postId}", s.handleUpdatePost)
	s.handle(mux, "DELETE /feed/post/{postId}", s.handleDeletePost)
	s.handle(mux, "GET /feed/events", s.handleEvents)

	if s.images != nil {
		s.handle(mux, "PUT /post-image", s.handleUploadImage)
		mux.Handle("GET /images/", s.images.Handler())
	}

	var h http.Handler = mux
	h = s.authenticate(h)
	h = s.cors.middleware(h)
	h = s.recoverPanics(h)
	h = s.requestID(h)
	return h
}

// handle registers h and records its outcome under pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		if s.observer != nil {
			s.observer.ObserveRequest(route, rec.status, elapsed)
		}
		s.logger.DebugContext(r.Context(), "request handled",
			"route", route,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}
