// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"net/http"
	"strings"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/fault"
	"github.com/feedline/feedline/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b) //nolint:wrapcheck // passthrough
}

// Unwrap lets http.ResponseController reach the Flusher underneath.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestID accepts a caller-supplied id or assigns a new one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(v)
				}
				err := oops.Code("API_PANIC").With("path", r.URL.Path).Errorf("panic: %v", v)
				s.writeError(w, r, fault.Internal("", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticate attaches the caller's auth context. It never rejects a
// request; operations decide whether they need an identity.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := s.guard.Authenticate(r.Context(), r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(auth.WithAuthContext(r.Context(), ac)))
	})
}

// corsPolicy allows origins matching any of its glob patterns.
type corsPolicy struct {
	patterns []glob.Glob
	anyOrig  bool
}

func newCORSPolicy(origins []string) (*corsPolicy, error) {
	p := &corsPolicy{}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			p.anyOrig = true
			continue
		}
		g, err := glob.Compile(origin)
		if err != nil {
			return nil, oops.Code("API_INVALID_CORS").With("origin", origin).Wrap(err)
		}
		p.patterns = append(p.patterns, g)
	}
	return p, nil
}

func (p *corsPolicy) allowed(origin string) bool {
	for _, g := range p.patterns {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// middleware sets CORS headers and answers preflight requests with 200.
func (p *corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		switch {
		case p.anyOrig:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && p.allowed(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "OPTIONS, GET, POST, PUT, PATCH, DELETE")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
