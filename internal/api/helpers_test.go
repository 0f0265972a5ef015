// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/internal/api"
	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/blob"
	"github.com/feedline/feedline/internal/feed"
	"github.com/feedline/feedline/internal/hub"
	"github.com/feedline/feedline/internal/store/memory"
)

// observedRequest is one ObserveRequest call.
type observedRequest struct {
	route  string
	status int
}

type requestLog struct {
	mu   sync.Mutex
	seen []observedRequest
}

func (l *requestLog) ObserveRequest(route string, status int, _ time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, observedRequest{route: route, status: status})
}

func (l *requestLog) all() []observedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]observedRequest(nil), l.seen...)
}

type fixture struct {
	cfg      api.Config
	ts       *httptest.Server
	srv      *api.Server
	hub      *hub.Hub
	requests *requestLog
}

func newFixture(t *testing.T, origins ...string) *fixture {
	t.Helper()

	users := memory.NewUsers()
	posts := memory.NewPosts()
	h := hub.New()

	tokens, err := auth.NewTokenService([]byte("api-test-signing-key-0123456789"), time.Hour)
	require.NoError(t, err)
	guard, err := auth.NewGuard(tokens, nil)
	require.NoError(t, err)
	accounts, err := auth.NewService(users, auth.NewArgon2idHasher(), tokens, nil)
	require.NoError(t, err)
	images, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	svc, err := feed.NewService(feed.ServiceConfig{Posts: posts, Users: users, Blobs: images, Publisher: h})
	require.NoError(t, err)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	requests := &requestLog{}
	cfg := api.Config{
		Accounts:    accounts,
		Feed:        svc,
		Guard:       guard,
		Events:      h,
		Images:      images,
		Observer:    requests,
		CORSOrigins: origins,
		Heartbeat:   50 * time.Millisecond,
	}
	srv, err := api.NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		h.Close()
		ts.Close()
	})
	return &fixture{cfg: cfg, ts: ts, srv: srv, hub: h, requests: requests}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, f.ts.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return f.send(t, req)
}

func (f *fixture) send(t *testing.T, req *http.Request) response {
	t.Helper()

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, header: resp.Header}
	if len(bytes.TrimSpace(raw)) > 0 && resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(raw, &out.body), "body: %s", raw)
	}
	return out
}

// signupAndLogin creates an account and returns its token and user id.
func (f *fixture) signupAndLogin(t *testing.T, email, name string) (string, string) {
	t.Helper()

	resp := f.do(t, http.MethodPut, "/auth/signup", "", map[string]string{
		"email": email, "name": name, "password": "abcdefgh",
	})
	require.Equal(t, http.StatusCreated, resp.status, "signup: %v", resp.body)

	resp = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "abcdefgh",
	})
	require.Equal(t, http.StatusOK, resp.status, "login: %v", resp.body)
	return resp.body["token"].(string), resp.body["userId"].(string)
}

func (f *fixture) createPost(t *testing.T, token, title string) map[string]any {
	t.Helper()

	resp := f.do(t, http.MethodPost, "/feed/post", token, map[string]string{
		"title": title, "content": "Some content here",
	})
	require.Equal(t, http.StatusCreated, resp.status, "create: %v", resp.body)
	return resp.body["post"].(map[string]any)
}
