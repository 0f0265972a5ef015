// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package api exposes the account and feed services over HTTP, plus a
// Server-Sent Events stream of post changes.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/feed"
	"github.com/feedline/feedline/internal/hub"
)

// DefaultHeartbeat is the interval between SSE keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

// DefaultMaxUpload caps multipart image uploads.
const DefaultMaxUpload = 10 << 20

// Accounts is the account service used by the auth routes.
type Accounts interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Status(ctx context.Context, ac auth.AuthContext) (string, error)
	UpdateStatus(ctx context.Context, ac auth.AuthContext, status string) error
}

// Feed is the post service used by the feed routes.
type Feed interface {
	CreatePost(ctx context.Context, ac auth.AuthContext, in feed.PostInput) (*feed.Post, error)
	UpdatePost(ctx context.Context, ac auth.AuthContext, postID string, in feed.PostInput) (*feed.Post, error)
	DeletePost(ctx context.Context, ac auth.AuthContext, postID string) error
	GetPost(ctx context.Context, ac auth.AuthContext, postID string) (*feed.Post, error)
	ListPosts(ctx context.Context, ac auth.AuthContext, page int) (*feed.Page, error)
}

// Authenticator resolves the Authorization header into an auth context.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) auth.AuthContext
}

// Events is the subscriber side of the fan-out hub.
type Events interface {
	Subscribe() *hub.Subscription
	Unsubscribe(sub *hub.Subscription)
}

// Images stores uploaded images.
type Images interface {
	Put(ctx context.Context, owner ulid.ULID, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	Handler() http.Handler
}

// RequestObserver records finished requests.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// Config wires a Server. Images and Observer are optional.
type Config struct {
	Addr        string
	Accounts    Accounts
	Feed        Feed
	Guard       Authenticator
	Events      Events
	Images      Images
	Observer    RequestObserver
	CORSOrigins []string
	Heartbeat   time.Duration
	MaxUpload   int64
	Logger      *slog.Logger
}

// Server serves the HTTP API.
type Server struct {
	addr       string
	accounts   Accounts
	feed       Feed
	guard      Authenticator
	events     Events
	images     Images
	observer   RequestObserver
	cors       *corsPolicy
	heartbeat  time.Duration
	maxUpload  int64
	logger     *slog.Logger
	handler    http.Handler
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
	closing    chan struct{}
	closeOnce  sync.Once
}

// NewServer validates cfg and builds the routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Accounts == nil {
		return nil, oops.Code("API_INVALID_CONFIG").Errorf("account service is required")
	}
	if cfg.Feed == nil {
		return nil, oops.Code("API_INVALID_CONFIG").Errorf("feed service is required")
	}
	if cfg.Guard == nil {
		return nil, oops.Code("API_INVALID_CONFIG").Errorf("guard is required")
	}
	if cfg.Events == nil {
		return nil, oops.Code("API_INVALID_CONFIG").Errorf("event hub is required")
	}

	cors, err := newCORSPolicy(cfg.CORSOrigins)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:      cfg.Addr,
		accounts:  cfg.Accounts,
		feed:      cfg.Feed,
		guard:     cfg.Guard,
		events:    cfg.Events,
		images:    cfg.Images,
		observer:  cfg.Observer,
		cors:      cors,
		heartbeat: cfg.Heartbeat,
		maxUpload: cfg.MaxUpload,
		logger:    cfg.Logger,
		closing:   make(chan struct{}),
	}
	if s.heartbeat <= 0 {
		s.heartbeat = DefaultHeartbeat
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUpload
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving the API.
// The returned channel receives any error from the HTTP server after it
// starts and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	// No WriteTimeout: event streams stay open.
	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop ends open event streams and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })

	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Running reports whether the server is accepting requests.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Addr returns the address the server is listening on, or "" if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
