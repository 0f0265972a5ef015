// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/feedline/feedline/internal/api"
	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/blob"
	"github.com/feedline/feedline/internal/config"
	"github.com/feedline/feedline/internal/feed"
	"github.com/feedline/feedline/internal/hub"
	"github.com/feedline/feedline/internal/logging"
	"github.com/feedline/feedline/internal/observability"
	"github.com/feedline/feedline/internal/store"
	"github.com/feedline/feedline/internal/store/memory"
)

const shutdownTimeout = 5 * time.Second

// PoolFactory opens a PostgreSQL pool.
type PoolFactory func(ctx context.Context, databaseURL string, opts store.ConnectOptions) (*pgxpool.Pool, error)

// ServeDeps holds the dependencies runServeWithDeps can replace in tests.
// Zero fields use the production implementation.
type ServeDeps struct {
	Getenv          config.Getenv
	LogWriter       io.Writer
	PoolFactory     PoolFactory
	MigratorFactory MigratorFactory
	// Ready is called with the API address once both servers are listening.
	Ready           func(apiAddr string)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	if out.LogWriter == nil {
		out.LogWriter = os.Stderr
	}
	if out.PoolFactory == nil {
		out.PoolFactory = store.Connect
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = defaultMigratorFactory
	}
	return &out
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Feedline API server",
		Long: `Start the HTTP API: account signup and login, the post feed, image
uploads and the live event stream. Metrics and health probes are served
on a separate address.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// repositories groups the storage backend chosen by configuration.
type repositories struct {
	users auth.UserRepository
	posts feed.PostRepository
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config, deps *ServeDeps, logger *slog.Logger) (*repositories, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on exit")
		return &repositories{
			users: memory.NewUsers(),
			posts: memory.NewPosts(),
			close: func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := runAutoMigration(cfg.DatabaseURL, deps.MigratorFactory); err != nil {
			return nil, err
		}
	}

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL, store.ConnectOptions{
		Retries: cfg.ConnectRetries,
		Logger:  logger,
	})
	if err != nil {
		return nil, oops.With("operation", "connect to database").Wrap(err)
	}
	return &repositories{
		users: store.NewUserRepository(pool),
		posts: store.NewPostRepository(pool),
		close: pool.Close,
	}, nil
}

func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deps = deps.withDefaults()

	cfg, err := config.Load(configFile, cmd.Flags(), deps.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "feedline",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  deps.LogWriter,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	repos, err := openStorage(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	var (
		obsServer *observability.Server
		observer  api.RequestObserver
		apiServer *api.Server
	)
	hubOpts := []hub.Option{hub.WithBufferSize(cfg.EventBuffer), hub.WithLogger(logger)}
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			return apiServer != nil && apiServer.Running()
		}, logger)
		observer = obsServer.Metrics()
		hubOpts = append(hubOpts, hub.WithRecorder(obsServer.Metrics()))
	}

	events := hub.New(hubOpts...)
	defer events.Close()

	tokens, err := auth.NewTokenService([]byte(cfg.TokenSecret), ttl, auth.WithIssuer(cfg.TokenIssuer))
	if err != nil {
		return err
	}
	guard, err := auth.NewGuard(tokens, logger)
	if err != nil {
		return err
	}
	accounts, err := auth.NewService(repos.users, auth.NewArgon2idHasher(), tokens, logger)
	if err != nil {
		return err
	}
	images, err := blob.NewFS(cfg.ImageDir)
	if err != nil {
		return err
	}
	posts, err := feed.NewService(feed.ServiceConfig{
		Posts:     repos.posts,
		Users:     repos.users,
		Blobs:     images,
		Publisher: events,
		PageSize:  cfg.PageSize,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	apiServer, err = api.NewServer(api.Config{
		Addr:        cfg.HTTPAddr,
		Accounts:    accounts,
		Feed:        posts,
		Guard:       guard,
		Events:      events,
		Images:      images,
		Observer:    observer,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return oops.Code("API_START_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			stopServer(apiServer, "api")
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.MetricsAddr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	cmd.Printf("Feedline listening on %s\n", apiServer.Addr())
	if deps.Ready != nil {
		deps.Ready(apiServer.Addr())
	}

	<-ctx.Done()
	logger.Info("shutting down")

	// Closing the hub first ends open event streams.
	events.Close()
	stopServer(apiServer, "api")
	if obsServer != nil {
		stopServer(obsServer, "observability")
	}
	return nil
}

type stoppable interface {
	Stop(ctx context.Context) error
}

func stopServer(srv stoppable, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		slog.Warn("server shutdown failed", "server", name, "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error.
// It returns when an error arrives, the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
