package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/smallsquare/internal/cache"
	"github.com/nkiryanov/smallsquare/internal/cache/memcache"
	"github.com/nkiryanov/smallsquare/internal/cache/pgcache"
	"github.com/nkiryanov/smallsquare/internal/cache/rediscache"
	"github.com/nkiryanov/smallsquare/internal/db"
	"github.com/nkiryanov/smallsquare/internal/handlers"
	"github.com/nkiryanov/smallsquare/internal/logger"
	"github.com/nkiryanov/smallsquare/internal/mailer"
	"github.com/nkiryanov/smallsquare/internal/metrics"
	"github.com/nkiryanov/smallsquare/internal/repository/postgres"
	"github.com/nkiryanov/smallsquare/internal/service/auth"
	"github.com/nkiryanov/smallsquare/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/smallsquare/internal/service/revocation"
	"github.com/nkiryanov/smallsquare/internal/service/user"
	"github.com/nkiryanov/smallsquare/internal/service/verification"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Minute
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Background jobs running along with the server until it stops
	jobs []func(ctx context.Context) error

	// Release connections after everything is stopped
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, Logger: logger}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	cache, err := app.newCache(ctx, c, pool)
	if err != nil {
		app.close()
		return nil, err
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	m := metrics.New()
	mail := mailer.NewLogMailer(c.MailFrom, logger)
	verificationService := verification.NewService(
		verification.Config{LinkBase: c.MailLinkBase, Logger: logger},
		cache, storage, mail,
	)
	authService, err := auth.NewService(
		auth.Config{
			Hasher:               auth.BcryptHasher{Cost: c.BcryptCost},
			RequireVerifiedEmail: c.RequireVerifiedEmail,
			Logger:               logger,
			Metrics:              m,
		},
		tokenManager, storage, revocation.New(cache), verificationService,
	)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage)

	app.Handler = handlers.NewRouter(authService, userService, verificationService, m, logger)

	return app, nil
}

func (s *ServerApp) newCache(ctx context.Context, c *Config, pool *pgxpool.Pool) (cache.Cache, error) {
	s.Logger.Info("Using cache backend", "backend", c.CacheBackend)

	switch c.CacheBackend {
	case CacheRedis:
		rdb, err := rediscache.Connect(ctx, c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		return rediscache.New(rdb), nil
	case CacheMemory:
		// Entries live as long as the longest token, so nothing denylisted expires early
		return memcache.New(memcache.Config{
			MaxTTL: max(c.AccessTTL, c.RefreshTTL, verification.DefaultTTL),
		}), nil
	case CachePostgres:
		pc := pgcache.New(pool)
		s.jobs = append(s.jobs, func(ctx context.Context) error {
			return pc.RunJanitor(ctx, janitorInterval, s.Logger)
		})
		return pc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
}

// Run starts http server with background jobs and stops them gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("Starting server", "address", s.ListenAddr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Close connections when context is cancelled or any job fails
	g.Go(func() error {
		<-gCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err != nil {
			s.Logger.Error("HTTP server shutdown failed, forcing shutdown...", "error", err)
			return err
		}
		s.Logger.Info("HTTP server stopped")
		return nil
	})

	for _, job := range s.jobs {
		g.Go(func() error {
			return job(gCtx)
		})
	}

	return g.Wait()
}

func (s *ServerApp) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
