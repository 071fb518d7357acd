// Package server wires configuration, the signing service, shared state and background
// jobs into the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisprometheus/v9"
	"github.com/redis/go-redis/v9"

	"cryptoforge/internal/config"
	"cryptoforge/internal/data"
	"cryptoforge/internal/distributed"
	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/jobs"
	"cryptoforge/internal/metrics"
	"cryptoforge/internal/middlewares"
	"cryptoforge/internal/ratelimit"
	"cryptoforge/internal/secrets"
	"cryptoforge/internal/signing"
)

type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	appCtx      *middlewares.AppContext
	httpServer  *http.Server
	debugServer *http.Server
	vault       *secrets.VaultRetriever
	election    *distributed.Election
	jobManager  *jobs.JobManager
	redis       []*redis.Client
	cancel      context.CancelFunc
}

func New(cfg *config.Config) (*Server, error) {
	logger := setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:    cfg,
		logger: logger,
		cancel: cancel,
	}

	vault, err := secrets.NewVaultRetriever(cfg.Vault, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to set up secret retriever: %w", err)
	}
	s.vault = vault

	var pendingClient data.RedisPendingClient
	if cfg.Pending.Store == "redis" {
		pendingClient = s.redisClient(cfg.Redis.PendingIndex, "pending")
	}
	pending, err := data.NewPendingStore(cfg, pendingClient, logger)
	if err != nil {
		s.closeRedis()
		cancel()
		return nil, fmt.Errorf("failed to set up pending store: %w", err)
	}

	enc, err := enrollment.ParseEncoding(cfg.Enrollment.DefaultEncoding)
	if err != nil {
		s.closeRedis()
		cancel()
		return nil, err
	}

	signer := signing.NewService(signing.Options{
		Retriever:             vault,
		Lister:                vault,
		NewClient:             signing.NewClientFactory(cfg.Enrollment, logger),
		Pending:               pending,
		Templates:             cfg.Enrollment.Templates,
		DefaultPath:           cfg.Vault.DefaultPath,
		DefaultTemplate:       cfg.Enrollment.DefaultTemplate,
		DefaultEncoding:       enc,
		Logger:                logger.With("component", "signing"),
		AllowedServers:        cfg.Enrollment.AllowedServers,
		AllowedSecretPrefixes: cfg.Vault.AllowedPathPrefixes,
	})

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		var store ratelimit.Store
		if cfg.RateLimit.Store == "redis" {
			store = ratelimit.NewRedisStore(s.redisClient(cfg.Redis.RateLimitIndex, "ratelimit"))
		} else {
			store = ratelimit.NewMemoryStore()
		}
		limiter = ratelimit.NewLimiter(store, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Window)
	}

	var elector jobs.LeaderElector
	checkEvery := config.DefaultDistributedConfig.TTL / 3
	if cfg.Distributed != nil && cfg.Distributed.Enabled {
		hostname := os.Getenv("HOSTNAME")
		if hostname == "" {
			hostname = uuid.New().String()
		}
		s.election = distributed.NewElection(s.redisClient(cfg.Redis.LeaderIndex, "election"), hostname, cfg.Distributed.TTL, logger)
		elector = s.election
		checkEvery = s.election.TTL / 3
	}

	s.jobManager = jobs.NewJobManager(elector, checkEvery, logger)
	if cfg.Pending.PollEnabled {
		s.jobManager.Register(jobs.NewPendingPollJob(signer, cfg.Pending.PollInterval, logger))
	}
	if limiter != nil {
		if sweeper, ok := limiter.Store().(ratelimit.Sweeper); ok {
			s.jobManager.Register(jobs.NewRateLimitSweepJob(sweeper, cfg.RateLimit.SweepInterval, logger))
		}
	}

	s.appCtx = middlewares.NewAppContext(ctx, cfg, logger, signer, limiter)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           setupRouter(s.appCtx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.Debug != nil && cfg.Server.Debug.Enabled {
		s.debugServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Debug.Host, cfg.Server.Debug.Port),
			Handler:           setupDebugRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

// redisClient opens a client on the given database index. Each concern gets its own index.
func (s *Server) redisClient(db int, name string) *redis.Client {
	cfg := s.cfg.Redis

	var client *redis.Client
	if cfg.Sentinel != nil {
		s.logger.Info("connecting to redis via sentinel",
			"master", cfg.Sentinel.MasterName,
			"sentinels", cfg.Sentinel.SentinelAddresses,
			"purpose", name)

		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.Sentinel.MasterName,
			SentinelAddrs:    cfg.Sentinel.SentinelAddresses,
			SentinelUsername: cfg.Sentinel.SentinelUsername,
			SentinelPassword: cfg.Sentinel.SentinelPassword,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               db,
			MinIdleConns:     2,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Address,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           db,
			MinIdleConns: 2,
		})
	}

	if s.cfg.Server.Debug != nil && s.cfg.Server.Debug.Enabled {
		collector := redisprometheus.NewCollector(metrics.Namespace, name, client)
		if err := prometheus.Register(collector); err != nil {
			s.logger.Debug("failed to register redis collector", "purpose", name, "error", err)
		}
	}

	s.redis = append(s.redis, client)
	return client
}

func (s *Server) closeRedis() {
	for _, client := range s.redis {
		if err := client.Close(); err != nil {
			s.logger.Warn("failed to close redis client", "error", err)
		}
	}
}

func (s *Server) Start() error {
	ctx := s.appCtx.Context

	checkCtx, checkCancel := context.WithTimeout(ctx, s.cfg.Vault.Timeout)
	if ok, err := s.vault.IsAuthenticated(checkCtx); err != nil {
		s.logger.Warn("could not verify vault token", "error", err)
	} else if !ok {
		s.logger.Warn("vault token was rejected, signing requests will fail until it is replaced")
	}
	checkCancel()

	if s.election != nil {
		go s.election.Start(ctx)
	}

	s.jobManager.Start(ctx)

	go func() {
		if s.election != nil {
			s.logger.Info("server started", "port", s.cfg.Server.Port, "instance", s.election.InstanceID)
		} else {
			s.logger.Info("server started", "port", s.cfg.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server failed to start", "error", err)
			s.cancel()
		}
	}()

	if s.debugServer != nil {
		go func() {
			s.logger.Info("debug server starting", "address", s.debugServer.Addr)
			if err := s.debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("debug server failed to start", "error", err)
				s.cancel()
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		s.logger.Info("shutdown signal received")
	case <-ctx.Done():
		s.logger.Info("context canceled")
	}

	s.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info("shutting down server")

	s.jobManager.Shutdown(shutdownCtx)

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server forced to shutdown", "error", err)
		return err
	}

	if s.debugServer != nil {
		if err := s.debugServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("debug server forced to shutdown", "error", err)
		}
	}

	s.closeRedis()

	s.logger.Info("server exited")
	return nil
}
