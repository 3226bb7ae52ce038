package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/PowerLink/config"
	appmodel "github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	appserver "github.com/sifan077/PowerLink/internal/app/server"
	"github.com/sifan077/PowerLink/internal/app/service"
	inthttp "github.com/sifan077/PowerLink/internal/http/handler"
	httpUtil "github.com/sifan077/PowerLink/internal/http/util"
	"github.com/sifan077/PowerLink/internal/infra/backend"
	"github.com/sifan077/PowerLink/internal/infra/logger"
	infraNATS "github.com/sifan077/PowerLink/internal/infra/nats"
	infraPostgres "github.com/sifan077/PowerLink/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/PowerLink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/PowerLink/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logCfg := logger.FromEnv("powerlink")
	log := logger.Must(logCfg)
	defer func() { _ = logger.Sync(log) }()

	if err := run(log, logCfg.Development); err != nil {
		log.Fatal("PowerLink exited", zap.Error(err))
	}
}

func run(log *zap.Logger, isDev bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Info("Configuration loaded successfully",
		zap.String("backend_url", cfg.Backend.BaseURL),
		zap.String("public_base_url", cfg.Server.PublicBaseURL),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
	)

	// click storage
	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("access underlying SQL DB: %w", err)
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.ClickEvent{}); err != nil {
		return err
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS, log)
	if err != nil {
		return err
	}
	defer natsConn.Drain()

	if err := service.EnsureStream(js); err != nil {
		return fmt.Errorf("ensure click stream: %w", err)
	}
	consumer := service.NewClickConsumer(js, log.Named("clicks"), apprepository.NewClickEventRepository(gormDB))
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start click consumer: %w", err)
	}
	log.Info("Connected to NATS successfully", zap.String("stream", appmodel.ClickStreamName))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	client, err := backend.New(cfg.Backend, log.Named("backend"))
	if err != nil {
		return err
	}

	sessions := apprepository.NewSessionRepository(redisClient)
	notifications := apprepository.NewNotificationRepository(redisClient)

	workspaces := service.NewWorkspaces(
		func(token string) service.Account { return client.WithToken(token) },
		notifications,
		service.WorkspaceOptions{
			Manager: service.ManagerOptions{
				Logger:               log.Named("links"),
				ReconcileConcurrency: cfg.Links.ReconcileConcurrency,
				MaxUploadBytes:       cfg.Links.MaxUploadBytes,
			},
			IdleTTL:         cfg.Links.WorkspaceIdleTTL,
			NotificationTTL: cfg.Server.SessionTTL,
		},
		log.Named("workspaces"),
	)
	workspaces.Start()
	defer workspaces.Stop()

	tokens := httpUtil.NewTokenSigner([]byte(cfg.Server.SessionSecret), cfg.Server.SessionTTL)

	server := appserver.New(appserver.Dependencies{
		Config:        cfg,
		Logger:        log,
		Redis:         redisClient,
		Tokens:        tokens,
		Auth:          service.NewAuthService(client, sessions, notifications, workspaces, cfg.Server.SessionTTL, log),
		Users:         service.NewUserService(workspaces, cfg.Server.PublicBaseURL, cfg.Backend.StorageURL, cfg.Links.MaxUploadBytes, log),
		Profiles:      service.NewProfileService(client, cfg.Backend.StorageURL, log),
		Workspaces:    workspaces,
		Notifications: notifications,
		ClickStats:    apprepository.NewClickStatsRepository(pool),
		ClickPublisher: service.NewClickPublisher(js,
			service.NewClickDeduper(cfg.Clicks.DedupCapacity, cfg.Clicks.DedupWindow)),
		Checks: map[string]inthttp.ReadinessCheck{
			"postgres": pool.Ping,
			"redis":    infraRedis.Ping(redisClient),
			"nats": func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			},
		},
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("Starting PowerLink", zap.String("addr", addr))
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber server exited: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
