package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/handler"
	"github.com/noah-isme/taskhive-api/internal/repository"
	"github.com/noah-isme/taskhive-api/internal/router"
	"github.com/noah-isme/taskhive-api/internal/service"
	"github.com/noah-isme/taskhive-api/internal/ws"
	"github.com/noah-isme/taskhive-api/pkg/cache"
	"github.com/noah-isme/taskhive-api/pkg/captcha"
	"github.com/noah-isme/taskhive-api/pkg/config"
	"github.com/noah-isme/taskhive-api/pkg/cookies"
	"github.com/noah-isme/taskhive-api/pkg/database"
	"github.com/noah-isme/taskhive-api/pkg/jobs"
	"github.com/noah-isme/taskhive-api/pkg/logger"
	"github.com/noah-isme/taskhive-api/pkg/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	// The list cache is optional; the API runs fine without Redis.
	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, list cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Cache.TTL, logr, true)
		}
	}
	if cacheSvc == nil {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	mailer := mail.New(cfg.SMTP, cfg.FrontendURL, logr)

	// Verification mail goes through a worker queue so signup latency does
	// not include the SMTP round trip. Reset mail stays synchronous because
	// its failure must reach the caller.
	mailQueue := jobs.NewQueue("verification-mail", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(verificationMailJob)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return mailer.SendVerificationEmail(payload.Email, payload.Token)
	}, jobs.QueueConfig{
		Workers:    2,
		BufferSize: 64,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	hub := ws.NewHub(logr, metrics)
	go hub.Run(ctx)

	tokenSvc := service.NewTokenService(tokenRepo, userRepo, logr, cfg.JWT)
	authSvc := service.NewAuthService(userRepo, tokenSvc, &queuedVerificationMailer{queue: mailQueue}, captcha.New(cfg.Captcha), nil, logr)
	resetSvc := service.NewPasswordResetService(userRepo, tokenSvc, mailer, nil, logr)
	folderSvc := service.NewFolderService(folderRepo, userRepo, cacheSvc, hub, cfg.Quota, nil, logr)
	taskSvc := service.NewTaskService(taskRepo, userRepo, hub, nil, logr)
	cleanupSvc := service.NewCleanupService(tokenRepo, userRepo, metrics, logr, cfg.Cleanup)
	cleanupSvc.Start(ctx)

	cookieManager := cookies.NewManager(cfg.Env == config.EnvProduction)

	engine := router.New(router.Dependencies{
		Config:       cfg,
		Logger:       logr,
		Auth:         handler.NewAuthHandler(authSvc, tokenSvc, cookieManager),
		Password:     handler.NewPasswordHandler(resetSvc),
		Folders:      handler.NewFolderHandler(folderSvc),
		Tasks:        handler.NewTaskHandler(taskSvc),
		WS:           handler.NewWSHandler(hub, logr),
		Health:       handler.NewHealthHandler(db),
		Tokens:       tokenSvc,
		Users:        authSvc,
		Metrics:      metrics,
		FolderOwners: folderRepo,
		TaskOwners:   taskRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type verificationMailJob struct {
	Email string
	Token string
}

// queuedVerificationMailer defers verification mail to the worker queue.
type queuedVerificationMailer struct {
	queue *jobs.Queue
}

func (m *queuedVerificationMailer) SendVerificationEmail(email, token string) error {
	return m.queue.Enqueue(jobs.Job{
		Type:    "verification-email",
		Payload: verificationMailJob{Email: email, Token: token},
	})
}
