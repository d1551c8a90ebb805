package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nightreel/cineclub-api/api/swagger"
	"github.com/nightreel/cineclub-api/internal/handler"
	"github.com/nightreel/cineclub-api/internal/mail"
	"github.com/nightreel/cineclub-api/internal/metadata"
	"github.com/nightreel/cineclub-api/internal/realtime"
	"github.com/nightreel/cineclub-api/internal/repository"
	"github.com/nightreel/cineclub-api/internal/router"
	"github.com/nightreel/cineclub-api/internal/scheduler"
	"github.com/nightreel/cineclub-api/internal/service"
	"github.com/nightreel/cineclub-api/pkg/cache"
	"github.com/nightreel/cineclub-api/pkg/config"
	"github.com/nightreel/cineclub-api/pkg/database"
	"github.com/nightreel/cineclub-api/pkg/logger"
	"github.com/nightreel/cineclub-api/pkg/storage"
)

// @title CineClub API
// @version 1.0.0
// @description Private film club: weekly rotation, suggestions, discussion and realtime channels
// @BasePath /v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
		}
	}

	filmRepo := repository.NewFilmRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	userRepo := repository.NewUserRepository(db)

	hub := realtime.NewHub(cfg.Realtime.SendBuffer, logr, metrics)

	metaClient := metadata.NewClient(cfg.Metadata)
	mailer := mail.NewSMTPMailer(cfg.Mail, logr)

	recapStore, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init recap store", "error", err)
	}
	recapSigner := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Storage.LinkTTL)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, nil, logr, nil)
	filmSvc := service.NewFilmService(filmRepo, interactionRepo, discussionRepo, metaClient, cacheSvc, recapStore, recapSigner, nil, logr)
	rotationSvc := service.NewRotationService(filmRepo, cacheSvc, logr, nil)
	suggestionSvc := service.NewSuggestionService(suggestionRepo, nil, logr, nil)
	interactionSvc := service.NewInteractionService(interactionRepo, filmRepo, hub, nil, logr)
	discussionSvc := service.NewDiscussionService(discussionRepo, filmRepo, hub, nil, logr)
	inviteSvc := service.NewInviteService(inviteRepo, userRepo, mailer, cfg.Invites, nil, logr, nil)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	inviteSvc.Start(rootCtx)
	defer inviteSvc.Stop()

	sessionCfg := realtime.SessionConfig{
		WriteTimeout:     cfg.Realtime.WriteTimeout,
		PingInterval:     cfg.Realtime.PingInterval,
		PongTimeout:      cfg.Realtime.PongTimeout,
		SubscribeTimeout: cfg.Realtime.SubscribeTimeout,
		MaxMessageSize:   cfg.Realtime.MaxMessageSize,
	}

	engine := router.New(router.Deps{
		Config:       cfg,
		Logger:       logr,
		Metrics:      metrics,
		Auth:         handler.NewAuthHandler(authSvc),
		Films:        handler.NewFilmHandler(filmSvc, rotationSvc),
		Suggestions:  handler.NewSuggestionHandler(suggestionSvc),
		Interactions: handler.NewInteractionHandler(interactionSvc),
		Discussions:  handler.NewDiscussionHandler(discussionSvc),
		Invites:      handler.NewInviteHandler(inviteSvc),
		Realtime:     handler.NewRealtimeHandler(hub, filmSvc, sessionCfg, logr),
		MetricsH:     handler.NewMetricsHandler(metrics),
		AuthService:  authSvc,
	})

	cronJobs := scheduler.New(rotationSvc, recapStore, cfg.Storage.Retention, cfg.Rotation, logr)
	if err := cronJobs.Start(); err != nil {
		logr.Sugar().Fatalw("failed to start scheduler", "error", err)
	}
	defer cronJobs.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
