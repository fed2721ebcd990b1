package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/projecthub/backend/api/handler"
	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/internal/infrastructure/monitor"
	"github.com/projecthub/backend/internal/infrastructure/outbox"
	pgInfra "github.com/projecthub/backend/internal/infrastructure/postgres"
	redisInfra "github.com/projecthub/backend/internal/infrastructure/redis"
	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/router"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/internal/services/lifecycle"
	"github.com/projecthub/backend/pkg/httpcontext"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/repository/postgres"
	redisRepo "github.com/projecthub/backend/repository/redis"
	authUC "github.com/projecthub/backend/usecase/auth"
	invitationUC "github.com/projecthub/backend/usecase/invitation"
	projectUC "github.com/projecthub/backend/usecase/project"
	taskUC "github.com/projecthub/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, cfg.AppName, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open mail outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, 30*24*time.Hour)

	smtpSender := services.NewSMTPSender(
		cfg.Mail.Host,
		cfg.Mail.Port,
		cfg.Mail.Username,
		cfg.Mail.Password,
		cfg.Mail.From,
	)
	mailer := services.NewMailer(outboxStore, smtpSender, mon, zapLogger, services.MailerConfig{
		Interval:   cfg.Outbox.SyncInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetry,
		Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
	})
	mailer.Start()
	manager.Register("mailer", func(ctx context.Context) error {
		mailer.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, mailer, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, zapLogger)
	projectUseCase := projectUC.New(projectRepo, userRepo, zapLogger)
	invitationUseCase := invitationUC.New(invitationRepo, projectRepo, userRepo, mailer, cfg.Invite.Expiry, zapLogger)
	taskUseCase := taskUC.New(taskRepo, commentRepo, projectRepo, userRepo, zapLogger)

	sweeper := services.NewInvitationSweeper(invitationUseCase, cfg.Invite.SweepInterval, zapLogger)
	sweeper.Start()
	manager.Register("invitation_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:       apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Project:    apiHandler.NewProjectHandler(projectUseCase, ctxAdapter, zapLogger),
		Invitation: apiHandler.NewInvitationHandler(invitationUseCase, ctxAdapter, zapLogger),
		Task:       apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
