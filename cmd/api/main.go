package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civita-labs/civic-report/internal/api/http"
	"github.com/civita-labs/civic-report/internal/api/http/handlers"
	"github.com/civita-labs/civic-report/internal/auth"
	"github.com/civita-labs/civic-report/internal/billing"
	"github.com/civita-labs/civic-report/internal/config"
	"github.com/civita-labs/civic-report/internal/events"
	"github.com/civita-labs/civic-report/internal/observability"
	"github.com/civita-labs/civic-report/internal/persistence"
	"github.com/civita-labs/civic-report/internal/repository"
	"github.com/civita-labs/civic-report/internal/service"
	"github.com/civita-labs/civic-report/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, userRepo)
	identityGate := auth.NewIdentityGate(authService.TokenManager(), userRepo)

	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    issueRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
		Redis:        redis,
		QuotaLimit:   cfg.Quota.FreeIssueLimit,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
		Redis:        redis,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:     userRepo,
		IssueRepo:    issueRepo,
		TimelineRepo: timelineRepo,
		Redis:        redis,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo:  paymentRepo,
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Provider:     billing.NewClient(cfg.Billing.APIBase, cfg.Billing.SecretKey),
		Dispatcher:   dispatcher,
		Redis:        redis,
		Billing:      cfg.Billing,
		SiteBaseURL:  cfg.App.SiteBaseURL,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:        handlers.NewUsersHandler(authService),
		Issues:       handlers.NewIssuesHandler(issueService),
		Staff:        handlers.NewStaffHandler(lifecycleService),
		Admin:        handlers.NewAdminHandler(userService, lifecycleService, issueService, paymentService),
		Payments:     handlers.NewPaymentsHandler(paymentService),
		IdentityGate: identityGate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
