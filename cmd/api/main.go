package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fixflow/repair-service/internal/api/http"
	"github.com/fixflow/repair-service/internal/api/http/handlers"
	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/config"
	"github.com/fixflow/repair-service/internal/events"
	"github.com/fixflow/repair-service/internal/mailer"
	"github.com/fixflow/repair-service/internal/observability"
	"github.com/fixflow/repair-service/internal/persistence"
	"github.com/fixflow/repair-service/internal/repository"
	"github.com/fixflow/repair-service/internal/service"
	"github.com/fixflow/repair-service/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	requestRepo := repository.NewRequestRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	paymentRepo := repository.NewCompletionPaymentRepository(pool)
	statusFormRepo := repository.NewStatusFormRepository(pool)

	notifier := service.NewNotificationService(notificationRepo, adminRepo, logger)
	coordinator := service.NewCoordinatorService(cfg.Assignment, service.CoordinatorDependencies{
		RequestRepo:    requestRepo,
		AssignmentRepo: assignmentRepo,
		EmployeeRepo:   employeeRepo,
		StatusFormRepo: statusFormRepo,
		Notifier:       notifier,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	sweeper := service.NewSweeperService(cfg.Assignment, service.SweeperDependencies{
		RequestRepo:    requestRepo,
		AssignmentRepo: assignmentRepo,
		EmployeeRepo:   employeeRepo,
		Notifier:       notifier,
		Dispatcher:     dispatcher,
		Locks:          redis,
		Metrics:        metrics,
		Logger:         logger,
	})
	payments := service.NewPaymentService(cfg.Assignment, service.PaymentDependencies{
		PaymentRepo:    paymentRepo,
		RequestRepo:    requestRepo,
		AssignmentRepo: assignmentRepo,
		EmployeeRepo:   employeeRepo,
		Notifier:       notifier,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	requests := service.NewRequestService(requestRepo, notifier, dispatcher)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		CustomerRepo: customerRepo,
		EmployeeRepo: employeeRepo,
		AdminRepo:    adminRepo,
	})

	emailBridge := mailer.NewLogBridge(cfg.Notification, logger)
	worker.StartMailerWorker(mailer.NewMailer(cfg.Notification, emailBridge, logger), dispatcher)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), customerRepo, employeeRepo, adminRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Requests:       handlers.NewRequestsHandler(requests),
		Assignments:    handlers.NewAssignmentsHandler(coordinator, sweeper),
		Notifications:  handlers.NewNotificationsHandler(notifier),
		Payments:       handlers.NewPaymentsHandler(payments),
		AuthMiddleware: authMiddleware,
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
