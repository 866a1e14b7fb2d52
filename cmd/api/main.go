package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/techdesk-service/internal/api/http"
	"github.com/spec-kit/techdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/mail"
	"github.com/spec-kit/techdesk-service/internal/observability"
	"github.com/spec-kit/techdesk-service/internal/persistence"
	"github.com/spec-kit/techdesk-service/internal/repository"
	"github.com/spec-kit/techdesk-service/internal/repository/memory"
	"github.com/spec-kit/techdesk-service/internal/service"
	"github.com/spec-kit/techdesk-service/internal/session"
	"github.com/spec-kit/techdesk-service/internal/storage"
	"github.com/spec-kit/techdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	var (
		pg    *persistence.Postgres
		repos repository.Set
	)
	if cfg.Postgres.DSN != "" {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresSet(pg.PoolHandle())
	} else {
		logger.Warn("POSTGRES_DSN not set; using the in-memory store")
		repos = memory.NewStore().Set()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	sessions := session.NewMemoryStore()
	if redis.Enabled() {
		sessions = session.NewRedisStore(redis.Client, cfg.Redis.KeyPrefix)
		relay := events.NewRedisRelay(redis.Client, cfg.Redis.EventsChannel, dispatcher, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("event relay stopped", zap.Error(err))
			}
		}()
	}

	photos, err := storage.NewPhotoStore(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix, cfg.Uploads.MaxBytes)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	lookupService := service.NewLookupService(service.LookupDependencies{
		CompanyRepo: repos.Companies,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Repos:        repos,
		Lookup:       lookupService,
		Sessions:     sessions,
		TokenManager: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	assetService := service.NewAssetService(service.AssetDependencies{
		AssetRepo:    repos.Assets,
		EmployeeRepo: repos.Employees,
		Lookup:       lookupService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	ticketService := service.NewTicketService(*cfg, service.TicketDependencies{
		TicketRepo:   repos.Tickets,
		EmployeeRepo: repos.Employees,
		Lookup:       lookupService,
		Photos:       photos,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	employeeService := service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo: repos.Employees,
		IdentityRepo: repos.Identities,
		Lookup:       lookupService,
		Auth:         authService,
		Assets:       assetService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		AdminRepo:  repos.Admins,
		Auth:       authService,
		Lookup:     lookupService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	dataService := service.NewDataService(lookupService, employeeService, assetService)
	notificationService := service.NewNotificationService(cfg.Mail, service.NotificationDependencies{
		Dispatcher:   dispatcher,
		AdminRepo:    repos.Admins,
		EmployeeRepo: repos.Employees,
		Lookup:       lookupService,
		Logger:       logger,
		Metrics:      metrics,
	})

	lookupService.RegisterHandlers()
	assetService.RegisterHandlers()
	ticketService.RegisterHandlers()
	lookupService.Init(ctx)

	if cfg.Auth.BootstrapAdminEmail != "" {
		err := adminService.Bootstrap(ctx, service.AdminInput{
			Name:             cfg.Auth.BootstrapAdminName,
			Email:            cfg.Auth.BootstrapAdminEmail,
			Password:         cfg.Auth.BootstrapAdminPassword,
			MailFromEmployee: true,
		})
		if err != nil {
			logger.Error("bootstrap admin failed", zap.Error(err))
		}
	}

	pool := worker.StartNotificationWorker(ctx, notificationService, mail.NewClient(cfg.Mail.EndpointURL, cfg.Mail.Timeout()),
		worker.Options{Workers: cfg.Mail.Workers, MaxAttempts: cfg.Mail.MaxAttempts, SendTimeout: cfg.Mail.Timeout()},
		logger, metrics)
	go ticketService.Hub().Run(ctx)
	go assetService.Hub().Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Uploads.MaxBytes + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, lookupService.Ready()),
		Auth:           handlers.NewAuthHandler(authService),
		Companies:      handlers.NewCompanyHandler(lookupService, dataService),
		Employees:      handlers.NewEmployeeHandler(employeeService, dataService),
		Admins:         handlers.NewAdminHandler(adminService),
		Assets:         handlers.NewAssetHandler(assetService, dataService, lookupService, sessions, logger),
		Tickets:        handlers.NewTicketHandler(ticketService),
		Uploads:        handlers.NewUploadHandler(photos),
		Provisioning:   handlers.NewProvisioningHandler(authService),
		Live:           handlers.NewLiveHandler(ticketService, assetService, lookupService, logger, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), authService),
		Metrics:        metrics,
		UploadDir:      photos.Dir(),
		UploadPrefix:   cfg.Uploads.PublicPrefix,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	pool.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
