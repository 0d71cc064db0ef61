package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sitebridge/sitebridge/internal/admin"
	"github.com/sitebridge/sitebridge/internal/app"
	"github.com/sitebridge/sitebridge/internal/auth"
	"github.com/sitebridge/sitebridge/internal/authn"
	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/changes"
	"github.com/sitebridge/sitebridge/internal/companies"
	"github.com/sitebridge/sitebridge/internal/contacts"
	"github.com/sitebridge/sitebridge/internal/costcodes"
	"github.com/sitebridge/sitebridge/internal/feedback"
	"github.com/sitebridge/sitebridge/internal/field"
	"github.com/sitebridge/sitebridge/internal/files"
	"github.com/sitebridge/sitebridge/internal/observability"
	"github.com/sitebridge/sitebridge/internal/platform/cache"
	"github.com/sitebridge/sitebridge/internal/platform/db"
	"github.com/sitebridge/sitebridge/internal/projects"
	"github.com/sitebridge/sitebridge/internal/quotes"
	"github.com/sitebridge/sitebridge/internal/reports"
	"github.com/sitebridge/sitebridge/internal/rfis"
	"github.com/sitebridge/sitebridge/internal/servicecalls"
	"github.com/sitebridge/sitebridge/internal/shared"
	"github.com/sitebridge/sitebridge/internal/tasks"
	"github.com/sitebridge/sitebridge/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	issuer := authn.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(dbpool)

	table, err := authz.NewTable()
	if err != nil {
		logger.Error("build permission table", slog.Any("error", err))
		os.Exit(1)
	}

	projectsRepo := projects.NewRepository(dbpool)
	resolver := authz.NewResolver(projectsRepo, redisClient, cfg.MembershipTTL)
	guard := authz.NewGuard(table, resolver, logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, issuer, queue)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, guard)

	projectsService := projects.NewService(projectsRepo, resolver, auditLogger)
	projectsHandler := projects.NewHandler(logger, projectsService, guard)

	tasksRepo := tasks.NewRepository(dbpool)
	tasksService := tasks.NewService(tasksRepo)
	tasksHandler := tasks.NewHandler(logger, tasksService, guard)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(guard.Table(), reportsRepo)
	reportsHandler := reports.NewHandler(logger, reportsService, guard)

	rfisRepo := rfis.NewRepository(dbpool)
	rfisService := rfis.NewService(rfisRepo)
	rfisHandler := rfis.NewHandler(logger, rfisService, guard)

	changesRepo := changes.NewRepository(dbpool)
	changesService := changes.NewService(changesRepo)
	changesHandler := changes.NewHandler(logger, changesService, guard)

	fieldRepo := field.NewRepository(dbpool)
	fieldService := field.NewService(fieldRepo)
	fieldHandler := field.NewHandler(logger, fieldService, guard)

	contactsRepo := contacts.NewRepository(dbpool)
	contactsService := contacts.NewService(contactsRepo)
	contactsHandler := contacts.NewHandler(logger, contactsService)

	quotesRepo := quotes.NewRepository(dbpool)
	quotesService := quotes.NewService(quotesRepo, projectsService)
	quotesHandler := quotes.NewHandler(logger, quotesService, guard)

	filesRepo := files.NewRepository(dbpool)
	filesService := files.NewService(filesRepo, files.NewStore(cfg.UploadDir))
	filesHandler := files.NewHandler(logger, filesService, guard)

	companiesRepo := companies.NewRepository(dbpool)
	companiesService := companies.NewService(companiesRepo)
	companiesHandler := companies.NewHandler(logger, companiesService)

	feedbackRepo := feedback.NewRepository(dbpool)
	feedbackService := feedback.NewService(feedbackRepo)
	feedbackHandler := feedback.NewHandler(logger, feedbackService)

	costCodesRepo := costcodes.NewRepository(dbpool)
	costCodesService := costcodes.NewService(costCodesRepo)
	costCodesHandler := costcodes.NewHandler(logger, costCodesService, guard)

	serviceCallsRepo := servicecalls.NewRepository(dbpool)
	serviceCallsService := servicecalls.NewService(serviceCallsRepo)
	serviceCallsHandler := servicecalls.NewHandler(logger, serviceCallsService, guard)

	adminRepo := admin.NewRepository(dbpool)
	adminService := admin.NewService(adminRepo, feedbackService)
	adminHandler := admin.NewHandler(logger, adminService, guard)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Issuer:              issuer,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		ProjectsHandler:     projectsHandler,
		TasksHandler:        tasksHandler,
		ReportsHandler:      reportsHandler,
		RFIsHandler:         rfisHandler,
		ChangesHandler:      changesHandler,
		FieldHandler:        fieldHandler,
		ContactsHandler:     contactsHandler,
		QuotesHandler:       quotesHandler,
		FilesHandler:        filesHandler,
		CompaniesHandler:    companiesHandler,
		FeedbackHandler:     feedbackHandler,
		CostCodesHandler:    costCodesHandler,
		ServiceCallsHandler: serviceCallsHandler,
		AdminHandler:        adminHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
