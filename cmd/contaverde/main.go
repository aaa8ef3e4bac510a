package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/accounting/posting"
	"github.com/contaverde/contaverde/internal/accounting/reports"
	"github.com/contaverde/contaverde/internal/app"
	"github.com/contaverde/contaverde/internal/audit"
	"github.com/contaverde/contaverde/internal/invoicing"
	"github.com/contaverde/contaverde/internal/masterdata/companies"
	"github.com/contaverde/contaverde/internal/masterdata/thirdparties"
	"github.com/contaverde/contaverde/internal/observability"
	"github.com/contaverde/contaverde/internal/platform/cache"
	"github.com/contaverde/contaverde/internal/platform/db"
	"github.com/contaverde/contaverde/internal/shared"
	"github.com/contaverde/contaverde/internal/treasury"
	"github.com/contaverde/contaverde/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, cfg.MigrationsDir); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	validate := validator.New()
	metrics := observability.NewMetrics()

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("report cache subscription failed", slog.Any("error", err))
	}
	eventSink := reports.NewInvalidatingSink(shared.NewPGEventSink(pool), reportCache, logger)

	accountsService := accounts.NewService(accounts.NewRepository(pool))
	journalsService := journals.NewService(journals.NewRepository(pool, logger), eventSink)
	postingService := posting.NewService(posting.NewRepository(pool, logger), eventSink)

	companiesService := companies.NewService(companies.NewRepository(pool), accountsService, eventSink, logger)
	thirdPartiesService := thirdparties.NewService(thirdparties.NewRepository(pool))

	invoicingService := invoicing.NewService(invoicing.NewRepository(pool), postingService, thirdPartiesService, logger)
	treasuryService := treasury.NewService(treasury.NewRepository(pool), postingService, thirdPartiesService, invoicingService, logger)

	reportsService := reports.NewService(reports.NewRepository(pool), reportCache, logger)
	auditService := audit.NewService(audit.NewPGRepository(pool))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		CompaniesHandler:    companies.NewHandler(logger, companiesService, validate),
		ThirdPartiesHandler: thirdparties.NewHandler(logger, thirdPartiesService, validate),
		AccountsHandler:     accounts.NewHandler(logger, accountsService, validate),
		JournalsHandler:     journals.NewHandler(logger, journalsService, postingService, validate),
		ReportsHandler:      reports.NewHandler(logger, reportsService),
		InvoicingHandler:    invoicing.NewHandler(logger, invoicingService, validate),
		TreasuryHandler:     treasury.NewHandler(logger, treasuryService, validate),
		AuditHandler:        audit.NewHandler(logger, auditService),
		JobsHandler:         jobsHandler,
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
