package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/config"
	"github.com/caloriebalance/tracker/internal/repository/mongodb"
	"github.com/caloriebalance/tracker/internal/repository/sheets"
	"github.com/caloriebalance/tracker/internal/scheduler"
	"github.com/caloriebalance/tracker/internal/server/handlers"
	"github.com/caloriebalance/tracker/internal/server/router"
	commandsvc "github.com/caloriebalance/tracker/internal/service/commands"
	reportingsvc "github.com/caloriebalance/tracker/internal/service/reporting"
	trackersvc "github.com/caloriebalance/tracker/internal/service/tracker"
	whatsappsvc "github.com/caloriebalance/tracker/internal/service/whatsapp"
	"github.com/caloriebalance/tracker/pkg/clients/anthropic"
	"github.com/caloriebalance/tracker/pkg/clients/nutritionix"
	whatsappclient "github.com/caloriebalance/tracker/pkg/clients/whatsapp"
	"github.com/caloriebalance/tracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, weekly report export disabled")
	}

	nutritionClient := nutritionix.NewClient(cfg.Nutritionix)
	trackerSvc := trackersvc.NewService(mongoRepo, loc, logger.Named(baseLogger, "svc.tracker"))
	reportingSvc := reportingsvc.NewService(trackerSvc, mongoRepo, sheetsRepo, logger.Named(baseLogger, "svc.reporting"))

	trackerHandler := handlers.NewTrackerHandler(trackerSvc, nutritionClient, logger.Named(baseLogger, "handlers.tracker"))

	var (
		messagingSvc   whatsappsvc.MessagingService
		webhookHandler *handlers.WebhookHandler
	)
	if cfg.WhatsApp.Enabled() {
		var aiClient anthropic.Client
		if cfg.AI.AnthropicKey != "" {
			aiClient = anthropic.NewClient(cfg.AI.AnthropicKey, "")
			baseLogger.Info("anthropic ai client enabled")
		} else {
			baseLogger.Warn("anthropic api key missing, natural language processing disabled")
		}

		commandDispatcher := commandsvc.NewService(trackerSvc, mongoRepo, nutritionClient, logger.Named(baseLogger, "svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		svc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, aiClient, commandDispatcher, logger.Named(baseLogger, "svc.whatsapp"))
		messagingSvc = svc
		webhookHandler = handlers.NewWebhookHandler(svc, logger.Named(baseLogger, "handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp not configured, chat commands and report delivery disabled")
	}

	engine := router.New(trackerHandler, webhookHandler, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, mongoRepo, reportingSvc, messagingSvc, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{router.RequestIDHeader},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsHandler.Handler(engine),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
