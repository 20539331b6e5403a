package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"margine/internal/amqp"
	"margine/internal/config"
	"margine/internal/export"
	"margine/internal/export/google"
	"margine/internal/export/memory"
	"margine/internal/log"
	"margine/internal/services"
	"margine/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.Setup(slog.LevelInfo).ForComponent(log.ComponentWorker)
	logger.Info("Starting margine-worker", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var (
		alertSink   export.AlertWriter
		summarySink export.SummaryWriter
	)
	switch cfg.ExportBackend {
	case "google":
		client, err := google.New(context.Background(), google.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			AlertsSheet:   cfg.GoogleAlertsSheet,
			SummarySheet:  cfg.GoogleSummarySheet,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets export", log.FieldError, err)
			os.Exit(1)
		}
		alertSink, summarySink = client, client
		logger.Info("Google Sheets export initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	case "memory":
		sink := memory.New()
		alertSink, summarySink = sink, sink
		logger.Info("In-memory export initialized")
	default:
		logger.Info("Export disabled")
	}

	cardSvc := services.NewCardService(repo)
	budgetSvc := services.NewBudgetService(repo, cardSvc, summarySink)
	alertSvc := services.NewAlertService(repo, repo, alertSink, cfg.DetectorConfig(), cfg.MaxAchievements, logger)

	// One detection pass. A day that produced alerts also appends the
	// month's summary row, so the sink gets at most one row per day.
	runPass := func(ctx context.Context, now time.Time) error {
		n, err := alertSvc.GenerateDaily(ctx, now)
		if err != nil {
			return err
		}
		if n > 0 {
			if err := budgetSvc.ExportMonthSummary(ctx, now.Year(), int(now.Month())); err != nil {
				logger.Error("Month summary export failed", log.FieldError, err)
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context, msg *amqp.AlertRequestMessage) error {
		day, err := time.Parse("2006-01-02", msg.Day)
		if err != nil {
			logger.Error("Invalid day in alert request", log.FieldError, err, "day", msg.Day)
			// Unparseable day: drop the message instead of requeueing it.
			return nil
		}
		return runPass(ctx, day)
	}

	go func() {
		if err := amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	// Safety net for days with no broker traffic: run a pass on startup and
	// then on every tick. The once-per-day guard keeps the extra runs cheap.
	go func() {
		if err := runPass(ctx, time.Now()); err != nil {
			logger.Error("Startup alert generation failed", log.FieldError, err)
		}

		ticker := time.NewTicker(cfg.AlertCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := runPass(ctx, time.Now()); err != nil {
					logger.Error("Periodic alert generation failed", log.FieldError, err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
	case <-ctx.Done():
		logger.Info("Context cancelled", log.FieldOperation, log.OpShutdown)
	}

	cancel()
	logger.Info("Worker stopped", log.FieldOperation, log.OpShutdown)
}
