package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthbot/knowledge-core/internal/bootstrap"
	"github.com/healthbot/knowledge-core/internal/config"
	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/observability/logging"
	"github.com/healthbot/knowledge-core/internal/observability/metrics"
)

const serviceName = "knowledge-core-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	ingestMetrics := metrics.NewIngestMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(ingestMetrics),
	}
	go func() {
		logger.Info("metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	go runExpirySweeper(ctx, app, ingestMetrics, logger, time.Duration(cfg.SweepMinutes)*time.Minute)

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeBatchSubmitted(ctx, func(handlerCtx context.Context, batch domain.IngestBatch) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		if task, statusErr := app.IngestUC.IngestStatus(runCtx, batch.SessionID); statusErr == nil {
			ingestMetrics.ObserveQueueLag(serviceName, time.Since(task.UpdatedAt))
		}

		ingestMetrics.StartBatch()
		start := time.Now()
		runErr := app.IngestUC.RunBatch(runCtx, batch)
		ingestMetrics.FinishBatch(serviceName, len(batch.FilePaths), time.Since(start), runErr)

		if runErr != nil {
			logger.Error("batch failed",
				"session_id", batch.SessionID,
				"files", len(batch.FilePaths),
				"error", runErr)
			return runErr
		}
		logger.Info("batch completed",
			"session_id", batch.SessionID,
			"files", len(batch.FilePaths),
			"duration", time.Since(start).String())
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func metricsHandler(m *metrics.IngestMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func runExpirySweeper(ctx context.Context, app *bootstrap.App, m *metrics.IngestMetrics, logger *slog.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			destroyed, err := app.CleanupUC.CleanupExpired(ctx, time.Now().UTC())
			m.AddSessionsCleaned(destroyed)
			if err != nil {
				logger.Warn("expiry sweep finished with errors", "destroyed", destroyed, "error", err)
				continue
			}
			if destroyed > 0 {
				logger.Info("expiry sweep", "destroyed", destroyed)
			}
		}
	}
}
