package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/bootstrap"
	"github.com/dkraev/doc-anonymizer/internal/config"
	"github.com/dkraev/doc-anonymizer/internal/observability/logging"
	"github.com/dkraev/doc-anonymizer/internal/observability/metrics"
)

const service = "anonymizer-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:         ":" + cfg.WorkerMetricsPort,
		Handler:      metricsMux(workerMetrics),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobCreated(ctx, func(handlerCtx context.Context, jobID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		workerMetrics.StartJob()
		started := time.Now()
		if job, jobErr := app.Jobs.GetByID(processCtx, jobID); jobErr == nil {
			workerMetrics.ObserveQueueLag(service, started.Sub(job.CreatedAt))
		}

		processErr := app.Processor.ProcessJob(processCtx, jobID)
		workerMetrics.FinishJob(service, time.Since(started), processErr)
		return processErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
