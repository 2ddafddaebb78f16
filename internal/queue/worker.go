package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/seolens/seolens/internal/audit"
	"github.com/seolens/seolens/internal/database"
	"github.com/seolens/seolens/internal/metrics"
)

// Worker wraps the Asynq server for processing tasks
type Worker struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	db              *database.DB
	engine          *audit.Engine
	queueClient     *Client
	concurrency     int
	logger          *slog.Logger
	businessMetrics *metrics.BusinessMetrics
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a new queue worker
func NewWorker(
	cfg WorkerConfig,
	db *database.DB,
	engine *audit.Engine,
	queueClient *Client,
	businessMetrics *metrics.BusinessMetrics,
) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	serverCfg := asynq.Config{
		Concurrency: cfg.Concurrency,

		// Queue priority: higher value = higher priority. Enrichment
		// outranks offline audits so finished audits get their AI pass
		// promptly.
		Queues: map[string]int{
			"ai-enrichment": 7,
			"content-audit": 5,
		},

		// StrictPriority: false means queues are processed proportionally
		StrictPriority: false,

		RetryDelayFunc: retryDelay,

		ShutdownTimeout: 30 * time.Second,

		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			slog.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)
		}),
	}

	server := asynq.NewServer(redisOpt, serverCfg)
	mux := asynq.NewServeMux()

	w := &Worker{
		server:          server,
		mux:             mux,
		db:              db,
		engine:          engine,
		queueClient:     queueClient,
		concurrency:     cfg.Concurrency,
		logger:          slog.Default(),
		businessMetrics: businessMetrics,
	}

	w.registerHandlers()

	return w
}

// retryDelay backs off aggressively for Ollama tasks, which fail for long
// stretches when the model host is down, and modestly for offline audits.
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	if task.Type() == TypeEnrichContent {
		// 30s, 1m, 2m, 5m, 10m, 20m, 30m, 1h, 2h, 4h
		delays := []time.Duration{
			30 * time.Second,
			1 * time.Minute,
			2 * time.Minute,
			5 * time.Minute,
			10 * time.Minute,
			20 * time.Minute,
			30 * time.Minute,
			1 * time.Hour,
			2 * time.Hour,
			4 * time.Hour,
		}
		if n < len(delays) {
			return delays[n]
		}
		return delays[len(delays)-1]
	}

	// Standard retry for offline audit tasks: 1m, 5m, 15m
	delays := []time.Duration{
		1 * time.Minute,
		5 * time.Minute,
		15 * time.Minute,
	}
	if n < len(delays) {
		return delays[n]
	}
	return delays[len(delays)-1]
}

// registerHandlers registers all task handlers with the worker
func (w *Worker) registerHandlers() {
	w.mux.HandleFunc(TypeAuditContent, w.handleAuditContent)
	w.mux.HandleFunc(TypeEnrichContent, w.handleEnrichContent)
}

// Start starts the worker to begin processing tasks
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker",
		"concurrency", w.concurrency,
		"queues", map[string]int{"ai-enrichment": 7, "content-audit": 5},
	)

	// Run is blocking - starts processing tasks
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}

// Server returns the underlying Asynq server (for testing)
func (w *Worker) Server() *asynq.Server {
	return w.server
}
