package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seolens/seolens/internal/aggregator"
	"github.com/seolens/seolens/internal/api"
	"github.com/seolens/seolens/internal/audit"
	"github.com/seolens/seolens/internal/config"
	"github.com/seolens/seolens/internal/database"
	"github.com/seolens/seolens/internal/lengthcheck"
	"github.com/seolens/seolens/internal/metrics"
	"github.com/seolens/seolens/internal/ollama"
	"github.com/seolens/seolens/internal/queue"
	"github.com/seolens/seolens/internal/sources"
	"github.com/seolens/seolens/internal/tracing"
	"github.com/seolens/seolens/pkg/logging"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("seolens service initializing", "version", "1.0.0")

	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "config_path", *configPath)
		os.Exit(1)
	}

	// Initialize tracing
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("seolens", cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer", "error", err)
				}
			}()
			logger.Info("tracing initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// Initialize database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "database_path", cfg.Database.Path)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize metrics
	businessMetrics := metrics.NewBusinessMetrics("seolens")
	dbMetrics := metrics.NewDatabaseMetrics("seolens")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(db.Conn())
		}
	}()

	// Initialize audit engine
	var engine *audit.Engine
	if cfg.Ollama.Enabled {
		ollamaClient, err := ollama.New(cfg.Ollama.URL, cfg.Ollama.Model)
		if err != nil {
			logger.Warn("failed to initialize Ollama client, running offline audits only",
				"error", err,
				"ollama_url", cfg.Ollama.URL,
				"ollama_model", cfg.Ollama.Model,
			)
			engine = audit.New(cfg.Site.Host)
		} else {
			logger.Info("Ollama client initialized", "model", cfg.Ollama.Model, "url", cfg.Ollama.URL)
			engine = audit.NewWithOllama(cfg.Site.Host, ollamaClient)
		}
	} else {
		logger.Info("Ollama disabled, running offline audits only")
		engine = audit.New(cfg.Site.Host)
	}

	// Initialize task queue client and worker
	queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: cfg.Redis.Addr})
	defer queueClient.Close()

	worker := queue.NewWorker(queue.WorkerConfig{
		RedisAddr:   cfg.Redis.Addr,
		Concurrency: 5,
	}, db, engine, queueClient, businessMetrics)

	go func() {
		if err := worker.Start(); err != nil {
			logger.Error("queue worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Initialize insights aggregator and length comparator from the
	// configured sources
	var dataForSEO *sources.DataForSEOClient
	if cfg.HasDataForSEO() {
		dataForSEO = sources.NewDataForSEO(cfg.Sources.DataForSEO.Login, cfg.Sources.DataForSEO.Password)
		logger.Info("DataForSEO source configured")
	}
	insights := buildAggregator(cfg, logger, businessMetrics, dataForSEO)

	comparatorOpts := []lengthcheck.Option{lengthcheck.WithSiteHost(cfg.Site.Host)}
	if dataForSEO != nil {
		comparatorOpts = append(comparatorOpts, lengthcheck.WithSERPSource(dataForSEO))
	}

	// Initialize API handler
	apiHandler := api.NewHandler(db, engine, queueClient, lengthcheck.New(comparatorOpts...), insights)

	// Wrap handler with middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("seolens")(apiHandler),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // competitor fetches and insights pulls take a while
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("seolens service starting",
			"port", cfg.Server.Port,
			"database", cfg.Database.Path,
			"redis", cfg.Redis.Addr,
			"site_host", cfg.Site.Host,
			"ollama_enabled", cfg.Ollama.Enabled,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	worker.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildAggregator wires up whichever external data sources have
// credentials configured. Returns nil when none are configured, which
// disables the insights endpoint.
func buildAggregator(cfg *config.Config, logger *slog.Logger, bm *metrics.BusinessMetrics, dataForSEO *sources.DataForSEOClient) api.InsightsProvider {
	var opts []aggregator.Option

	if cfg.HasGA4() {
		opts = append(opts, aggregator.WithTraffic(sources.NewGA4(cfg.Sources.GA4.PropertyID, cfg.Sources.GA4.Token)))
		logger.Info("GA4 source configured", "property_id", cfg.Sources.GA4.PropertyID)
	}
	if cfg.HasGSC() {
		opts = append(opts, aggregator.WithSearch(sources.NewGSC(cfg.Sources.GSC.SiteURL, cfg.Sources.GSC.Token)))
		logger.Info("Search Console source configured", "site_url", cfg.Sources.GSC.SiteURL)
	}
	if dataForSEO != nil {
		opts = append(opts, aggregator.WithVolume(dataForSEO))
	}
	if cfg.HasAhrefs() {
		opts = append(opts, aggregator.WithBacklinks(sources.NewAhrefs(cfg.Sources.Ahrefs.Token)))
		logger.Info("Ahrefs source configured")
	}

	if len(opts) == 0 {
		logger.Info("no insight sources configured, insights endpoint disabled")
		return nil
	}

	opts = append(opts, aggregator.WithMetrics(bm))
	return aggregator.New(cfg.Site.Host, logger, opts...)
}
