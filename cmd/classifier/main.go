package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tokensift/token-screening-platform/internal/modelstore"
	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/registry"
	"github.com/tokensift/token-screening-platform/internal/service/audit"
	"github.com/tokensift/token-screening-platform/internal/service/cache"
	"github.com/tokensift/token-screening-platform/internal/service/handler"
	"github.com/tokensift/token-screening-platform/pkg/config"
	"github.com/tokensift/token-screening-platform/pkg/health"
	"github.com/tokensift/token-screening-platform/pkg/kafka"
	"github.com/tokensift/token-screening-platform/pkg/logger"
	"github.com/tokensift/token-screening-platform/pkg/metrics"
	"github.com/tokensift/token-screening-platform/pkg/middleware"
	"github.com/tokensift/token-screening-platform/pkg/postgres"
	pkgredis "github.com/tokensift/token-screening-platform/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting classifier service", "port", cfg.Server.Port, "model", cfg.Model.Name)

	store, err := modelstore.NewStore(cfg.Model.Dir)
	if err != nil {
		slog.Error("failed to open model store", "error", err)
		os.Exit(1)
	}

	// The registry is the source of truth for the active model version and
	// threshold; when postgres is unreachable the service falls back to the
	// configured model name and threshold.
	threshold := cfg.Model.Threshold
	modelVersion := "local"
	var pgClient *postgres.Client
	pgClient, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, using configured model", "error", err)
		pgClient = nil
	} else {
		defer pgClient.Close()
		reg := registry.New(pgClient)
		rec, err := reg.Latest(context.Background(), cfg.Model.Name)
		if err != nil {
			slog.Warn("model not in registry, using configured model", "error", err)
		} else {
			threshold = rec.Threshold
			modelVersion = strconv.Itoa(rec.Version)
			slog.Info("resolved model from registry",
				"name", rec.Name,
				"version", rec.Version,
				"threshold", rec.Threshold,
			)
		}
	}

	model, err := store.Load(cfg.Model.Name)
	if err != nil {
		slog.Error("failed to load model", "name", cfg.Model.Name, "error", err)
		os.Exit(1)
	}
	slog.Info("model loaded",
		"name", cfg.Model.Name,
		"ngram_length", model.N(),
		"ngrams", model.Len(),
		"threshold", threshold,
	)

	scorer := nonsense.NewScorer(model, cfg.Trainer.RepetitionExponent)
	classifier := nonsense.NewClassifier(scorer, threshold)

	m := metrics.New()
	m.ModelNGrams.Set(float64(model.Len()))

	var verdictCache *cache.VerdictCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, verdict caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		verdictCache = cache.New(redisClient, cfg.Redis, modelVersion)
		slog.Info("verdict cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ClassificationAudit)
	defer auditProducer.Close()
	collector := audit.NewCollector(auditProducer, 100, 0)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("audit stream enabled", "topic", cfg.Kafka.Topics.ClassificationAudit)

	aggregator := audit.NewAggregator()
	auditConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ClassificationAudit, audit.HandleEvent(aggregator))
	auditH := audit.NewHandler(aggregator)
	go func() {
		if err := auditConsumer.Start(ctx); err != nil {
			slog.Error("audit consumer error", "error", err)
		}
	}()
	slog.Info("audit aggregator started")

	checker := health.NewChecker()
	checker.Register("model", func(ctx context.Context) health.ComponentHealth {
		if model.Len() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d ngrams loaded", model.Len())}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no model"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	info := handler.ModelInfo{
		Name:        cfg.Model.Name,
		Version:     modelVersion,
		NGramLength: model.N(),
		NGramCount:  model.Len(),
		Threshold:   threshold,
	}
	h := handler.New(classifier, verdictCache, collector, m, info, cfg.Server.MaxBatchSize)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/classify", h.Classify)
	mux.HandleFunc("POST /api/v1/classify/batch", h.ClassifyBatch)
	mux.HandleFunc("GET /api/v1/model", h.ModelInfo)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/stats", auditH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("classifier service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("classifier service stopped")
}
