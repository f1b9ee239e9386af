package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalmesh/causegraph/internal/api"
	"github.com/signalmesh/causegraph/internal/cache"
	"github.com/signalmesh/causegraph/internal/config"
	"github.com/signalmesh/causegraph/internal/correlation"
	"github.com/signalmesh/causegraph/internal/graph"
	"github.com/signalmesh/causegraph/internal/metrics"
	"github.com/signalmesh/causegraph/internal/repo"
	"github.com/signalmesh/causegraph/internal/rootcause"
	"github.com/signalmesh/causegraph/internal/services"
	"github.com/signalmesh/causegraph/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting causegraph-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	eventStore := repo.NewEventStoreClient(cfg.Clients.EventStore.BaseURL, cfg.Clients.EventStore.Timeout)
	cmdb := repo.NewCMDBClient(cfg.Clients.CMDB.BaseURL, cfg.Clients.CMDB.Timeout, cacheProvider, cfg.Clients.CMDB.CacheTTL, logger)
	vectorSearch := repo.NewVectorSearchClient(cfg.Clients.VectorSearch.BaseURL, cfg.Clients.VectorSearch.APIKey, cfg.Clients.VectorSearch.Timeout, cfg.Clients.VectorSearch.Limit)
	knowledge := repo.NewKnowledgeClient(cfg.Clients.Knowledge.BaseURL, cfg.Clients.Knowledge.Timeout, cacheProvider, cfg.Clients.Knowledge.CacheTTL, logger)

	var llm rootcause.LLMClient
	if cfg.LLM.Enabled {
		llm = repo.NewAnthropicLLM(repo.AnthropicConfig{
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		})
	}

	scorer := correlation.NewScorer(correlation.ScoringConfig{
		DecayFactor:       cfg.Scoring.DecayFactor,
		SemanticThreshold: cfg.Scoring.SemanticThreshold,
	}, eventStore, cmdb, vectorSearch)

	builder := graph.NewBuilder(logger)
	correlationAnalyzer := correlation.NewAnalyzer(logger, eventStore, scorer, builder, correlation.AnalyzerConfig{
		ChannelTimeout: cfg.Scoring.ChannelTimeout,
		DefaultWindow:  cfg.Scoring.DefaultTimeWindow,
	})
	rootCauseAnalyzer := rootcause.NewAnalyzer(logger, knowledge, llm)

	service := services.NewAnalysisService(logger, correlationAnalyzer, rootCauseAnalyzer)
	handler := api.NewHandler(logger, service)

	server, err := api.NewServer(cfg.Server, handler.Routes())
	if err != nil {
		logger.Error("failed to create API server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("API server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("causegraph-engine stopped")
}
