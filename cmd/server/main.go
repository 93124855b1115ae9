// Command server is the composition root: it loads configuration, builds
// every collaborator, wires them into the HTTP router, and serves until
// signaled to shut down.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docrag/internal/chatmemory"
	"docrag/internal/config"
	"docrag/internal/embedcache"
	"docrag/internal/embedclient"
	"docrag/internal/extractor"
	"docrag/internal/httpapi"
	"docrag/internal/ingestion"
	"docrag/internal/loki"
	"docrag/internal/observability/tracing"
	"docrag/internal/rag"
	"docrag/internal/retrieval"
	"docrag/internal/retry"
	"docrag/internal/store/postgres"
	"docrag/internal/vectorstore"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	if cfg.LokiURL != "" {
		lokiClient := loki.New(cfg.LokiURL, map[string]string{"service": "docrag"})
		lokiCore := loki.NewCore(lokiClient, map[string]string{"service": "docrag"}, zap.InfoLevel)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, lokiCore)
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, "docrag")
	if err != nil {
		logger.Warn("tracing disabled, collector unavailable", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer store.Close()
	if err := store.InitializeSchema(ctx); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)

	qdrantHost, qdrantPort := splitHostPort(cfg.QdrantURL)
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{Host: qdrantHost, Port: qdrantPort})
	if err != nil {
		logger.Fatal("failed to connect to qdrant", zap.Error(err))
	}

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		MinBackoff:  cfg.RetryMinBackoff,
		MaxBackoff:  cfg.RetryMaxBackoff,
	}

	vectors := vectorstore.New(qdrantClient, cfg.QdrantCollection)
	cache := embedcache.New(redisClient, logger)
	embedder := embedclient.New(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cache, logger, retryPolicy, cfg.EmbedRateLimitRPS, cfg.EmbedRateLimitBurst)
	extractors := extractor.NewRegistry()

	pipeline := ingestion.New(store, extractors, embedder, vectors, logger)
	retrievalEngine := retrieval.New(embedder, vectors)
	memory := chatmemory.New(store)

	answerer, err := rag.New(ctx, retrievalEngine, store, rag.Config{
		DefaultModel:    cfg.LLMModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		Retry:           retryPolicy,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize rag answerer", zap.Error(err))
	}

	server := httpapi.NewServer(logger, pipeline, retrievalEngine, answerer, memory, store)
	router := server.Router()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

// splitHostPort parses a "host:port" endpoint, defaulting to Qdrant's
// standard gRPC port when absent or unparsable.
func splitHostPort(endpoint string) (string, int) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, 6334
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6334
	}
	return host, port
}
