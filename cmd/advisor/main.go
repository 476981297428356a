// cmd/advisor/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"studynet-advisor/internal/agent"
	"studynet-advisor/internal/common/config"
	"studynet-advisor/internal/common/database"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/common/observability"
	"studynet-advisor/internal/llm"
	"studynet-advisor/internal/query/classifier"
	"studynet-advisor/internal/query/extractor"
	"studynet-advisor/internal/query/filters"
	"studynet-advisor/internal/query/sqlbuilder"
	"studynet-advisor/internal/retrieval/hybrid"
	"studynet-advisor/internal/retrieval/semantic"
	"studynet-advisor/internal/retrieval/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting advisor...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("advisor")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init LLM client ---
	model, err := llm.NewClient(cfg.LLM)
	if err != nil {
		zapLog.Fatal("llm client failed", zap.Error(err))
	}
	zapLog.Info("LLM client initialized", zap.String("model", cfg.LLM.Model))

	// --- Wire the query pipeline ---
	builder := sqlbuilder.New(log)
	courseStore := store.NewCourseStore(pg.DB, builder, log)
	guidanceIndex := semantic.NewGuidanceIndex(
		esClient.Client,
		cfg.Database.Elasticsearch.GuidanceIndex,
		cfg.Advisor.SemanticThreshold,
		log,
	)

	cls := classifier.New(
		model,
		extractor.New(log),
		filters.NewBuilder(log),
		cfg.LLM,
		cfg.Advisor.DefaultTopK,
		log,
	)

	retriever := hybrid.NewRetriever(
		courseStore,
		guidanceIndex,
		redisClient.Client,
		cfg.Advisor.CacheTTL,
		cfg.Advisor.SemanticContextK,
		log,
	)

	registry := agent.NewRegistry(courseStore, guidanceIndex, log)
	loop := agent.NewLoop(model, registry, cfg.Advisor.MaxReasoningSteps, log)
	memory := agent.NewSessionMemory(
		redisClient.Client,
		cfg.Advisor.MemoryWindow,
		cfg.Advisor.MemoryTTL,
		log,
	)

	router := agent.NewRouter(cls, retriever, registry, loop, memory, cfg.Advisor, log)
	zapLog.Info("Query pipeline wired")

	// --- HTTP API ---
	mux := http.NewServeMux()

	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}

		qctx, cancel := context.WithTimeout(r.Context(), cfg.Advisor.QueryTimeout)
		defer cancel()

		resp := router.ProcessQuery(qctx, req.Query, req.SessionID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := "healthy"
		code := http.StatusOK
		if err := courseStore.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(courseStore.TableStats(r.Context()))
	})

	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.App.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Advisor.QueryTimeout + 10*time.Second,
	}

	go func() {
		zapLog.Info("Advisor API listening", zap.String("addr", cfg.App.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping advisor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Advisor stopped gracefully")
}
