package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"lusso/backend/features/assistant"
	"lusso/backend/features/embedding"
	"lusso/backend/features/indexer"
	"lusso/backend/features/searchapi"
	"lusso/backend/features/stats"
	"lusso/backend/internal/adapter/ollama"
	"lusso/backend/internal/config"
	"lusso/backend/internal/middleware"
	"lusso/backend/internal/search"
	"lusso/backend/internal/worker"
)

type App struct {
	Handler         http.Handler
	Gateway         *ollama.Client
	IndexerService  *indexer.Service
	ChangedConsumer *worker.ChangedConsumer
	DeletedConsumer *worker.DeletedConsumer

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	pub indexer.EventPublisher,
	logger *slog.Logger,
) (*App, error) {

	// Adapter: inference gateway
	gateway := ollama.NewClient(cfg.OllamaBaseURL, ollama.Models{
		Chat:   cfg.OllamaChatModel,
		Embed:  cfg.OllamaEmbedModel,
		Vision: cfg.OllamaVisionModel,
		Code:   cfg.OllamaCodeModel,
	}, time.Duration(cfg.OllamaTimeoutSeconds)*time.Second)

	// Search core
	embeddingRepo := embedding.NewPostgresRepo(db)

	queryLogger, err := search.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = search.NewQueryLogger(os.Stdout)
	}

	searchService := search.NewService(gateway, embeddingRepo, search.Options{
		Model:         cfg.OllamaEmbedModel,
		MinSimilarity: cfg.SearchMinSimilarity,
		DefaultLimit:  cfg.SearchDefaultLimit,
		MaxLimit:      cfg.SearchMaxLimit,
	}, queryLogger)

	// Feature: Indexer
	sources := []indexer.ContentSource{
		indexer.NewProjectSource(db),
		indexer.NewServiceSource(db),
		indexer.NewGallerySource(db),
		indexer.NewBlogSource(db),
	}
	indexerService := indexer.NewService(searchService, sources, pub)
	indexerHandler := indexer.NewHandler(indexerService)

	// Feature handlers
	searchHandler := searchapi.NewHandler(searchService)
	assistantHandler := assistant.NewHandler(gateway)
	statsHandler := stats.NewHandler(embeddingRepo, gateway)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(searchHandler.Search)))

	mux.Handle("POST /index", middleware.CorrelationID(enableCORS(indexerHandler.Index)))
	mux.Handle("POST /reindex", middleware.CorrelationID(enableCORS(indexerHandler.ReindexAll)))

	mux.Handle("POST /assistant/chat", middleware.CorrelationID(enableCORS(assistantHandler.Chat)))
	mux.Handle("POST /assistant/generate", middleware.CorrelationID(enableCORS(assistantHandler.Generate)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.Stats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:         mux,
		Gateway:         gateway,
		IndexerService:  indexerService,
		ChangedConsumer: worker.NewChangedConsumer(indexerService),
		DeletedConsumer: worker.NewDeletedConsumer(indexerService),
		port:            cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
