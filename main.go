package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lusso/backend/internal/app"
	"lusso/backend/internal/config"
	"lusso/backend/internal/logger"

	"github.com/nsqio/go-nsq"
)

func main() {
	// Structured logger with correlation-aware context handler
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()

	application, err := app.New(cfg, deps.DB, deps.NSQProducer, log)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Startup probe: report the inference service state but keep serving even
	// when it is down; search and indexing will surface errors per request.
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	status := application.Gateway.CheckConnection(probeCtx)
	cancel()
	if status.Connected {
		slog.Info("inference service connected", "models", status.Models)
	} else {
		slog.Warn("inference service unreachable at startup", "base_url", cfg.OllamaBaseURL)
	}

	// Content event consumers
	var consumers []*nsq.Consumer
	if cfg.EnableContentWorker {
		consumers = startConsumers(cfg, application)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	deps.NSQProducer.Stop()
	slog.Info("shutdown complete")
}

func startConsumers(cfg *config.Config, application *app.App) []*nsq.Consumer {
	var consumers []*nsq.Consumer

	start := func(topic string, handler nsq.Handler) {
		consumer, err := nsq.NewConsumer(topic, "search-backend", nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create NSQ consumer", "topic", topic, "error", err)
			return
		}
		consumer.AddHandler(handler)
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "topic", topic, "error", err)
			return
		}
		slog.Info("NSQ consumer connected", "topic", topic)
		consumers = append(consumers, consumer)
	}

	start(config.TopicContentChanged, application.ChangedConsumer)
	start(config.TopicContentDeleted, application.DeletedConsumer)
	return consumers
}
