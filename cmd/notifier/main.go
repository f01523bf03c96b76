package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"djagency/pkg/config"
	"djagency/pkg/kafka"
	kafka_config "djagency/pkg/kafka/config"
	kafka_middleware "djagency/pkg/kafka/middleware"
	"djagency/pkg/metrics"
	"djagency/pkg/notification"
)

const ServiceName = "notifier"

// The notifier consumes notification events queued by the agency service
// and delivers them. Delivery is the log sender; events it cannot decode
// are parked on the DLQ topic.
func main() {
	cfg := config.Load(ServiceName)

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	m := metrics.New(ServiceName)
	sender := notification.NewLogSender(cfg.Log.Component("delivery"))

	consumer, err := kafka.NewConsumer(
		kcfg,
		cfg.NotificationTopic,
		cfg.NotificationGroupID,
		cfg.NotificationDLQTopic,
		notification.EventHandler(sender, cfg.Log),
		cfg.Log.Component("consumer"),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kcfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware(m))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		server = &http.Server{
			Addr:        ":" + cfg.Port,
			Handler:     mux,
			ReadTimeout: cfg.ReadTimeout,
			IdleTimeout: cfg.IdleTimeout,
		}
		go func() {
			cfg.Log.Info("Serving notifier metrics", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cfg.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	cfg.Log.Info("Starting notifier",
		"topic", cfg.NotificationTopic,
		"group_id", cfg.NotificationGroupID,
		"dlq_topic", cfg.NotificationDLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	cfg.Log.Info("Shutting down notifier...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			cfg.Log.Error("Metrics server shutdown failed", "error", err)
		}
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	if err := sender.Close(); err != nil {
		cfg.Log.Error("Failed to close sender", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
