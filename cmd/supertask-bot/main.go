// SuperTask Bot — исполнитель задач для ботов и AI-моделей.
//
// Bot:
//   - Получает задачи из очередей tasks.ai и tasks.bots
//   - AI задачи отправляет в HTTP endpoint модели по explicit_id
//   - Задачи ботов без модели отвечает входом задачи (echo)
//   - Публикует ответ в tasks.responses
//
// Боты масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/SuperTask/internal/config"
	"github.com/shaiso/SuperTask/internal/mq"
	"github.com/shaiso/SuperTask/internal/telemetry"
	"github.com/shaiso/SuperTask/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	logger.Info("starting supertask-bot")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Модели из конфигурации
	httpClient := &http.Client{}
	registry := worker.NewRegistry()
	for modelID, endpoint := range cfg.Bot.ModelEndpoints {
		registry.Register(modelID, &worker.HTTPExecutor{
			Endpoint:   endpoint,
			Client:     httpClient,
			Timeout:    cfg.Bot.HTTPTimeout,
			MaxRetries: cfg.Bot.MaxRetries,
		})
	}

	w := worker.New(worker.Config{
		Conn:      mqConn,
		Publisher: mq.NewPublisher(mqConn, logger),
		Registry:  registry,
		Prefetch:  cfg.RabbitMQ.Prefetch,
		Logger:    logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Bot.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	// Останавливаем worker
	w.Stop()
	logger.Info("supertask-bot stopped")
}
