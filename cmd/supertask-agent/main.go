// SuperTask Agent — маршрутизирует SuperTask задачи исполнителям.
//
// Agent:
//   - Хранит типы SuperTask и историю job в PostgreSQL
//   - Запускает SuperTask как дочерние job (HTTP API)
//   - Отправляет задачи в RabbitMQ и ждёт ответы из tasks.responses
//   - Повторяет EXPIRED/REJECTED задачи согласно политике исполнителя
//   - Кэширует результаты job в Redis (опционально)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/SuperTask/internal/api"
	"github.com/shaiso/SuperTask/internal/cache"
	"github.com/shaiso/SuperTask/internal/config"
	"github.com/shaiso/SuperTask/internal/jobs"
	"github.com/shaiso/SuperTask/internal/mq"
	"github.com/shaiso/SuperTask/internal/repo"
	"github.com/shaiso/SuperTask/internal/router"
	"github.com/shaiso/SuperTask/internal/task"
	"github.com/shaiso/SuperTask/internal/telemetry"
	"github.com/shaiso/SuperTask/internal/workflow"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	logger.Info("starting supertask-agent")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("supertask-agent failed", "error", err)
		os.Exit(1)
	}

	logger.Info("supertask-agent stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// DB pool
	pool, err := repo.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	if cfg.Database.Migrate {
		if err := repo.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	superTaskRepo := repo.NewSuperTaskRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		return err
	}

	client := mq.NewTaskClient(mq.ClientConfig{
		Publisher: mq.NewPublisher(mqConn, logger),
		Store:     taskRepo,
		Logger:    logger,
	})
	defer client.Close()

	submitter := task.NewBreakerSubmitter(client, task.BreakerConfig{
		MaxFailures:      cfg.Breaker.MaxFailures,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
		Logger:           logger,
	})

	responses := mq.NewConsumer(mqConn, mq.ConsumerConfig{
		Queue:    mq.QueueTasksResponses,
		Routes:   client.Routes(),
		Prefetch: cfg.RabbitMQ.Prefetch,
		Logger:   logger,
	})

	// Redis кэш результатов (опционально)
	var resultCache jobs.ResultCache
	if cfg.Redis.Addr != "" {
		jobCache, err := cache.New(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.ResultTTL,
		})
		if err != nil {
			logger.Warn("redis not available, result cache disabled", "error", err)
		} else {
			defer jobCache.Close()
			resultCache = jobCache
			logger.Info("redis connected")
		}
	}

	executor := jobs.New(jobs.Config{
		Store:      jobRepo,
		Cache:      resultCache,
		Classifier: workflow.ClassifyError,
		Timeout:    cfg.Jobs.Timeout,
		Logger:     logger,
	})

	backoffMin, backoffMax := cfg.Router.BackoffMin, cfg.Router.BackoffMax
	catalog := workflow.NewCatalog(workflow.CatalogConfig{
		Source:    superTaskRepo,
		Executor:  executor,
		Submitter: submitter,
		Routers:   router.NewRegistry(),
		BackOff: func() backoff.BackOff {
			return router.NewAttemptJitterBackOff(backoffMin, backoffMax)
		},
		Logger: logger,
	})

	handler := api.NewHandler(api.Config{
		Store:   superTaskRepo,
		Catalog: catalog,
		Jobs:    executor,
		History: jobRepo,
		Tasks:   taskRepo,
		Logger:  logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := responses.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Graceful shutdown с таймаутом 10 секунд
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		// Сначала отменяем job, потом отпускаем ожидающие futures
		executor.Stop()
		client.Close()
		return nil
	})

	return g.Wait()
}
