// Packsmith Worker — обрабатывает packages по конвейеру.
//
// Worker:
//   - Возобновляет незавершённые packages при старте
//   - Получает новые packages из RabbitMQ (+ polling fallback)
//   - Ведёт каждый package через extract → generate → render → lint
//   - Периодически перезапускает сверку по cron-расписанию
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Packsmith/internal/extractor"
	"github.com/shaiso/Packsmith/internal/generator"
	"github.com/shaiso/Packsmith/internal/linter"
	"github.com/shaiso/Packsmith/internal/mq"
	"github.com/shaiso/Packsmith/internal/orchestrator"
	"github.com/shaiso/Packsmith/internal/renderer"
	"github.com/shaiso/Packsmith/internal/repo"
	"github.com/shaiso/Packsmith/internal/scheduler"
	"github.com/shaiso/Packsmith/internal/storage"
	"github.com/shaiso/Packsmith/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting packsmith-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	packageRepo := repo.NewPackageRepo(pool)

	// Хранилище артефактов (общее с API)
	artifacts, err := storage.New("")
	if err != nil {
		logger.Error("failed to init artifact storage", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("AMQP_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Компоненты конвейера
	ext := extractor.New(logger)
	gen := generator.New(generator.NewHTTPCompleter(logger), logger)
	lin := linter.New()

	// Создаём orchestrator
	orch := orchestrator.New(orchestrator.Config{
		Store:     packageRepo,
		Artifacts: artifacts,
		Extractor: ext,
		Generator: gen,
		Renderer:  orchestrator.RendererFunc(renderer.Render),
		Linter:    lin,
		Publisher: publisher,
		Conn:      mqConn,
		Logger:    logger,
	})

	// Возобновляем незавершённые packages
	if err := orch.ResumeAll(ctx); err != nil {
		logger.Error("resume failed", "error", err)
		os.Exit(1)
	}

	// Запускаем orchestrator
	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// Периодическая сверка
	rec := scheduler.New(orch, logger)
	if err := rec.Start(ctx); err != nil {
		logger.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем компоненты
	rec.Stop()
	orch.Stop()
	logger.Info("packsmith-worker stopped")
}
