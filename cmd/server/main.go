/**
 * OCR Web Service - Main Entry Point
 *
 * HTTP service that runs uploaded or URL-referenced images through Tesseract
 * OCR and returns the recognized text with a confidence score.
 *
 * Architecture:
 * - Gin HTTP server for the prediction and ingestion endpoints
 * - Asynq consumer over Redis for post-response storage and recording
 * - MinIO object storage for raw image bytes
 * - MongoDB persistence for ingestion metadata
 * - Prometheus metrics with a rolling confidence-score average
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/docfraud/ocr-webservice/internal/config"
	"github.com/docfraud/ocr-webservice/internal/inference"
	"github.com/docfraud/ocr-webservice/internal/ingest"
	"github.com/docfraud/ocr-webservice/internal/logging"
	"github.com/docfraud/ocr-webservice/internal/metrics"
	"github.com/docfraud/ocr-webservice/internal/server"
	"github.com/docfraud/ocr-webservice/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("server")
	logger.Info("starting OCR web service",
		"addr", cfg.ServerAddr,
		"minio", cfg.MinioEndpoint,
		"mongo", cfg.MongoURI,
		"redis", cfg.RedisURL,
		"workers", cfg.WorkerConcurrency,
	)

	// Metrics aggregator on the default registry
	aggregator := metrics.NewAggregator(prometheus.DefaultRegisterer, config.LowScoreThreshold)

	// OCR engine, loaded once and shared
	engine := inference.NewEngine(cfg.TesseractLang)

	// Object store
	store, err := storage.NewMinioStore(&storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureBucket(bootCtx); err != nil {
		logger.Warn("could not ensure bucket at startup, will retry per upload", "error", err)
	}

	// Metadata recorder
	recorder, err := storage.NewMongoRecorder(bootCtx, cfg.MongoURI, cfg.MongoDB, cfg.MongoCollection)
	cancelBoot()
	if err != nil {
		log.Fatalf("Failed to initialize metadata recorder: %v", err)
	}
	logger.Info("metadata recorder initialized", "db", cfg.MongoDB, "collection", cfg.MongoCollection)

	// Background task queue and worker
	queue, err := ingest.NewQueue(&ingest.QueueConfig{
		RedisURL:  cfg.RedisURL,
		QueueName: cfg.QueueName,
	})
	if err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}

	worker, err := ingest.NewWorker(&ingest.WorkerConfig{
		RedisURL:    cfg.RedisURL,
		QueueName:   cfg.QueueName,
		Concurrency: cfg.WorkerConcurrency,
		Store:       store,
		Recorder:    recorder,
		Logger:      logging.NewLogger("worker"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize background worker: %v", err)
	}

	if err := worker.Start(); err != nil {
		log.Fatalf("Failed to start background worker: %v", err)
	}
	logger.Info("background worker started", "queue", cfg.QueueName, "concurrency", cfg.WorkerConcurrency)

	// HTTP server
	handler := server.NewHandler(&server.HandlerConfig{
		Predictor:       engine,
		Aggregator:      aggregator,
		Queue:           queue,
		Stats:           queue,
		Bucket:          cfg.MinioBucket,
		MaxImageSize:    cfg.MaxImageSize,
		DownloadTimeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: server.Router(handler, prometheus.DefaultGatherer),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	worker.Stop()

	if err := queue.Close(); err != nil {
		logger.Error("queue close error", "error", err)
	}

	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("recorder close error", "error", err)
	}

	logger.Info("shutdown complete")
}
