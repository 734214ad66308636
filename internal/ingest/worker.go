/**
 * Background worker for the ingestion path
 *
 * Runs in the same process as the HTTP server and shares its resources.
 * Consumes the store-image and record-metadata tasks; Asynq retries failures
 * and archives tasks whose retries are exhausted.
 */

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/docfraud/ocr-webservice/internal/logging"
	"github.com/docfraud/ocr-webservice/internal/storage"
)

// Worker consumes background ingestion tasks.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	store    storage.ObjectStore
	recorder storage.Recorder
	logger   *logging.Logger
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	RedisURL    string
	QueueName   string
	Concurrency int
	Store       storage.ObjectStore
	Recorder    storage.Recorder
	Logger      *logging.Logger
}

// NewWorker creates a new background worker
func NewWorker(cfg *WorkerConfig) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}

	if cfg.Recorder == nil {
		return nil, fmt.Errorf("Recorder is required")
	}

	if cfg.QueueName == "" {
		cfg.QueueName = "ocr:ingest"
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			// Exponential backoff: 5s, 10s, 20s, ... capped at 60s
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		store:    cfg.Store,
		recorder: cfg.Recorder,
		logger:   logger,
	}

	w.mux.HandleFunc(TypeStoreImage, w.handleStoreImage)
	w.mux.HandleFunc(TypeRecordMetadata, w.handleRecordMetadata)

	return w, nil
}

// Start begins consuming tasks without blocking.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Stop waits for in-flight tasks and shuts the worker down.
func (w *Worker) Stop() {
	w.server.Shutdown()
}

func (w *Worker) handleStoreImage(ctx context.Context, task *asynq.Task) error {
	var p StoreImagePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// malformed payloads never succeed on retry
		return fmt.Errorf("unmarshal store payload: %v: %w", err, asynq.SkipRetry)
	}

	path, err := w.store.Store(ctx, p.ImageData, p.ImageID)
	if err != nil {
		return fmt.Errorf("store image %s: %w", p.ImageID, err)
	}

	w.logger.Info("image stored", "image_id", p.ImageID, "path", path, "bytes", len(p.ImageData))
	return nil
}

func (w *Worker) handleRecordMetadata(ctx context.Context, task *asynq.Task) error {
	var p RecordMetadataPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal record payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.recorder.Record(ctx, &p.Record); err != nil {
		return fmt.Errorf("record metadata %s: %w", p.Record.ImageID, err)
	}

	w.logger.Info("metadata recorded", "image_id", p.Record.ImageID)
	return nil
}
