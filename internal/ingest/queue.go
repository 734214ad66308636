/**
 * Task queue client for the ingestion path
 *
 * Uses Asynq over Redis. Tasks are retried with capped exponential backoff
 * and archived once retries are exhausted, so failed background work stays
 * observable instead of vanishing.
 */

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/docfraud/ocr-webservice/internal/storage"
)

const (
	maxTaskRetries = 5
	taskRetention  = 24 * time.Hour
)

// Queue enqueues background tasks and reports queue statistics.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queueName string
}

// QueueConfig holds queue client configuration
type QueueConfig struct {
	RedisURL  string
	QueueName string
}

// NewQueue creates a queue client and verifies Redis connectivity.
func NewQueue(cfg *QueueConfig) (*Queue, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		cfg.QueueName = "ocr:ingest"
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Test connection before handing the client out
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	probe := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := probe.Ping(ctx).Err(); err != nil {
		probe.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	probe.Close()

	return &Queue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		queueName: cfg.QueueName,
	}, nil
}

// EnqueueStoreImage schedules the image upload task.
func (q *Queue) EnqueueStoreImage(imageID string, imageData []byte) error {
	payload, err := json.Marshal(StoreImagePayload{ImageID: imageID, ImageData: imageData})
	if err != nil {
		return fmt.Errorf("failed to marshal store payload: %w", err)
	}
	return q.enqueue(TypeStoreImage, payload)
}

// EnqueueRecordMetadata schedules the metadata recording task.
func (q *Queue) EnqueueRecordMetadata(rec *storage.IngestRecord) error {
	payload, err := json.Marshal(RecordMetadataPayload{Record: *rec})
	if err != nil {
		return fmt.Errorf("failed to marshal record payload: %w", err)
	}
	return q.enqueue(TypeRecordMetadata, payload)
}

func (q *Queue) enqueue(taskType string, payload []byte) error {
	task := asynq.NewTask(taskType, payload)
	_, err := q.client.Enqueue(task,
		asynq.Queue(q.queueName),
		asynq.MaxRetry(maxTaskRetries),
		asynq.Retention(taskRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	return nil
}

// Stats summarizes the state of the ingestion queue.
type Stats struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Retry     int `json:"retry"`
	Archived  int `json:"archived"`
	Completed int `json:"completed"`
}

// Stats returns current queue counters, including archived (dead-lettered)
// tasks.
func (q *Queue) Stats() (*Stats, error) {
	info, err := q.inspector.GetQueueInfo(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}

	return &Stats{
		Pending:   info.Pending,
		Active:    info.Active,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Completed: info.Completed,
	}, nil
}

// Close releases the queue client connections.
func (q *Queue) Close() error {
	if err := q.inspector.Close(); err != nil {
		q.client.Close()
		return err
	}
	return q.client.Close()
}
