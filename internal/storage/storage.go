/**
 * Storage interfaces and persisted types for the OCR web service
 *
 * Two external stores back the ingestion path: an object store for raw image
 * bytes and a document store for ingestion metadata. Both are insert-only.
 */

package storage

import (
	"context"
	"time"
)

// ObjectStore persists raw image bytes keyed by image id.
type ObjectStore interface {
	// Store writes the bytes and returns the "bucket/key" path.
	Store(ctx context.Context, data []byte, imageID string) (string, error)
}

// Recorder persists ingestion metadata documents.
type Recorder interface {
	Record(ctx context.Context, rec *IngestRecord) error
}

// IngestRecord links an ingested image to its prediction. Written once,
// never updated or deleted by this service.
type IngestRecord struct {
	ImageID       string    `bson:"image_id" json:"image_id"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	SourceURL     string    `bson:"image_url" json:"image_url"`
	StoragePath   string    `bson:"minio_path" json:"minio_path"`
	PredictedText string    `bson:"predicted_text" json:"predicted_text"`
	Score         float64   `bson:"score" json:"score"`
	Annotation    *string   `bson:"annotation" json:"annotation,omitempty"`
}
