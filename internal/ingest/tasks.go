/**
 * Background task definitions for the ingestion path
 *
 * The ingest handler responds first and then enqueues two independent tasks:
 * one uploads the raw image bytes, the other records the metadata document.
 * No ordering is guaranteed between them.
 */

package ingest

import (
	"github.com/docfraud/ocr-webservice/internal/storage"
)

// Task type names on the queue
const (
	TypeStoreImage     = "ocr:store_image"
	TypeRecordMetadata = "ocr:record_metadata"
)

// StoreImagePayload carries the raw bytes for the image upload task.
// JSON encodes ImageData as base64.
type StoreImagePayload struct {
	ImageID   string `json:"imageId"`
	ImageData []byte `json:"imageData"`
}

// RecordMetadataPayload carries the metadata document for the recorder task.
type RecordMetadataPayload struct {
	Record storage.IngestRecord `json:"record"`
}

// Enqueuer schedules the post-response storage and recording work.
type Enqueuer interface {
	EnqueueStoreImage(imageID string, imageData []byte) error
	EnqueueRecordMetadata(rec *storage.IngestRecord) error
}
