package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/docfraud/ocr-webservice/internal/storage"
)

type fakeStore struct {
	data map[string][]byte
	err  error
}

func (f *fakeStore) Store(ctx context.Context, data []byte, imageID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[imageID] = data
	return "images/" + imageID + ".jpg", nil
}

type fakeRecorder struct {
	records []storage.IngestRecord
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, rec *storage.IngestRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *rec)
	return nil
}

func newTestWorker(t *testing.T, store storage.ObjectStore, recorder storage.Recorder) *Worker {
	t.Helper()

	w, err := NewWorker(&WorkerConfig{
		RedisURL:    "redis://localhost:6379",
		QueueName:   "ocr:test",
		Concurrency: 1,
		Store:       store,
		Recorder:    recorder,
	})
	if err != nil {
		t.Fatalf("NewWorker() error = %v", err)
	}
	return w
}

func TestNewWorkerRequiresDependencies(t *testing.T) {
	tests := []struct {
		name string
		cfg  *WorkerConfig
	}{
		{"missing redis url", &WorkerConfig{Store: &fakeStore{}, Recorder: &fakeRecorder{}}},
		{"missing store", &WorkerConfig{RedisURL: "redis://localhost:6379", Recorder: &fakeRecorder{}}},
		{"missing recorder", &WorkerConfig{RedisURL: "redis://localhost:6379", Store: &fakeStore{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWorker(tt.cfg); err == nil {
				t.Errorf("NewWorker() should fail")
			}
		})
	}
}

func TestHandleStoreImage(t *testing.T) {
	store := &fakeStore{}
	w := newTestWorker(t, store, &fakeRecorder{})

	imageData := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}
	payload, err := json.Marshal(StoreImagePayload{ImageID: "img-1", ImageData: imageData})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	task := asynq.NewTask(TypeStoreImage, payload)
	if err := w.handleStoreImage(context.Background(), task); err != nil {
		t.Fatalf("handleStoreImage() error = %v", err)
	}

	if !bytes.Equal(store.data["img-1"], imageData) {
		t.Errorf("stored bytes = %v, want %v", store.data["img-1"], imageData)
	}
}

func TestHandleStoreImageFailureRetries(t *testing.T) {
	store := &fakeStore{err: errors.New("minio unreachable")}
	w := newTestWorker(t, store, &fakeRecorder{})

	payload, _ := json.Marshal(StoreImagePayload{ImageID: "img-1", ImageData: []byte{1}})
	task := asynq.NewTask(TypeStoreImage, payload)

	err := w.handleStoreImage(context.Background(), task)
	if err == nil {
		t.Fatalf("handleStoreImage() should fail")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Errorf("store failure must stay retryable, got SkipRetry")
	}
}

func TestHandleStoreImageMalformedPayload(t *testing.T) {
	w := newTestWorker(t, &fakeStore{}, &fakeRecorder{})

	task := asynq.NewTask(TypeStoreImage, []byte("not json"))
	err := w.handleStoreImage(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("malformed payload should skip retries, got %v", err)
	}
}

func TestHandleRecordMetadata(t *testing.T) {
	recorder := &fakeRecorder{}
	w := newTestWorker(t, &fakeStore{}, recorder)

	annotation := "industrie"
	rec := storage.IngestRecord{
		ImageID:       "img-2",
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SourceURL:     "http://example.com/a.jpg",
		StoragePath:   "images/img-2.jpg",
		PredictedText: "industrie",
		Score:         0.93,
		Annotation:    &annotation,
	}
	payload, err := json.Marshal(RecordMetadataPayload{Record: rec})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	task := asynq.NewTask(TypeRecordMetadata, payload)
	if err := w.handleRecordMetadata(context.Background(), task); err != nil {
		t.Fatalf("handleRecordMetadata() error = %v", err)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("records = %d, want 1", len(recorder.records))
	}
	got := recorder.records[0]
	if got.ImageID != rec.ImageID || got.SourceURL != rec.SourceURL || got.Score != rec.Score {
		t.Errorf("recorded = %+v, want %+v", got, rec)
	}
	if got.Annotation == nil || *got.Annotation != annotation {
		t.Errorf("recorded annotation = %v, want %q", got.Annotation, annotation)
	}
}

func TestHandleRecordMetadataFailureRetries(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("mongo unreachable")}
	w := newTestWorker(t, &fakeStore{}, recorder)

	payload, _ := json.Marshal(RecordMetadataPayload{Record: storage.IngestRecord{ImageID: "img-3"}})
	task := asynq.NewTask(TypeRecordMetadata, payload)

	err := w.handleRecordMetadata(context.Background(), task)
	if err == nil {
		t.Fatalf("handleRecordMetadata() should fail")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Errorf("recorder failure must stay retryable, got SkipRetry")
	}
}

func TestStoreImagePayloadRoundTripsBytes(t *testing.T) {
	// image bytes travel base64-encoded through the queue and must survive
	// untouched
	original := StoreImagePayload{ImageID: "img-4", ImageData: []byte{0x00, 0xff, 0x10, 0x80}}

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded StoreImagePayload
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.ImageData, original.ImageData) {
		t.Errorf("decoded bytes = %v, want %v", decoded.ImageData, original.ImageData)
	}
}
