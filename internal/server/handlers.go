/**
 * HTTP handlers for the OCR web service
 *
 * /predict runs inference on an uploaded file. /ingest downloads a remote
 * image, responds with the prediction, then hands storage and recording to
 * the background queue.
 */

package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docfraud/ocr-webservice/internal/apierror"
	"github.com/docfraud/ocr-webservice/internal/inference"
	"github.com/docfraud/ocr-webservice/internal/ingest"
	"github.com/docfraud/ocr-webservice/internal/logging"
	"github.com/docfraud/ocr-webservice/internal/metrics"
	"github.com/docfraud/ocr-webservice/internal/storage"
)

// StatsProvider reports background queue statistics.
type StatsProvider interface {
	Stats() (*ingest.Stats, error)
}

// Handler holds the collaborators the HTTP routes glue together.
type Handler struct {
	predictor    inference.Predictor
	aggregator   *metrics.Aggregator
	queue        ingest.Enqueuer
	stats        StatsProvider
	bucket       string
	maxImageSize int64
	httpClient   *http.Client
	logger       *logging.Logger
}

// HandlerConfig holds handler dependencies
type HandlerConfig struct {
	Predictor       inference.Predictor
	Aggregator      *metrics.Aggregator
	Queue           ingest.Enqueuer
	Stats           StatsProvider
	Bucket          string
	MaxImageSize    int64
	DownloadTimeout time.Duration
	Logger          *logging.Logger
}

// NewHandler creates the route handler set
func NewHandler(cfg *HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default
	}

	maxImageSize := cfg.MaxImageSize
	if maxImageSize <= 0 {
		maxImageSize = 32 << 20
	}

	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Handler{
		predictor:    cfg.Predictor,
		aggregator:   cfg.Aggregator,
		queue:        cfg.Queue,
		stats:        cfg.Stats,
		bucket:       cfg.Bucket,
		maxImageSize: maxImageSize,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// PredictResponse is the body returned by /predict.
type PredictResponse struct {
	PredictedText string  `json:"predicted_text"`
	Score         float64 `json:"score"`
}

// IngestRequest is the body accepted by /ingest.
type IngestRequest struct {
	ImageURL   string  `json:"image_url" binding:"required,url"`
	Annotation *string `json:"annotation"`
}

// IngestResponse is the body returned by /ingest.
type IngestResponse struct {
	Status        string  `json:"status"`
	ImageID       string  `json:"image_id"`
	PredictedText string  `json:"predicted_text"`
	Score         float64 `json:"score"`
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Root handles GET / and redirects to the docs, honoring any path prefix the
// service is mounted under.
func (h *Handler) Root(c *gin.Context) {
	prefix := strings.TrimSuffix(c.GetHeader("X-Forwarded-Prefix"), "/")
	c.Redirect(http.StatusFound, prefix+"/docs")
}

// Docs handles GET /docs with a machine-readable route listing.
func (h *Handler) Docs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "ocr-webservice",
		"endpoints": []gin.H{
			{"method": "GET", "path": "/health", "description": "health check"},
			{"method": "POST", "path": "/predict", "description": "OCR prediction for an uploaded image file (multipart field 'file')"},
			{"method": "POST", "path": "/ingest", "description": "download an image by URL, predict and persist it"},
			{"method": "GET", "path": "/metrics", "description": "Prometheus metrics exposition"},
			{"method": "GET", "path": "/queue/stats", "description": "background queue counters"},
		},
	})
}

// Predict handles POST /predict
func (h *Handler) Predict(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, apierror.NewInvalidRequest("missing multipart file field 'file'", err))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		writeError(c, apierror.NewInvalidRequest("unreadable upload", err))
		return
	}
	defer src.Close()

	// spool through a scratch file, removed on every exit path
	tmp, err := os.CreateTemp("", "predict-*.jpg")
	if err != nil {
		writeError(c, apierror.NewInternal(err))
		return
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, copyErr := io.Copy(tmp, io.LimitReader(src, h.maxImageSize))
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		writeError(c, apierror.NewInternal(copyErr))
		return
	}

	imageData, err := os.ReadFile(tmpName)
	if err != nil {
		writeError(c, apierror.NewInternal(err))
		return
	}

	pred, err := h.predictor.Predict(c.Request.Context(), imageData)
	if err != nil {
		h.logger.Error("prediction failed", "error", err)
		writeError(c, err)
		return
	}

	h.aggregator.Observe(pred.Score)

	c.JSON(http.StatusOK, PredictResponse{PredictedText: pred.Text, Score: pred.Score})
}

// Ingest handles POST /ingest
func (h *Handler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierror.NewInvalidRequest("invalid ingest request body", err))
		return
	}

	imageData, err := h.download(req.ImageURL)
	if err != nil {
		h.logger.Warn("download failed", "url", req.ImageURL, "error", err)
		writeError(c, err)
		return
	}

	pred, err := h.predictor.Predict(c.Request.Context(), imageData)
	if err != nil {
		h.logger.Error("prediction failed", "url", req.ImageURL, "error", err)
		writeError(c, err)
		return
	}

	h.aggregator.Observe(pred.Score)

	imageID := newImageID(time.Now())

	c.JSON(http.StatusOK, IngestResponse{
		Status:        "success",
		ImageID:       imageID,
		PredictedText: pred.Text,
		Score:         pred.Score,
	})

	// response written; storage and recording run on the background queue
	if err := h.queue.EnqueueStoreImage(imageID, imageData); err != nil {
		h.logger.Error("failed to enqueue image store", "image_id", imageID, "error", err)
	}

	rec := &storage.IngestRecord{
		ImageID:       imageID,
		Timestamp:     time.Now().UTC(),
		SourceURL:     req.ImageURL,
		StoragePath:   storage.StoragePath(h.bucket, imageID),
		PredictedText: pred.Text,
		Score:         pred.Score,
		Annotation:    req.Annotation,
	}
	if err := h.queue.EnqueueRecordMetadata(rec); err != nil {
		h.logger.Error("failed to enqueue metadata record", "image_id", imageID, "error", err)
	}
}

// QueueStats handles GET /queue/stats
func (h *Handler) QueueStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue statistics unavailable"})
		return
	}

	stats, err := h.stats.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// download fetches the remote image within the configured timeout. All
// failures here are the distinguished download error class.
func (h *Handler) download(rawURL string) ([]byte, error) {
	resp, err := h.httpClient.Get(rawURL)
	if err != nil {
		return nil, apierror.NewDownloadFailed(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierror.NewDownloadFailed(rawURL, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxImageSize+1))
	if err != nil {
		return nil, apierror.NewDownloadFailed(rawURL, err)
	}

	if int64(len(data)) > h.maxImageSize {
		return nil, apierror.NewDownloadFailed(rawURL, fmt.Errorf("image exceeds %d byte limit", h.maxImageSize))
	}

	return data, nil
}

// newImageID builds a microsecond-resolution timestamp id with a random
// suffix, so concurrent ingestions cannot collide.
func newImageID(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s_%06d_%s",
		now.Format("20060102_150405"),
		now.Nanosecond()/1000,
		uuid.NewString()[:8],
	)
}

func writeError(c *gin.Context, err error) {
	apiErr := apierror.From(err)
	c.JSON(apiErr.HTTPStatus(), gin.H{
		"error": apiErr.Detail(),
		"code":  string(apiErr.Code),
	})
}
