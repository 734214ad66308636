/**
 * OCR inference engine
 *
 * Wraps Tesseract via gosseract. The engine is constructed once at startup
 * and injected into the request handlers; each Predict call uses its own
 * Tesseract client, so concurrent calls never share native state.
 */

package inference

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/docfraud/ocr-webservice/internal/apierror"
)

// Prediction is the result of one inference call.
type Prediction struct {
	Text  string
	Score float64
}

// Predictor turns raw image bytes into recognized text plus a confidence
// score in (0, 1].
type Predictor interface {
	Predict(ctx context.Context, imageData []byte) (Prediction, error)
}

// Engine is the Tesseract-backed Predictor.
type Engine struct {
	language string
}

// NewEngine creates an engine recognizing the given Tesseract language
// (e.g. "eng").
func NewEngine(language string) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{language: language}
}

// Predict runs OCR on the image. Decode failures and OCR failures are
// reported as distinct error stages; there is no retry.
func (e *Engine) Predict(ctx context.Context, imageData []byte) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	normalized, err := preprocess(imageData)
	if err != nil {
		return Prediction{}, apierror.NewDecodeFailed(err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return Prediction{}, apierror.NewInferenceFailed(fmt.Errorf("set language %q: %w", e.language, err))
	}

	if err := client.SetImageFromBytes(normalized); err != nil {
		return Prediction{}, apierror.NewInferenceFailed(fmt.Errorf("set image: %w", err))
	}

	text, err := client.Text()
	if err != nil {
		return Prediction{}, apierror.NewInferenceFailed(err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Prediction{}, apierror.NewInferenceFailed(fmt.Errorf("word confidences: %w", err))
	}

	return Prediction{Text: text, Score: confidenceFromWords(boxes)}, nil
}

// confidenceFromWords averages Tesseract's word-level confidences (0-100)
// into a score in [0, 1].
func confidenceFromWords(boxes []gosseract.BoundingBox) float64 {
	if len(boxes) == 0 {
		return 0
	}

	sum := 0.0
	for _, b := range boxes {
		sum += b.Confidence
	}

	score := sum / float64(len(boxes)) / 100.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
