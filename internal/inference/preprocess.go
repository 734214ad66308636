package inference

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// minOCRWidth is the narrowest image Tesseract handles well; smaller inputs
// are upscaled before recognition.
const minOCRWidth = 640

const jpegQuality = 95

// preprocess decodes the image, upscales narrow inputs and re-encodes to
// JPEG for the OCR engine.
func preprocess(imageData []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("unsupported or corrupt image: %w", err)
	}

	if width := img.Bounds().Dx(); width > 0 && width < minOCRWidth {
		img = resize.Resize(minOCRWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("re-encode %s image: %w", format, err)
	}

	return buf.Bytes(), nil
}
