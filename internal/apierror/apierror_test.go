package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want int
	}{
		{"download is client error", NewDownloadFailed("http://example.com/a.jpg", errors.New("timeout")), http.StatusBadRequest},
		{"invalid request is client error", NewInvalidRequest("bad body", nil), http.StatusBadRequest},
		{"decode is server error", NewDecodeFailed(errors.New("bad jpeg")), http.StatusInternalServerError},
		{"inference is server error", NewInferenceFailed(errors.New("boom")), http.StatusInternalServerError},
		{"storage is server error", NewStorageFailed("img1", errors.New("unreachable")), http.StatusInternalServerError},
		{"record is server error", NewRecordFailed("img1", errors.New("unreachable")), http.StatusInternalServerError},
		{"internal is server error", NewInternal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDownloadFailed("http://example.com/a.jpg", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should find the cause through Unwrap")
	}
}

func TestDetailIncludesCause(t *testing.T) {
	err := NewDownloadFailed("http://example.com/a.jpg", errors.New("connection refused"))

	detail := err.Detail()
	if !strings.Contains(detail, "connection refused") {
		t.Errorf("Detail() = %q, want it to mention the cause", detail)
	}
	if !strings.Contains(detail, "http://example.com/a.jpg") {
		t.Errorf("Detail() = %q, want it to mention the URL", detail)
	}
}

func TestFrom(t *testing.T) {
	apiErr := NewDecodeFailed(errors.New("bad"))

	if got := From(apiErr); got.Code != CodeDecodeFailed {
		t.Errorf("From(APIError).Code = %q, want %q", got.Code, CodeDecodeFailed)
	}

	wrapped := fmt.Errorf("handler: %w", apiErr)
	if got := From(wrapped); got.Code != CodeDecodeFailed {
		t.Errorf("From(wrapped).Code = %q, want %q", got.Code, CodeDecodeFailed)
	}

	plain := errors.New("something broke")
	got := From(plain)
	if got.Code != CodeInternal {
		t.Errorf("From(plain).Code = %q, want %q", got.Code, CodeInternal)
	}
	if !errors.Is(got, plain) {
		t.Errorf("From(plain) should keep the cause")
	}
}
