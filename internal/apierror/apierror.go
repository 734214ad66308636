/**
 * Tagged error types for the OCR web service
 *
 * Every failure carries a stage code so callers and operators can tell
 * download, decode, inference, storage and recording failures apart.
 */

package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the stage at which a request failed
type Code string

const (
	CodeInvalidRequest  Code = "invalid_request"
	CodeDownloadFailed  Code = "download_failed"
	CodeDecodeFailed    Code = "decode_failed"
	CodeInferenceFailed Code = "inference_failed"
	CodeStorageFailed   Code = "storage_failed"
	CodeRecordFailed    Code = "record_failed"
	CodeInternal        Code = "internal_error"
)

// APIError represents a structured request processing error
type APIError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Detail returns the human-readable message for response bodies, including
// the underlying cause when present.
func (e *APIError) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// HTTPStatus maps the error code to a response status. Only request
// validation and download failures are the client's fault.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidRequest, CodeDownloadFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Factory functions for common errors

func NewInvalidRequest(message string, cause error) *APIError {
	return &APIError{Code: CodeInvalidRequest, Message: message, Cause: cause}
}

func NewDownloadFailed(url string, cause error) *APIError {
	return &APIError{
		Code:    CodeDownloadFailed,
		Message: fmt.Sprintf("failed to download image from URL %s", url),
		Cause:   cause,
	}
}

func NewDecodeFailed(cause error) *APIError {
	return &APIError{Code: CodeDecodeFailed, Message: "failed to decode image", Cause: cause}
}

func NewInferenceFailed(cause error) *APIError {
	return &APIError{Code: CodeInferenceFailed, Message: "OCR inference failed", Cause: cause}
}

func NewStorageFailed(imageID string, cause error) *APIError {
	return &APIError{
		Code:    CodeStorageFailed,
		Message: fmt.Sprintf("failed to store image %s", imageID),
		Cause:   cause,
	}
}

func NewRecordFailed(imageID string, cause error) *APIError {
	return &APIError{
		Code:    CodeRecordFailed,
		Message: fmt.Sprintf("failed to record metadata for image %s", imageID),
		Cause:   cause,
	}
}

func NewInternal(cause error) *APIError {
	return &APIError{Code: CodeInternal, Message: "internal error", Cause: cause}
}

// From extracts the APIError from err, wrapping unclassified errors as
// internal.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternal(err)
}
