// Package server provides the HTTP REST API for the resume analyzer.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/ats-analyzer/internal/ingestion"
)

// Error envelope titles returned in the "error" field
const (
	ErrTitleNoFile         = "No file uploaded"
	ErrTitleTooLarge       = "File Too Large"
	ErrTitleEmptyFile      = "Empty File"
	ErrTitleFileError      = "File Error"
	ErrTitleAnalysisFailed = "Analysis Failed"
	ErrTitleInvalidRequest = "Invalid Request"
	ErrTitleTextTooShort   = "Text Too Short"
)

// APIError is a failure reported to the client as {success:false, error, message}
type APIError struct {
	Status  int
	Title   string
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func errNoFile(cause error) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Title:   ErrTitleNoFile,
		Message: "Please select a resume file",
		Cause:   cause,
	}
}

func errTooLarge(limit int64, cause error) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Title:   ErrTitleTooLarge,
		Message: fmt.Sprintf("File size exceeds %s limit", formatBytes(limit)),
		Cause:   cause,
	}
}

func errEmptyFile() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Title:   ErrTitleEmptyFile,
		Message: "File contains no readable text",
	}
}

func errTextTooShort(minChars int, cause error) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Title:   ErrTitleTextTooShort,
		Message: fmt.Sprintf("Resume text must contain at least %d characters", minChars),
		Cause:   cause,
	}
}

func errInvalidRequest(message string, cause error) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Title:   ErrTitleInvalidRequest,
		Message: message,
		Cause:   cause,
	}
}

func errAnalysisFailed(cause error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Title:   ErrTitleAnalysisFailed,
		Message: "An unexpected error occurred",
		Cause:   cause,
	}
}

// toAPIError classifies err for the response envelope. limit is the upload
// size limit used in the 413 message.
func toAPIError(err error, limit int64) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return errTooLarge(limit, err)
	}

	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return errNoFile(err)
	}

	var extractErr *ingestion.ExtractionError
	if errors.As(err, &extractErr) {
		return &APIError{
			Status:  http.StatusBadRequest,
			Title:   ErrTitleFileError,
			Message: extractErr.Message,
			Cause:   err,
		}
	}

	return errAnalysisFailed(err)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return toAPIError(err, 0).Status
}

// formatBytes renders whole mebibytes as "5MB" and anything else in bytes
func formatBytes(n int64) string {
	const mib = 1024 * 1024
	if n > 0 && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
