package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// SSE event names
const (
	EventPhase    = "phase"
	EventComplete = "complete"
	EventError    = "error"
)

// errStreamingUnsupported is returned when the response cannot be flushed
var errStreamingUnsupported = errors.New("streaming not supported")

// SSEWriter writes Server-Sent Events with JSON payloads
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter commits a 200 event-stream response and returns a writer for it
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one "event:"/"data:" frame and flushes it
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	var frame bytes.Buffer
	frame.Grow(len(event) + len(payload) + 16)
	frame.WriteString("event: ")
	frame.WriteString(event)
	frame.WriteString("\ndata: ")
	frame.Write(payload)
	frame.WriteString("\n\n")

	if _, err := s.w.Write(frame.Bytes()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends the error envelope as the final event
func (s *SSEWriter) WriteError(apiErr *APIError) error {
	return s.WriteEvent(EventError, ErrorResponse{
		Success: false,
		Error:   apiErr.Title,
		Message: apiErr.Message,
	})
}

// WriteComplete sends the analysis envelope as the final event
func (s *SSEWriter) WriteComplete(resp AnalysisResponse) error {
	return s.WriteEvent(EventComplete, resp)
}
