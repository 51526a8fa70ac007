package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ats-analyzer/internal/ingestion"
	"github.com/jonathan/ats-analyzer/internal/logger"
	"github.com/jonathan/ats-analyzer/internal/observability"
	"github.com/jonathan/ats-analyzer/internal/scoring"
	"github.com/jonathan/ats-analyzer/internal/types"
	"go.uber.org/zap"
)

const (
	// uploadField is the multipart field holding the resume
	uploadField = "resume"
	// multipartOverhead is the body allowance for multipart framing on top of the file limit
	multipartOverhead = 64 * 1024
	// phaseEventBuffer holds every phase event of one analysis
	phaseEventBuffer = 16
	// maxLoggedFilename bounds client-supplied filenames in log fields
	maxLoggedFilename = 120
	// timestampLayout matches millisecond ISO-8601 timestamps
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	serviceName = "Resume Analyzer"
	serviceMode = "enhanced_algorithm"
	apiVersion  = "2.0"
)

// AnalysisResponse is the success envelope
type AnalysisResponse struct {
	Success  bool             `json:"success"`
	Analysis AnalysisEnvelope `json:"analysis"`
}

// AnalysisEnvelope is a report stamped with the time it was produced
type AnalysisEnvelope struct {
	*types.Report
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TextRequest is the body of POST /api/analyze/text
type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
}

// InfoResponse is returned by GET /
type InfoResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoint  string   `json:"endpoint"`
	Endpoints []string `json:"endpoints"`
	Mode      string   `json:"mode"`
}

// upload is a resume file read from a multipart request
type upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// handleAnalyze scores an uploaded resume file
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	up, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	log = log.With(zap.String(logger.FieldFile, logger.TruncateForLog(up.Filename, maxLoggedFilename)))
	log.Info("processing upload", zap.Int("bytes", len(up.Data)))

	text, err := s.extractText(r.Context(), log, up)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	report, err := s.analyze(r.Context(), s.analyzer.Observed(observability.NewZapReporter(log)), text)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	log.Info("analysis complete", zap.Int(logger.FieldScore, report.ATSScore), zap.Int("raw_score", report.RawScore))
	s.jsonResponse(w, http.StatusOK, s.success(report))
}

// handleAnalyzeText scores resume text posted as JSON
func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.fail(w, log, err)
			return
		}
		s.fail(w, log, errInvalidRequest("Request body must be JSON with a \"text\" field", err))
		return
	}

	req.Text = strings.TrimSpace(ingestion.CleanText(req.Text))
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, log, errTextTooShort(s.minTextChars, err))
		return
	}
	if err := s.validate.Var(req.Text, fmt.Sprintf("min=%d", s.minTextChars)); err != nil {
		s.fail(w, log, errTextTooShort(s.minTextChars, err))
		return
	}

	report, err := s.analyze(r.Context(), s.analyzer.Observed(observability.NewZapReporter(log)), req.Text)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	log.Info("analysis complete", zap.Int(logger.FieldScore, report.ATSScore), zap.Int("raw_score", report.RawScore))
	s.jsonResponse(w, http.StatusOK, s.success(report))
}

// handleAnalyzeStream scores an uploaded resume, streaming phase events
// before a final complete event. Upload and extraction failures are reported
// as ordinary JSON errors since no stream has started yet.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	up, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	log = log.With(zap.String(logger.FieldFile, logger.TruncateForLog(up.Filename, maxLoggedFilename)))

	text, err := s.extractText(r.Context(), log, up)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.fail(w, log, errAnalysisFailed(err))
		return
	}

	type result struct {
		report *types.Report
		err    error
	}

	events := make(chan observability.PhaseEvent, phaseEventBuffer)
	done := make(chan result, 1)
	analyzer := s.analyzer.Observed(observability.MultiReporter{
		observability.NewZapReporter(log),
		observability.NewChannelReporter(events),
	})

	go func() {
		defer close(events)
		report, err := s.analyze(r.Context(), analyzer, text)
		done <- result{report: report, err: err}
	}()

	for ev := range events {
		if err := sse.WriteEvent(EventPhase, ev); err != nil {
			log.Debug("dropping phase event", zap.Error(err))
		}
	}

	res := <-done
	if res.err != nil {
		apiErr := toAPIError(res.err, s.maxUploadBytes)
		log.Error("streamed analysis failed", zap.Error(res.err))
		if err := sse.WriteError(apiErr); err != nil {
			log.Debug("client gone before error event", zap.Error(err))
		}
		return
	}

	log.Info("analysis complete", zap.Int(logger.FieldScore, res.report.ATSScore))
	if err := sse.WriteComplete(s.success(res.report)); err != nil {
		log.Debug("client gone before complete event", zap.Error(err))
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: s.timestamp(),
		Mode:      serviceMode,
	})
}

// handleRoot describes the API
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, InfoResponse{
		Message:  serviceName + " API",
		Version:  apiVersion,
		Endpoint: "POST /api/analyze",
		Endpoints: []string{
			"POST /api/analyze",
			"POST /api/analyze/text",
			"POST /api/analyze/stream",
			"GET /health",
		},
		Mode: "Enhanced Algorithm (No API required)",
	})
}

// readUpload reads the resume field of a multipart request, enforcing the size limit
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(s.maxUploadBytes + multipartOverhead); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > s.maxUploadBytes {
		return nil, errTooLarge(s.maxUploadBytes, nil)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, errTooLarge(s.maxUploadBytes, nil)
	}

	return &upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// extractText recovers text from an upload and rejects text too short to score
func (s *Server) extractText(ctx context.Context, log *zap.Logger, up *upload) (string, error) {
	doc, err := s.extractor.Extract(ctx, up.Data, up.Filename, up.ContentType)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(doc.Text)
	log.Debug("text extracted",
		zap.String("format", string(doc.Metadata.Format)),
		zap.String("method", doc.Metadata.Method),
		zap.Bool("fallback", doc.Metadata.Fallback),
		zap.Int("chars", utf8.RuneCountInString(text)),
	)

	if utf8.RuneCountInString(text) < s.minTextChars {
		return "", errEmptyFile()
	}
	return text, nil
}

// analyze runs the analyzer, converting a panic into an error
func (s *Server) analyze(ctx context.Context, analyzer *scoring.Analyzer, text string) (report *types.Report, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			report, err = nil, fmt.Errorf("analysis panicked: %v", rec)
		}
	}()

	return analyzer.Analyze(text), nil
}

func (s *Server) success(report *types.Report) AnalysisResponse {
	return AnalysisResponse{
		Success:  true,
		Analysis: AnalysisEnvelope{Report: report, Timestamp: s.timestamp()},
	}
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}
