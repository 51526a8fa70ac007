package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/ats-analyzer/internal/ingestion"
	"github.com/jonathan/ats-analyzer/internal/schemas"
	"github.com/jonathan/ats-analyzer/internal/scoring"
	"github.com/jonathan/ats-analyzer/internal/server/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestServer builds a server with rate limiting disabled and an observed logger
func newTestServer(t *testing.T, mutate ...func(*Config)) (*Server, *observer.ObservedLogs) {
	t.Helper()

	analyzer, err := scoring.NewAnalyzer(scoring.WithCurrentYear(2025))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	cfg := Config{
		Analyzer:  analyzer,
		Logger:    zap.New(core),
		RateLimit: &ratelimit.Config{Enabled: false},
	}
	for _, m := range mutate {
		m(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	s.now = func() time.Time { return fixedNow }
	return s, logs
}

func loadResume(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "scoring", "testdata", "strong_resume.txt"))
	require.NoError(t, err)
	return data
}

// uploadRequest builds a multipart request with one file part
func uploadRequest(t *testing.T, path, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

// decodeAnalysis returns the raw analysis object after checking the envelope
func decodeAnalysis(t *testing.T, body []byte) map[string]json.RawMessage {
	t.Helper()
	var envelope struct {
		Success  bool                       `json:"success"`
		Analysis map[string]json.RawMessage `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success)
	return envelope.Analysis
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "Resume Analyzer", resp.Service)
	assert.Equal(t, "enhanced_algorithm", resp.Mode)
	assert.Equal(t, "2025-03-01T12:00:00.000Z", resp.Timestamp)

	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
}

func TestRootEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Resume Analyzer API", resp.Message)
	assert.Equal(t, "POST /api/analyze", resp.Endpoint)
	assert.Contains(t, resp.Endpoints, "POST /api/analyze/stream")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyze_Upload(t *testing.T) {
	s, logs := newTestServer(t)

	w := serve(s, uploadRequest(t, "/api/analyze", "resume", "resume.txt", "text/plain", loadResume(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	analysis := decodeAnalysis(t, w.Body.Bytes())
	var score int
	require.NoError(t, json.Unmarshal(analysis["ats_score"], &score))
	assert.GreaterOrEqual(t, score, 80)
	assert.JSONEq(t, `"2025-03-01T12:00:00.000Z"`, string(analysis["timestamp"]))
	assert.JSONEq(t, `"pro_ats_engine"`, string(analysis["analyzed_by"]))

	raw, err := json.Marshal(analysis)
	require.NoError(t, err)
	assert.NoError(t, schemas.ValidateReportJSON(raw))

	assert.Equal(t, 1, logs.FilterMessage("analysis complete").Len())
	assert.Equal(t, 5, logs.FilterMessage("phase completed").Len())
}

func TestAnalyze_NoFile(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("wrong field", func(t *testing.T) {
		w := serve(s, uploadRequest(t, "/api/analyze", "document", "resume.txt", "text/plain", loadResume(t)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "No file uploaded", resp.Error)
		assert.Equal(t, "Please select a resume file", resp.Message)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := serve(s, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file uploaded", decodeError(t, w).Error)
	})
}

func TestAnalyze_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.MaxUploadBytes = 1024 })

	data := bytes.Repeat([]byte("Engineer "), 300)
	w := serve(s, uploadRequest(t, "/api/analyze", "resume", "resume.txt", "text/plain", data))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "File Too Large", resp.Error)
	assert.Equal(t, "File size exceeds 1024 bytes limit", resp.Message)
}

func TestAnalyze_EmptyFile(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, uploadRequest(t, "/api/analyze", "resume", "resume.txt", "text/plain", []byte("Just a name")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Empty File", resp.Error)
	assert.Equal(t, "File contains no readable text", resp.Message)
}

func TestAnalyze_UnreadableFile(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, uploadRequest(t, "/api/analyze", "resume", "resume.pdf", "application/pdf", []byte("%PDF-1.4\n%%EOF")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "File Error", resp.Error)
	assert.Equal(t, ingestion.ErrUnreadableMessage, resp.Message)
}

func TestAnalyzeText(t *testing.T) {
	s, _ := newTestServer(t)

	body, err := json.Marshal(TextRequest{Text: string(loadResume(t))})
	require.NoError(t, err)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/api/analyze/text", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	analysis := decodeAnalysis(t, w.Body.Bytes())
	raw, err := json.Marshal(analysis)
	require.NoError(t, err)
	assert.NoError(t, schemas.ValidateReportJSON(raw))
}

func TestAnalyzeText_Rejected(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		title string
	}{
		{"malformed", `{"text":`, ErrTitleInvalidRequest},
		{"missing text", `{}`, ErrTitleTextTooShort},
		{"whitespace only", `{"text":"   \n\t  "}`, ErrTitleTextTooShort},
		{"too short", `{"text":"Software engineer with Go experience"}`, ErrTitleTextTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodPost, "/api/analyze/text", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.title, decodeError(t, w).Error)
		})
	}
}

func TestAnalyzeStream(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, uploadRequest(t, "/api/analyze/stream", "resume", "resume.txt", "text/plain", loadResume(t)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 10, strings.Count(body, "event: phase\n"))
	assert.Equal(t, 1, strings.Count(body, "event: complete\n"))

	var lastData string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			lastData = strings.TrimPrefix(line, "data: ")
		}
	}
	analysis := decodeAnalysis(t, []byte(lastData))
	assert.Contains(t, analysis, "ats_score")
}

func TestAnalyzeStream_ErrorBeforeStream(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, uploadRequest(t, "/api/analyze/stream", "resume", "resume.txt", "text/plain", []byte("tiny")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "Empty File", decodeError(t, w).Error)
}

func TestRateLimit(t *testing.T) {
	s, logs := newTestServer(t, func(c *Config) {
		c.RateLimit = &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/api/analyze/text", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
			},
		}
	})

	first := serve(s, httptest.NewRequest(http.MethodPost, "/api/analyze/text", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := serve(s, httptest.NewRequest(http.MethodPost, "/api/analyze/text", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.NotEmpty(t, second.Header().Get(HeaderRequestID))
	assert.Equal(t, "Too Many Requests", decodeError(t, second).Error)
	assert.Equal(t, 1, logs.FilterMessage("rate limit exceeded").Len())

	health := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRequestID(t *testing.T) {
	s, logs := newTestServer(t)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, incoming)
	w := serve(s, req)
	assert.Equal(t, incoming, w.Header().Get(HeaderRequestID))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, incoming, ctx["request_id"])
	assert.EqualValues(t, http.StatusOK, ctx["status"])

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "not a uuid\nforged")
	w = serve(s, req)
	assert.NotEqual(t, "not a uuid\nforged", w.Header().Get(HeaderRequestID))
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodOptions, "/api/analyze", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyze_CanceledContext(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.analyze(ctx, s.analyzer, "text")
	assert.Nil(t, report)
	require.Error(t, err)
	assert.Equal(t, ErrTitleAnalysisFailed, toAPIError(err, s.maxUploadBytes).Title)
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{RateLimit: &ratelimit.Config{Enabled: false}})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, ":5000", s.Addr())
	assert.Equal(t, int64(5*1024*1024), s.maxUploadBytes)
	assert.Equal(t, 50, s.minTextChars)
}

func TestStart_Shutdown(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.Port = 0 })
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
