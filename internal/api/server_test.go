package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/history"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
)

// analysisReply is a well-formed model reply with the metadata header.
const analysisReply = "CONFIDENCE_SCORE: 85 (High)\nRest, drink fluids, and monitor your temperature."

type fakeModel struct {
	mu        sync.Mutex
	responses []*domain.GenerateResponse
	err       error
	requests  []*domain.GenerateRequest
}

func (m *fakeModel) Generate(_ context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &domain.GenerateResponse{Text: analysisReply}, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *fakeModel) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *fakeModel) request(i int) *domain.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

type fakeLocator struct {
	position domain.Position
	err      error
	calls    int
}

func (l *fakeLocator) LocateIP(_ context.Context, _ string, _ domain.PositionOptions) (domain.Position, error) {
	l.calls++
	if l.err != nil {
		return domain.Position{}, l.err
	}
	return l.position, nil
}

type fakeArchive struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
	err     error
}

func (a *fakeArchive) Save(_ context.Context, entry domain.HistoryEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *fakeArchive) saved() []domain.HistoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.HistoryEntry(nil), a.entries...)
}

type testEnv struct {
	server  *Server
	model   *fakeModel
	locator *fakeLocator
	archive *fakeArchive
	store   history.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	dir, err := os.MkdirTemp("", "api-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := history.NewSQLiteStore(filepath.Join(dir, "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	prompts := service.NewPromptBuilder(domain.GeminiConfig{
		TextModel:   "text-model",
		VisionModel: "vision-model",
		Temperature: 0.7,
	})
	parser := service.NewResponseParser(logger)

	env := &testEnv{
		model:   &fakeModel{},
		locator: &fakeLocator{position: domain.Position{Latitude: 40.71, Longitude: -74.01}},
		archive: &fakeArchive{},
		store:   store,
	}

	cfg := &domain.Config{
		Server: domain.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 10 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		History: domain.HistoryConfig{Backend: "sqlite"},
		Logging: domain.LoggingConfig{Level: "error"},
		MCP:     domain.MCPConfig{ServerVersion: "v0.1.0"},
	}

	env.server = NewServer(cfg, logger, Deps{
		Analyzer:   service.NewAnalysisService(logger, env.model, prompts, parser),
		Doctors:    service.NewDoctorLookupService(logger, env.model, prompts, parser),
		Classifier: service.NewVitalsClassifier(logger),
		Trends:     service.NewTrendAnalyzer(logger),
		Store:      store,
		Locator:    env.locator,
		Archive:    env.archive,
	})

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error domain.APIError `json:"error"`
	}
	decodeBody(t, w, &resp)
	return resp.Error.Code
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status     string `json:"status"`
		Version    string `json:"version"`
		Components struct {
			History struct {
				Backend string `json:"backend"`
				Status  string `json:"status"`
			} `json:"history"`
			Archive string `json:"archive"`
		} `json:"components"`
	}
	decodeBody(t, w, &resp)

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "v0.1.0", resp.Version)
	assert.Equal(t, "sqlite", resp.Components.History.Backend)
	assert.Equal(t, "healthy", resp.Components.History.Status)
	assert.Equal(t, "enabled", resp.Components.Archive)
}

func TestAnalyze_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.model.responses = []*domain.GenerateResponse{{
		Text: analysisReply,
		Grounding: []domain.GroundingChunk{
			{Kind: domain.WEB_GROUNDING, Title: "Fever care", URI: "https://example.org/fever"},
		},
	}}

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"symptoms": "persistent cough and mild fever",
		"language": "English",
		"vitals":   map[string]string{"temperature": "101.2"},
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp struct {
		Result  domain.AnalysisResult `json:"result"`
		Alerts  []domain.LocalAlert   `json:"alerts"`
		Trends  []domain.TrendInsight `json:"trends"`
		EntryID string                `json:"entry_id"`
	}
	decodeBody(t, w, &resp)

	assert.Equal(t, 85, resp.Result.Confidence.Score)
	assert.Equal(t, domain.HIGH, resp.Result.Confidence.Label)
	assert.Equal(t, "Rest, drink fluids, and monitor your temperature.", resp.Result.Content)
	require.Len(t, resp.Result.Sources, 1)
	assert.Equal(t, "Fever care", resp.Result.Sources[0].Title)

	require.Len(t, resp.Alerts, 1)
	assert.Equal(t, "Fever", resp.Alerts[0].Condition)
	assert.Equal(t, domain.WARNING, resp.Alerts[0].Severity)
	assert.NotEmpty(t, resp.EntryID)

	// the analysis was recorded and archived under the same ID
	entries, err := env.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.EntryID, entries[0].ID)
	assert.Equal(t, "persistent cough and mild fever", entries[0].Symptoms)

	saved := env.archive.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, resp.EntryID, saved[0].ID)
}

func TestAnalyze_VitalsOnlyGetsPlaceholderSymptoms(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"vitals": map[string]string{"heart_rate": "125"},
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	entries, err := env.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.PlaceholderSymptoms, entries[0].Symptoms)
	require.NotNil(t, entries[0].Vitals)
	assert.Equal(t, "125", entries[0].Vitals.HeartRate)
}

func TestAnalyze_ReportsTrendsAgainstPriorHistory(t *testing.T) {
	env := newTestEnv(t)

	prior := domain.HistoryEntry{
		ID:        "00000000-0000-0000-0000-000000000001",
		Symptoms:  "baseline reading",
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Result:    domain.AnalysisResult{Content: "ok", Language: "English"},
		Vitals:    &domain.VitalsReading{HeartRate: "70"},
	}
	require.NoError(t, env.store.Append(context.Background(), prior))

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"symptoms": "heart racing",
		"vitals":   map[string]string{"heart_rate": "95"},
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp struct {
		Trends []domain.TrendInsight `json:"trends"`
	}
	decodeBody(t, w, &resp)

	require.Len(t, resp.Trends, 1)
	assert.Equal(t, "Heart Rate", resp.Trends[0].Metric)
	assert.Equal(t, domain.UP, resp.Trends[0].Direction)
}

func TestAnalyze_EmptySubmissionRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrValidation, errorCode(t, w))
	assert.Zero(t, env.model.requestCount())
}

func TestAnalyze_ModelFailure(t *testing.T) {
	env := newTestEnv(t)
	env.model.err = domain.NewRemoteCallError("generate", 500, errors.New("upstream exploded"))

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"symptoms": "headache",
	})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, domain.ErrRemoteAPI, errorCode(t, w))

	// the internal cause never leaks to the client
	assert.NotContains(t, w.Body.String(), "upstream exploded")

	// nothing was recorded
	entries, err := env.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, env.archive.saved())
}

func TestAnalyze_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.model.err = domain.NewRemoteCallError("generate", 429, errors.New("quota exceeded"))

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"symptoms": "headache",
	})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, domain.ErrRateLimit, errorCode(t, w))
}

func TestAnalyze_Multipart(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("symptoms", "itchy red rash on forearm"))
	require.NoError(t, mw.WriteField("temperature", "98.6"))

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", `form-data; name="image"; filename="rash.jpg"`)
	partHeader.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	// an attached image switches the call to the vision model, image first
	require.Equal(t, 1, env.model.requestCount())
	sent := env.model.request(0)
	assert.Equal(t, "vision-model", sent.Model)
	require.NotEmpty(t, sent.Parts)
	require.NotNil(t, sent.Parts[0].Image)
	assert.Equal(t, "image/jpeg", sent.Parts[0].Image.MIMEType)
}

func TestAnalyze_RejectsNonImageAttachment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"symptoms": "rash",
		"image": map[string]interface{}{
			"mime_type": "application/pdf",
			"data":      []byte("%PDF-1.4"),
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrValidation, errorCode(t, w))
	assert.Zero(t, env.model.requestCount())
}

func TestVitalsCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/vitals/check", map[string]interface{}{
		"vitals": map[string]string{"temperature": "103.5", "spo2": "97"},
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp struct {
		Alerts []domain.LocalAlert   `json:"alerts"`
		Trends []domain.TrendInsight `json:"trends"`
	}
	decodeBody(t, w, &resp)

	require.Len(t, resp.Alerts, 2)
	assert.Equal(t, "High Fever", resp.Alerts[0].Condition)
	assert.Equal(t, domain.CRITICAL, resp.Alerts[0].Severity)
	assert.Equal(t, "SpO2 Normal", resp.Alerts[1].Condition)
	assert.NotNil(t, resp.Trends)

	// purely local: the model is never consulted
	assert.Zero(t, env.model.requestCount())
}

func TestVitalsCheck_RequiresAReading(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/vitals/check", map[string]interface{}{
		"vitals": map[string]string{},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrValidation, errorCode(t, w))
}

func TestDoctorsNearby_WithCoordinates(t *testing.T) {
	env := newTestEnv(t)
	env.model.responses = []*domain.GenerateResponse{{
		Text: "Visit City Cardiology on Main Street.",
		Grounding: []domain.GroundingChunk{
			{Kind: domain.MAPS_GROUNDING, Title: "City Cardiology", URI: "https://maps.example.org/1", Address: "1 Main St"},
		},
	}}

	w := env.do(t, http.MethodPost, "/api/v1/doctors/nearby", map[string]interface{}{
		"context":   "chest pain follow-up",
		"latitude":  37.77,
		"longitude": -122.42,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp domain.DoctorSearchResult
	decodeBody(t, w, &resp)

	assert.Equal(t, "Visit City Cardiology on Main Street.", resp.Content)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "1 Main St", resp.Sources[0].Address)

	// explicit coordinates bypass geolocation entirely
	assert.Zero(t, env.locator.calls)
	sent := env.model.request(0)
	require.Len(t, sent.Tools, 1)
	assert.Equal(t, domain.MAPS_SEARCH, sent.Tools[0].Kind)
	assert.InDelta(t, 37.77, sent.Tools[0].Latitude, 0.0001)
}

func TestDoctorsNearby_ResolvesMissingCoordinates(t *testing.T) {
	env := newTestEnv(t)
	env.locator.position = domain.Position{Latitude: 51.5, Longitude: -0.12}
	env.model.responses = []*domain.GenerateResponse{{
		Text: "Nearby clinics listed below.",
		Grounding: []domain.GroundingChunk{
			{Kind: domain.MAPS_GROUNDING, Title: "Riverside Clinic", URI: "https://maps.example.org/2", Address: "2 Bank Side"},
		},
	}}

	w := env.do(t, http.MethodPost, "/api/v1/doctors/nearby", map[string]interface{}{
		"context": "persistent migraines",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	assert.Equal(t, 1, env.locator.calls)
	sent := env.model.request(0)
	require.Len(t, sent.Tools, 1)
	assert.InDelta(t, 51.5, sent.Tools[0].Latitude, 0.0001)
	assert.InDelta(t, -0.12, sent.Tools[0].Longitude, 0.0001)
}

func TestDoctorsNearby_GeolocationOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		code       domain.GeolocationCode
		wantStatus int
		wantMsg    string
	}{
		{"denied", domain.GEO_DENIED, http.StatusForbidden, domain.MsgLocationDenied},
		{"unavailable", domain.GEO_UNAVAILABLE, http.StatusServiceUnavailable, domain.MsgLocationUnknown},
		{"timeout", domain.GEO_TIMEOUT, http.StatusGatewayTimeout, domain.MsgLocationTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.locator.err = domain.NewGeolocationError(tt.code, errors.New("provider says no"))

			w := env.do(t, http.MethodPost, "/api/v1/doctors/nearby", map[string]interface{}{
				"context": "sore knee",
			})
			require.Equal(t, tt.wantStatus, w.Code)

			var resp struct {
				Error domain.APIError `json:"error"`
			}
			decodeBody(t, w, &resp)
			assert.Equal(t, domain.ErrGeolocation, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)

			// no lookup without a position
			assert.Zero(t, env.model.requestCount())
		})
	}
}

func TestDoctorsNearby_RequiresContext(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/doctors/nearby", map[string]interface{}{
		"latitude":  37.77,
		"longitude": -122.42,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrValidation, errorCode(t, w))
}

func TestHistoryListAndClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, symptoms := range []string{"first visit", "second visit"} {
		entry := domain.HistoryEntry{
			ID:        uuidStr(i),
			Symptoms:  symptoms,
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Minute),
			Result:    domain.AnalysisResult{Content: "n/a", Language: "English"},
		}
		require.NoError(t, env.store.Append(ctx, entry))
	}

	w := env.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Entries []domain.HistoryEntry `json:"entries"`
		Count   int                   `json:"count"`
	}
	decodeBody(t, w, &listResp)
	require.Equal(t, 2, listResp.Count)
	assert.Equal(t, "second visit", listResp.Entries[0].Symptoms)
	assert.Equal(t, "first visit", listResp.Entries[1].Symptoms)

	w = env.do(t, http.MethodDelete, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listResp.Entries = nil
	decodeBody(t, w, &listResp)
	assert.Zero(t, listResp.Count)
	assert.NotNil(t, listResp.Entries)
}

// uuidStr makes a deterministic well-formed UUID for seeding history.
func uuidStr(i int) string {
	return "00000000-0000-0000-0000-00000000000" + string(rune('1'+i))
}

func TestVitalsLiveChannel(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.server.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/vitals/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// one reading in, one recomputed update out
	require.NoError(t, conn.WriteJSON(domain.VitalsReading{Temperature: "103.5"}))

	var update liveVitalsUpdate
	require.NoError(t, conn.ReadJSON(&update))
	require.Len(t, update.Alerts, 1)
	assert.Equal(t, "High Fever", update.Alerts[0].Condition)
	assert.Equal(t, domain.CRITICAL, update.Alerts[0].Severity)
	assert.NotNil(t, update.Trends)

	// the next reading is re-evaluated from scratch
	require.NoError(t, conn.WriteJSON(domain.VitalsReading{Temperature: "98.6", SpO2: "88"}))
	require.NoError(t, conn.ReadJSON(&update))
	require.Len(t, update.Alerts, 2)
	assert.Equal(t, "Temperature Normal", update.Alerts[0].Condition)
	assert.Equal(t, "Hypoxia Risk", update.Alerts[1].Condition)

	// a malformed frame gets an error reply without closing the channel
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var liveErr liveVitalsError
	require.NoError(t, conn.ReadJSON(&liveErr))
	assert.NotEmpty(t, liveErr.Error)

	require.NoError(t, conn.WriteJSON(domain.VitalsReading{HeartRate: "72"}))
	require.NoError(t, conn.ReadJSON(&update))
	require.Len(t, update.Alerts, 1)
	assert.Equal(t, "Heart Rate Normal", update.Alerts[0].Condition)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "https://wellness.example.org")
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestSecurityHeadersApplied(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "geolocation=(self)")
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}
