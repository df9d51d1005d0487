package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/history"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
)

// Archiver persists successful analyses to the long-term archive.
type Archiver interface {
	Save(ctx context.Context, entry domain.HistoryEntry) error
}

// HandlerDeps carries the services the tool handlers deliver. Locator and
// Archive are optional: without a Locator, find_doctors requires explicit
// coordinates; without an Archive, analyses stay in the rolling history only.
type HandlerDeps struct {
	Analyzer   *service.AnalysisService
	Doctors    *service.DoctorLookupService
	Classifier *service.VitalsClassifier
	Trends     *service.TrendAnalyzer
	Store      history.Store
	Locator    domain.Locator
	Archive    Archiver
	Language   string
	Timeout    time.Duration
}

// Handlers implements the MCP tool set over the triage services.
type Handlers struct {
	logger     *logrus.Logger
	analyzer   *service.AnalysisService
	doctors    *service.DoctorLookupService
	classifier *service.VitalsClassifier
	trends     *service.TrendAnalyzer
	store      history.Store
	locator    domain.Locator
	archive    Archiver
	language   string
	timeout    time.Duration
}

// NewHandlers creates the tool handler set.
func NewHandlers(deps HandlerDeps, logger *logrus.Logger) *Handlers {
	return &Handlers{
		logger:     logger,
		analyzer:   deps.Analyzer,
		doctors:    deps.Doctors,
		classifier: deps.Classifier,
		trends:     deps.Trends,
		store:      deps.Store,
		locator:    deps.Locator,
		archive:    deps.Archive,
		language:   deps.Language,
		timeout:    deps.Timeout,
	}
}

// ToolDef pairs a tool declaration with its handler.
type ToolDef struct {
	Tool    *mcp.Tool
	Handler func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Definitions lists every tool this server exposes. Argument shapes are
// documented in the descriptions; all results are JSON text.
func (h *Handlers) Definitions() []ToolDef {
	return []ToolDef{
		{
			Tool: &mcp.Tool{
				Name: "analyze_symptoms",
				Description: `Analyze health symptoms and get triage guidance with a confidence score, web sources, and locally computed vitals alerts and trends. The analysis is recorded in the rolling health history. Arguments (JSON object): "symptoms" (string), "language" (string, optional), "vitals" (object, optional, numeric strings: "temperature" in °F, "heart_rate" in bpm, "systolic"/"diastolic" in mmHg, "spo2" in %). At least symptoms or one vital is required.`,
			},
			Handler: h.handleAnalyzeSymptoms,
		},
		{
			Tool: &mcp.Tool{
				Name: "check_vitals",
				Description: `Classify a vitals reading against clinical thresholds without calling any remote service. Arguments (JSON object, numeric strings, all optional but at least one required): "temperature" (°F), "heart_rate" (bpm), "systolic"/"diastolic" (mmHg), "spo2" (%). Returns one alert per measured category with severity normal, warning, or critical.`,
			},
			Handler: h.handleCheckVitals,
		},
		{
			Tool: &mcp.Tool{
				Name: "vitals_trends",
				Description: `Compare a current vitals reading against the recent health history and report significant deviations (more than 10% against the recent mean). Arguments (JSON object, numeric strings): "temperature", "heart_rate", "systolic", "diastolic", "spo2". Returns trend insights with direction and percent change; an empty history yields no insights.`,
			},
			Handler: h.handleVitalsTrends,
		},
		{
			Tool: &mcp.Tool{
				Name: "find_doctors",
				Description: `Find nearby medical facilities suited to a medical concern, with map citations when available. Arguments (JSON object): "context" (string, the medical concern), "latitude"/"longitude" (numbers, optional when the server can resolve its own position), "language" (string, optional).`,
			},
			Handler: h.handleFindDoctors,
		},
		{
			Tool: &mcp.Tool{
				Name: "health_history",
				Description: `Read or clear the rolling record of past analyses (at most ten entries, newest first). Arguments (JSON object): "action" ("get" or "clear", default "get").`,
			},
			Handler: h.handleHealthHistory,
		},
	}
}

type analyzeSymptomsArgs struct {
	Symptoms string                `json:"symptoms"`
	Language string                `json:"language,omitempty"`
	Vitals   *domain.VitalsReading `json:"vitals,omitempty"`
}

type findDoctorsArgs struct {
	Context   string   `json:"context"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Language  string   `json:"language,omitempty"`
}

type healthHistoryArgs struct {
	Action string `json:"action,omitempty"`
}

type analyzeSymptomsResult struct {
	Result  *domain.AnalysisResult `json:"result"`
	Alerts  []domain.LocalAlert    `json:"alerts"`
	Trends  []domain.TrendInsight  `json:"trends"`
	EntryID string                 `json:"entry_id,omitempty"`
}

func (h *Handlers) handleAnalyzeSymptoms(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.WithField("tool", "analyze_symptoms").Info("Tool invoked")

	var args analyzeSymptomsArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err.Error()), nil
	}
	return h.analyzeSymptoms(ctx, args), nil
}

func (h *Handlers) analyzeSymptoms(ctx context.Context, args analyzeSymptomsArgs) *mcp.CallToolResult {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	out := analyzeSymptomsResult{
		Alerts: []domain.LocalAlert{},
		Trends: []domain.TrendInsight{},
	}
	if args.Vitals != nil && args.Vitals.HasAny() {
		out.Alerts = h.classifier.Classify(*args.Vitals)
		if insights := h.trends.Analyze(*args.Vitals, h.historySnapshot(ctx)); insights != nil {
			out.Trends = insights
		}
	}

	result, err := h.analyzer.Analyze(ctx, service.AnalyzeParams{
		Symptoms: args.Symptoms,
		Vitals:   args.Vitals,
		Language: h.resolveLanguage(args.Language),
	})
	if err != nil {
		return errorResult(userMessage(err))
	}
	out.Result = result

	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		Symptoms:  strings.TrimSpace(args.Symptoms),
		Timestamp: time.Now().UTC(),
		Result:    *result,
		Vitals:    args.Vitals,
	}
	if entry.Symptoms == "" {
		entry.Symptoms = domain.PlaceholderSymptoms
	}

	out.EntryID = entry.ID
	if err := h.store.Append(ctx, entry); err != nil {
		h.logger.WithError(err).Warn("Recording analysis in history failed")
		out.EntryID = ""
	}
	if h.archive != nil {
		if err := h.archive.Save(ctx, entry); err != nil {
			h.logger.WithError(err).Warn("Archiving analysis failed")
		}
	}

	return jsonResult(out)
}

func (h *Handlers) handleCheckVitals(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.WithField("tool", "check_vitals").Info("Tool invoked")

	var reading domain.VitalsReading
	if err := decodeArgs(req, &reading); err != nil {
		return errorResult(err.Error()), nil
	}
	return h.checkVitals(reading), nil
}

func (h *Handlers) checkVitals(reading domain.VitalsReading) *mcp.CallToolResult {
	if !reading.HasAny() {
		return errorResult("At least one vital sign is required.")
	}
	return jsonResult(map[string]interface{}{
		"alerts": h.classifier.Classify(reading),
	})
}

func (h *Handlers) handleVitalsTrends(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.WithField("tool", "vitals_trends").Info("Tool invoked")

	var reading domain.VitalsReading
	if err := decodeArgs(req, &reading); err != nil {
		return errorResult(err.Error()), nil
	}
	return h.vitalsTrends(ctx, reading), nil
}

func (h *Handlers) vitalsTrends(ctx context.Context, reading domain.VitalsReading) *mcp.CallToolResult {
	if !reading.HasAny() {
		return errorResult("At least one vital sign is required.")
	}

	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	trends := h.trends.Analyze(reading, h.historySnapshot(ctx))
	if trends == nil {
		trends = []domain.TrendInsight{}
	}
	return jsonResult(map[string]interface{}{
		"trends": trends,
	})
}

func (h *Handlers) handleFindDoctors(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.WithField("tool", "find_doctors").Info("Tool invoked")

	var args findDoctorsArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err.Error()), nil
	}
	return h.findDoctors(ctx, args), nil
}

func (h *Handlers) findDoctors(ctx context.Context, args findDoctorsArgs) *mcp.CallToolResult {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	params := service.DoctorSearchParams{
		MedicalContext: args.Context,
		Language:       h.resolveLanguage(args.Language),
	}

	switch {
	case args.Latitude != nil && args.Longitude != nil:
		params.Latitude = *args.Latitude
		params.Longitude = *args.Longitude
	case h.locator != nil:
		position, err := h.locator.CurrentPosition(ctx, domain.DefaultPositionOptions())
		if err != nil {
			return errorResult(userMessage(err))
		}
		params.Latitude = position.Latitude
		params.Longitude = position.Longitude
	default:
		return errorResult("latitude and longitude are required")
	}

	result, err := h.doctors.FindNearby(ctx, params)
	if err != nil {
		return errorResult(userMessage(err))
	}
	return jsonResult(result)
}

func (h *Handlers) handleHealthHistory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.WithField("tool", "health_history").Info("Tool invoked")

	var args healthHistoryArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err.Error()), nil
	}
	return h.healthHistory(ctx, args), nil
}

func (h *Handlers) healthHistory(ctx context.Context, args healthHistoryArgs) *mcp.CallToolResult {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	switch args.Action {
	case "", "get":
		entries, err := h.store.List(ctx)
		if err != nil {
			h.logger.WithError(err).Error("History listing failed")
			return errorResult("Could not load analysis history.")
		}
		if entries == nil {
			entries = []domain.HistoryEntry{}
		}
		return jsonResult(map[string]interface{}{
			"entries": entries,
			"count":   len(entries),
		})
	case "clear":
		if err := h.store.Clear(ctx); err != nil {
			h.logger.WithError(err).Error("History clearing failed")
			return errorResult("Could not clear analysis history.")
		}
		return jsonResult(map[string]interface{}{"status": "cleared"})
	default:
		return errorResult(fmt.Sprintf("unknown action %q: use \"get\" or \"clear\"", args.Action))
	}
}

// historySnapshot loads the history for trend analysis, degrading to an
// empty window on storage faults.
func (h *Handlers) historySnapshot(ctx context.Context) []domain.HistoryEntry {
	entries, err := h.store.List(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("History unavailable for trend analysis")
		return nil
	}
	return entries
}

func (h *Handlers) resolveLanguage(requested string) string {
	if requested != "" {
		return requested
	}
	return h.language
}

func (h *Handlers) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}

// decodeArgs unmarshals the request arguments into a typed struct. The
// arguments are re-marshalled first so the decode works regardless of how the
// SDK surfaced them.
func decodeArgs(req *mcp.CallToolRequest, v interface{}) error {
	data, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return fmt.Errorf("arguments could not be read: %v", err)
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("arguments could not be parsed: %v", err)
	}
	return nil
}

// jsonResult wraps a value as an indented JSON text result.
func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("result could not be encoded")
	}
	return textResult(string(data))
}

// errorResult reports a tool-level failure as a JSON error object. The
// protocol call itself still succeeds; the message is meant for the user.
func errorResult(message string) *mcp.CallToolResult {
	data, _ := json.Marshal(map[string]string{"error": message})
	return textResult(string(data))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// userMessage maps a service error onto the message shown to the caller.
// Remote failure details stay in the log.
func userMessage(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var geoErr *domain.GeolocationError
	if errors.As(err, &geoErr) {
		return geoErr.UserMessage()
	}
	var analysisErr *domain.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.UserMessage()
	}
	var lookupErr *domain.DoctorLookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.UserMessage()
	}
	return "An unexpected error occurred."
}
