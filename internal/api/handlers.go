package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
)

// maxImageBytes caps uploaded symptom images.
const maxImageBytes = 8 << 20

// analyzeRequest is the JSON body of POST /api/v1/analyze. Multipart
// submissions carry the same fields as form values plus an "image" file part.
type analyzeRequest struct {
	Symptoms string                `json:"symptoms"`
	Language string                `json:"language"`
	Vitals   *domain.VitalsReading `json:"vitals,omitempty"`
	Image    *domain.ImagePart     `json:"image,omitempty"`
}

// analyzeResponse is the outcome of one analysis: the model result, the
// locally computed alerts and trends, and the ID of the recorded history
// entry (empty when recording failed).
type analyzeResponse struct {
	Result  *domain.AnalysisResult `json:"result"`
	Alerts  []domain.LocalAlert    `json:"alerts"`
	Trends  []domain.TrendInsight  `json:"trends"`
	EntryID string                 `json:"entry_id,omitempty"`
}

type vitalsCheckRequest struct {
	Vitals domain.VitalsReading `json:"vitals"`
}

type vitalsCheckResponse struct {
	Alerts []domain.LocalAlert   `json:"alerts"`
	Trends []domain.TrendInsight `json:"trends"`
}

type doctorsNearbyRequest struct {
	Context   string   `json:"context"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Language  string   `json:"language,omitempty"`
}

// handleAnalyze runs one full analysis: local vitals classification, trend
// analysis against the pre-existing history, then the model call. On success
// the analysis is recorded in the rolling history and, when enabled, the
// archive; neither storage fault fails the request.
func (s *Server) handleAnalyze(c *gin.Context) {
	req, ok := s.parseAnalyzeRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	alerts := []domain.LocalAlert{}
	trends := []domain.TrendInsight{}
	if req.Vitals != nil && req.Vitals.HasAny() {
		alerts = s.classifier.Classify(*req.Vitals)
		if insights := s.trends.Analyze(*req.Vitals, s.historySnapshot(ctx)); insights != nil {
			trends = insights
		}
	}

	result, err := s.analyzer.Analyze(ctx, service.AnalyzeParams{
		Symptoms: req.Symptoms,
		Image:    req.Image,
		Vitals:   req.Vitals,
		Language: req.Language,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		Symptoms:  strings.TrimSpace(req.Symptoms),
		Timestamp: time.Now().UTC(),
		Result:    *result,
		Vitals:    req.Vitals,
	}
	if entry.Symptoms == "" {
		entry.Symptoms = domain.PlaceholderSymptoms
	}

	entryID := entry.ID
	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("Recording analysis in history failed")
		entryID = ""
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, entry); err != nil {
			s.logger.WithError(err).Warn("Archiving analysis failed")
		}
	}

	c.JSON(http.StatusOK, analyzeResponse{
		Result:  result,
		Alerts:  alerts,
		Trends:  trends,
		EntryID: entryID,
	})
}

// parseAnalyzeRequest decodes a JSON or multipart analysis submission. On
// failure it writes the error response and reports !ok.
func (s *Server) parseAnalyzeRequest(c *gin.Context) (analyzeRequest, bool) {
	var req analyzeRequest

	if c.ContentType() == "multipart/form-data" {
		req.Symptoms = c.PostForm("symptoms")
		req.Language = c.PostForm("language")

		vitals := domain.VitalsReading{
			Temperature: c.PostForm("temperature"),
			HeartRate:   c.PostForm("heart_rate"),
			Systolic:    c.PostForm("systolic"),
			Diastolic:   c.PostForm("diastolic"),
			SpO2:        c.PostForm("spo2"),
		}
		if vitals.HasAny() {
			req.Vitals = &vitals
		}

		image, ok := s.readImagePart(c)
		if !ok {
			return req, false
		}
		req.Image = image
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Request body could not be parsed.", err.Error())
			return req, false
		}
	}

	if req.Image != nil {
		if len(req.Image.Data) == 0 {
			s.respondError(c, http.StatusBadRequest, domain.ErrValidation, "Image attachment is empty.", "field: image")
			return req, false
		}
		if len(req.Image.Data) > maxImageBytes {
			s.respondError(c, http.StatusRequestEntityTooLarge, domain.ErrValidation, "Image exceeds the 8MB limit.", "field: image")
			return req, false
		}
		if !strings.HasPrefix(req.Image.MIMEType, "image/") {
			s.respondError(c, http.StatusBadRequest, domain.ErrValidation, "Attachment must be an image.", "field: image")
			return req, false
		}
	}

	return req, true
}

// readImagePart extracts the optional image file from a multipart form.
func (s *Server) readImagePart(c *gin.Context) (*domain.ImagePart, bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Image upload could not be read.", err.Error())
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Image upload could not be read.", err.Error())
		return nil, false
	}
	if len(data) > maxImageBytes {
		s.respondError(c, http.StatusRequestEntityTooLarge, domain.ErrValidation, "Image exceeds the 8MB limit.", "field: image")
		return nil, false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return &domain.ImagePart{MIMEType: mimeType, Data: data}, true
}

// handleVitalsCheck classifies a vitals reading and reports trends against
// the stored history. No model call is made.
func (s *Server) handleVitalsCheck(c *gin.Context) {
	var req vitalsCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Request body could not be parsed.", err.Error())
		return
	}
	if !req.Vitals.HasAny() {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, "At least one vital sign is required.", "field: vitals")
		return
	}

	ctx := c.Request.Context()
	resp := vitalsCheckResponse{
		Alerts: s.classifier.Classify(req.Vitals),
		Trends: []domain.TrendInsight{},
	}
	if insights := s.trends.Analyze(req.Vitals, s.historySnapshot(ctx)); insights != nil {
		resp.Trends = insights
	}

	c.JSON(http.StatusOK, resp)
}

// handleDoctorsNearby runs the two-stage doctor lookup. Requests that arrive
// without coordinates are positioned from the client IP first; each
// geolocation outcome keeps its own status code.
func (s *Server) handleDoctorsNearby(c *gin.Context) {
	var req doctorsNearbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Request body could not be parsed.", err.Error())
		return
	}

	ctx := c.Request.Context()
	params := service.DoctorSearchParams{
		MedicalContext: req.Context,
		Language:       req.Language,
	}

	if req.Latitude != nil && req.Longitude != nil {
		params.Latitude = *req.Latitude
		params.Longitude = *req.Longitude
	} else {
		position, err := s.locator.LocateIP(ctx, c.ClientIP(), domain.DefaultPositionOptions())
		if err != nil {
			s.writeServiceError(c, err)
			return
		}
		params.Latitude = position.Latitude
		params.Longitude = position.Longitude
	}

	result, err := s.doctors.FindNearby(ctx, params)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleHistoryList returns the stored analysis history, newest first.
func (s *Server) handleHistoryList(c *gin.Context) {
	entries, err := s.store.List(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("History listing failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrStorage, "Could not load analysis history.", "")
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleHistoryClear removes all stored history entries.
func (s *Server) handleHistoryClear(c *gin.Context) {
	if err := s.store.Clear(c.Request.Context()); err != nil {
		s.logger.WithError(err).Error("History clearing failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrStorage, "Could not clear analysis history.", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// historySnapshot loads the history for trend analysis. A storage fault
// degrades to an empty window rather than failing the caller.
func (s *Server) historySnapshot(ctx context.Context) []domain.HistoryEntry {
	entries, err := s.store.List(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("History unavailable for trend analysis")
		return nil
	}
	return entries
}

// respondError writes the structured error envelope.
func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, gin.H{
		"error": domain.NewAPIError(code, message, details, c.GetString("correlation_id")),
	})
}

// writeServiceError maps a service-layer error onto its HTTP representation.
// Geolocation outcomes keep distinct status codes; remote failures surface
// only their generic user message.
func (s *Server) writeServiceError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, validationErr.Message, "field: "+validationErr.Field)
		return
	}

	var geoErr *domain.GeolocationError
	if errors.As(err, &geoErr) {
		s.respondError(c, geoStatus(geoErr.Code), domain.ErrGeolocation, geoErr.UserMessage(), "")
		return
	}

	var remoteErr *domain.RemoteCallError
	if errors.As(err, &remoteErr) && remoteErr.RateLimited() {
		s.respondError(c, http.StatusTooManyRequests, domain.ErrRateLimit, "Too many requests right now. Please wait a moment and try again.", "")
		return
	}

	var analysisErr *domain.AnalysisError
	if errors.As(err, &analysisErr) {
		s.logger.WithError(err).Error("Analysis failed")
		s.respondError(c, http.StatusBadGateway, domain.ErrRemoteAPI, analysisErr.UserMessage(), "")
		return
	}

	var lookupErr *domain.DoctorLookupError
	if errors.As(err, &lookupErr) {
		s.logger.WithError(err).Error("Doctor lookup failed")
		s.respondError(c, http.StatusBadGateway, domain.ErrRemoteAPI, lookupErr.UserMessage(), "")
		return
	}

	s.logger.WithError(err).Error("Unhandled service error")
	s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "An unexpected error occurred.", "")
}

// geoStatus maps each geolocation outcome to its status code.
func geoStatus(code domain.GeolocationCode) int {
	switch code {
	case domain.GEO_DENIED:
		return http.StatusForbidden
	case domain.GEO_TIMEOUT:
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}
