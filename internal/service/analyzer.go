package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// DefaultLanguage is used when a request does not name a reply language.
const DefaultLanguage = "English"

var errEmptyReply = errors.New("model reply carried no text")

// AnalysisService coordinates one symptom analysis: build the request, make
// a single model call, parse the reply. It never retries, and it does not
// persist anything; recording the result in history is the caller's job.
type AnalysisService struct {
	logger  *logrus.Logger
	model   domain.ModelClient
	prompts *PromptBuilder
	parser  *ResponseParser
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(logger *logrus.Logger, model domain.ModelClient, prompts *PromptBuilder, parser *ResponseParser) *AnalysisService {
	return &AnalysisService{
		logger:  logger,
		model:   model,
		prompts: prompts,
		parser:  parser,
	}
}

// AnalyzeParams carries one analysis submission. At least one of Symptoms,
// Image, or a populated Vitals must be present.
type AnalyzeParams struct {
	Symptoms string                `json:"symptoms"`
	Image    *domain.ImagePart     `json:"image,omitempty"`
	Vitals   *domain.VitalsReading `json:"vitals,omitempty"`
	Language string                `json:"language,omitempty"`
}

// Analyze performs the symptom analysis. Any remote failure, and a reply
// carrying no text at all, surface as an AnalysisError; the reply reaching
// the parser can no longer fail.
func (as *AnalysisService) Analyze(ctx context.Context, params AnalyzeParams) (*domain.AnalysisResult, error) {
	symptoms := strings.TrimSpace(params.Symptoms)
	if symptoms == "" && params.Image == nil && (params.Vitals == nil || !params.Vitals.HasAny()) {
		return nil, domain.NewValidationError("symptoms", "Describe symptoms, attach an image, or report vitals", params.Symptoms)
	}

	language := params.Language
	if language == "" {
		language = DefaultLanguage
	}

	as.logger.WithFields(logrus.Fields{
		"has_image":  params.Image != nil,
		"has_vitals": params.Vitals != nil && params.Vitals.HasAny(),
		"language":   language,
	}).Info("Starting symptom analysis")

	req := as.prompts.BuildAnalysisRequest(symptoms, params.Image, params.Vitals, language)

	resp, err := as.model.Generate(ctx, req)
	if err != nil {
		as.logger.WithError(err).Error("Symptom analysis call failed")
		return nil, domain.NewAnalysisError(err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		as.logger.Error("Symptom analysis returned no usable text")
		return nil, domain.NewAnalysisError(domain.NewRemoteCallError("generate", 0, errEmptyReply))
	}

	result := as.parser.ParseAnalysis(resp.Text, resp.Grounding, language)

	as.logger.WithFields(logrus.Fields{
		"confidence_score": result.Confidence.Score,
		"confidence_label": result.Confidence.Label,
		"sources":          len(result.Sources),
	}).Info("Symptom analysis completed")

	return &result, nil
}
