package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// DoctorLookupService finds nearby medical facilities in two sequential
// stages. Stage one is a maps-grounded search anchored at the caller's
// coordinates; it wins outright when it yields at least one citation. Stage
// two is a plain web search that runs when stage one errors or comes back
// without citations, and its result is valid even with no citations at all.
type DoctorLookupService struct {
	logger  *logrus.Logger
	model   domain.ModelClient
	prompts *PromptBuilder
	parser  *ResponseParser
}

// NewDoctorLookupService creates a new doctor lookup service
func NewDoctorLookupService(logger *logrus.Logger, model domain.ModelClient, prompts *PromptBuilder, parser *ResponseParser) *DoctorLookupService {
	return &DoctorLookupService{
		logger:  logger,
		model:   model,
		prompts: prompts,
		parser:  parser,
	}
}

// DoctorSearchParams carries one lookup: the medical concern to match
// facilities against and the position to anchor the search at.
type DoctorSearchParams struct {
	MedicalContext string  `json:"medical_context"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Language       string  `json:"language,omitempty"`
}

// Validate checks the search parameters
func (p DoctorSearchParams) Validate() error {
	if strings.TrimSpace(p.MedicalContext) == "" {
		return domain.NewValidationError("medical_context", "Medical context is required", p.MedicalContext)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return domain.NewValidationError("latitude", "Latitude must be between -90 and 90", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return domain.NewValidationError("longitude", "Longitude must be between -180 and 180", p.Longitude)
	}
	return nil
}

// FindNearby runs the two-stage lookup. A recovered stage-one failure is
// logged and absorbed; only a stage-two failure surfaces, wrapped as a
// DoctorLookupError.
func (dls *DoctorLookupService) FindNearby(ctx context.Context, params DoctorSearchParams) (*domain.DoctorSearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	language := params.Language
	if language == "" {
		language = DefaultLanguage
	}

	dls.logger.WithFields(logrus.Fields{
		"latitude":  params.Latitude,
		"longitude": params.Longitude,
		"language":  language,
	}).Info("Starting doctor lookup")

	result, err := dls.searchWithMaps(ctx, params, language)
	if err == nil && len(result.Sources) > 0 {
		dls.logger.WithFields(logrus.Fields{
			"stage":   "maps",
			"sources": len(result.Sources),
		}).Info("Doctor lookup completed")
		return result, nil
	}

	if err != nil {
		dls.logger.WithError(err).Warn("Maps-grounded lookup failed, falling back to web search")
	} else {
		dls.logger.Warn("Maps-grounded lookup returned no citations, falling back to web search")
	}

	result, err = dls.searchWithWeb(ctx, params, language)
	if err != nil {
		dls.logger.WithError(err).Error("Web fallback lookup failed")
		return nil, domain.NewDoctorLookupError(err)
	}

	dls.logger.WithFields(logrus.Fields{
		"stage":   "web",
		"sources": len(result.Sources),
	}).Info("Doctor lookup completed")
	return result, nil
}

// searchWithMaps runs the stage-one maps-grounded search.
func (dls *DoctorLookupService) searchWithMaps(ctx context.Context, params DoctorSearchParams, language string) (*domain.DoctorSearchResult, error) {
	req := dls.prompts.BuildDoctorSearchRequest(params.MedicalContext, params.Latitude, params.Longitude, language)

	resp, err := dls.model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, domain.NewRemoteCallError("doctor_search", 0, errEmptyReply)
	}

	result := dls.parser.ParseDoctorSearch(resp.Text, resp.Grounding)
	return &result, nil
}

// searchWithWeb runs the stage-two web fallback.
func (dls *DoctorLookupService) searchWithWeb(ctx context.Context, params DoctorSearchParams, language string) (*domain.DoctorSearchResult, error) {
	req := dls.prompts.BuildDoctorFallbackRequest(params.MedicalContext, language)

	resp, err := dls.model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, domain.NewRemoteCallError("doctor_fallback", 0, errEmptyReply)
	}

	result := dls.parser.ParseDoctorFallback(resp.Text, resp.Grounding)
	return &result, nil
}
