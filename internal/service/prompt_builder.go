package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// ConfidenceHeaderPrefix is the literal marker the model is instructed to
// open its reply with. The parser keys on the same literal.
const ConfidenceHeaderPrefix = "CONFIDENCE_SCORE:"

// doctorContextLimit caps how much of the medical context is embedded in the
// web-search fallback prompt.
const doctorContextLimit = 100

// PromptBuilder assembles model request descriptors for symptom analysis and
// doctor lookup. Building a request has no side effects and is fully
// deterministic for identical inputs.
type PromptBuilder struct {
	textModel   string
	visionModel string
	temperature *float64
}

// NewPromptBuilder creates a builder using the configured model selectors. A
// zero temperature leaves the remote default in place.
func NewPromptBuilder(cfg domain.GeminiConfig) *PromptBuilder {
	b := &PromptBuilder{
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		b.temperature = &t
	}
	return b
}

// BuildAnalysisRequest produces the symptom-analysis request: a system
// instruction carrying the metadata-header mandate and the target-language
// mandate, a user prompt asking for the four-section structure, content
// parts ordered image first and text last, the capability selector switched
// on image presence, and web-search grounding.
func (b *PromptBuilder) BuildAnalysisRequest(symptoms string, image *domain.ImagePart, vitals *domain.VitalsReading, language string) *domain.GenerateRequest {
	model := b.textModel
	parts := make([]domain.ContentPart, 0, 2)

	if image != nil {
		model = b.visionModel
		parts = append(parts, domain.ContentPart{Image: image})
	}

	parts = append(parts, domain.ContentPart{Text: b.buildAnalysisPrompt(symptoms, image != nil, vitals)})

	return &domain.GenerateRequest{
		Model:             model,
		Parts:             parts,
		SystemInstruction: b.buildAnalysisInstruction(language),
		Tools:             []domain.ToolDirective{{Kind: domain.WEB_SEARCH}},
		Temperature:       b.temperature,
	}
}

// buildAnalysisInstruction composes the system instruction. The first reply
// line is mandated verbatim in English; everything else must follow the
// target language.
func (b *PromptBuilder) buildAnalysisInstruction(language string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful AI medical assistant. You are not a doctor, and your guidance is informational only, never a substitute for professional medical advice.\n\n")
	sb.WriteString("The very first line of your reply MUST be exactly this machine-readable metadata line, in English:\n")
	sb.WriteString("CONFIDENCE_SCORE: <0-100> | CONFIDENCE_LABEL: <High|Medium|Low>\n")
	sb.WriteString("The numeric score and the label must agree: 80-100 is High, 50-79 is Medium, 0-49 is Low.\n\n")
	sb.WriteString(fmt.Sprintf("Every other part of your reply - all headers, the body, and the closing disclaimer - must be written in %s.", language))

	return sb.String()
}

// buildAnalysisPrompt composes the user prompt. Reported vitals, when any
// field is present, are serialized into a labeled block placed before the
// structure instructions.
func (b *PromptBuilder) buildAnalysisPrompt(symptoms string, hasImage bool, vitals *domain.VitalsReading) string {
	var sb strings.Builder

	trimmed := strings.TrimSpace(symptoms)
	switch {
	case trimmed != "":
		sb.WriteString("A user reports the following symptoms: ")
		sb.WriteString(trimmed)
		sb.WriteString("\n")
	case hasImage:
		sb.WriteString("A user submitted the attached image of a health concern without a text description.\n")
	default:
		sb.WriteString("A user requests a health check-in without describing symptoms in text.\n")
	}

	if hasImage && trimmed != "" {
		sb.WriteString("An image is attached; factor it into your assessment.\n")
	}

	if block := formatVitalsBlock(vitals); block != "" {
		sb.WriteString("\nReported vitals:\n")
		sb.WriteString(block)
	}

	sb.WriteString("\nStructure your answer in exactly four sections:\n")
	sb.WriteString("1. Summary\n")
	sb.WriteString("2. Potential Conditions\n")
	sb.WriteString("3. Urgency level\n")
	sb.WriteString("4. Recommendations\n\n")
	sb.WriteString("Close with a brief reminder to consult a healthcare professional.")

	return sb.String()
}

// formatVitalsBlock serializes the measured vitals as labeled lines. An
// absent or empty reading yields an empty string.
func formatVitalsBlock(vitals *domain.VitalsReading) string {
	if vitals == nil || !vitals.HasAny() {
		return ""
	}

	var sb strings.Builder

	if t, ok := vitals.TemperatureF(); ok {
		sb.WriteString(fmt.Sprintf("- Temperature: %.1f °F\n", t))
	}
	if hr, ok := vitals.HeartRateBPM(); ok {
		sb.WriteString(fmt.Sprintf("- Heart Rate: %.0f bpm\n", hr))
	}
	if sys, dia, ok := vitals.BloodPressure(); ok {
		sb.WriteString(fmt.Sprintf("- Blood Pressure: %.0f/%.0f mmHg\n", sys, dia))
	}
	if spo2, ok := vitals.SpO2Percent(); ok {
		sb.WriteString(fmt.Sprintf("- SpO2: %.0f%%\n", spo2))
	}

	return sb.String()
}

// BuildDoctorSearchRequest produces the maps-grounded first-stage lookup
// anchored at the given coordinates, asking for exactly three specific
// facilities.
func (b *PromptBuilder) BuildDoctorSearchRequest(medicalContext string, latitude, longitude float64, language string) *domain.GenerateRequest {
	prompt := fmt.Sprintf(
		"Find exactly 3 specific medical facilities (clinics, hospitals, or medical practices) near latitude %.5f, longitude %.5f that are suitable for the following concern: %s. "+
			"For each facility give its name, why it fits the concern, and its address or contact details. Respond in %s.",
		latitude, longitude, strings.TrimSpace(medicalContext), language,
	)

	return &domain.GenerateRequest{
		Model: b.textModel,
		Parts: []domain.ContentPart{{Text: prompt}},
		Tools: []domain.ToolDirective{{
			Kind:      domain.MAPS_SEARCH,
			Latitude:  latitude,
			Longitude: longitude,
		}},
		Temperature: b.temperature,
	}
}

// BuildDoctorFallbackRequest produces the second-stage web-search lookup.
// The medical context is truncated to its first hundred characters before it
// is embedded.
func (b *PromptBuilder) BuildDoctorFallbackRequest(medicalContext string, language string) *domain.GenerateRequest {
	prompt := fmt.Sprintf(
		"A user is looking for medical care for the following concern: %s. "+
			"Using web search, recommend what kind of medical facility or specialist to visit and how to find a reputable one nearby. Respond in %s.",
		truncateContext(strings.TrimSpace(medicalContext), doctorContextLimit), language,
	)

	return &domain.GenerateRequest{
		Model:       b.textModel,
		Parts:       []domain.ContentPart{{Text: prompt}},
		Tools:       []domain.ToolDirective{{Kind: domain.WEB_SEARCH}},
		Temperature: b.temperature,
	}
}

// truncateContext bounds a string to limit bytes without splitting a
// multi-byte rune at the cut point.
func truncateContext(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
