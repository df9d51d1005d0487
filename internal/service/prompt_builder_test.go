package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

func testPromptBuilder() *PromptBuilder {
	return NewPromptBuilder(domain.GeminiConfig{
		TextModel:   "text-model",
		VisionModel: "vision-model",
		Temperature: 0.4,
	})
}

func TestPromptBuilder_AnalysisTextOnly(t *testing.T) {
	builder := testPromptBuilder()

	req := builder.BuildAnalysisRequest("persistent headache", nil, nil, "English")

	assert.Equal(t, "text-model", req.Model)
	require.Len(t, req.Parts, 1)
	assert.Nil(t, req.Parts[0].Image)
	assert.Contains(t, req.Parts[0].Text, "persistent headache")

	require.Len(t, req.Tools, 1)
	assert.Equal(t, domain.WEB_SEARCH, req.Tools[0].Kind)

	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.4, *req.Temperature)
}

func TestPromptBuilder_AnalysisInstructionMandatesHeader(t *testing.T) {
	builder := testPromptBuilder()

	req := builder.BuildAnalysisRequest("sore throat", nil, nil, "Spanish")

	assert.Contains(t, req.SystemInstruction, "CONFIDENCE_SCORE: <0-100> | CONFIDENCE_LABEL: <High|Medium|Low>")
	assert.Contains(t, req.SystemInstruction, "first line")
	assert.Contains(t, req.SystemInstruction, "English")
	assert.Contains(t, req.SystemInstruction, "Spanish")
}

func TestPromptBuilder_AnalysisFourSections(t *testing.T) {
	builder := testPromptBuilder()

	req := builder.BuildAnalysisRequest("sore throat", nil, nil, "English")
	prompt := req.Parts[0].Text

	for _, section := range []string{"Summary", "Potential Conditions", "Urgency level", "Recommendations"} {
		assert.Contains(t, prompt, section)
	}
}

func TestPromptBuilder_AnalysisWithImage(t *testing.T) {
	builder := testPromptBuilder()
	image := &domain.ImagePart{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8}}

	req := builder.BuildAnalysisRequest("rash on arm", image, nil, "English")

	assert.Equal(t, "vision-model", req.Model)
	require.Len(t, req.Parts, 2)

	// Image part leads, text part closes.
	assert.NotNil(t, req.Parts[0].Image)
	assert.Empty(t, req.Parts[0].Text)
	assert.Nil(t, req.Parts[1].Image)
	assert.NotEmpty(t, req.Parts[1].Text)
}

func TestPromptBuilder_AnalysisImageWithoutText(t *testing.T) {
	builder := testPromptBuilder()
	image := &domain.ImagePart{MIMEType: "image/png", Data: []byte{0x89, 0x50}}

	req := builder.BuildAnalysisRequest("", image, nil, "English")

	assert.Equal(t, "vision-model", req.Model)
	require.Len(t, req.Parts, 2)
	assert.Contains(t, req.Parts[1].Text, "image")
}

func TestPromptBuilder_VitalsBlockPlacement(t *testing.T) {
	builder := testPromptBuilder()
	vitals := &domain.VitalsReading{
		Temperature: "101.2",
		HeartRate:   "88",
		Systolic:    "120",
		Diastolic:   "80",
		SpO2:        "97",
	}

	req := builder.BuildAnalysisRequest("feeling dizzy", nil, vitals, "English")
	prompt := req.Parts[0].Text

	vitalsAt := strings.Index(prompt, "Reported vitals:")
	structureAt := strings.Index(prompt, "Structure your answer")
	require.NotEqual(t, -1, vitalsAt, "vitals block missing from prompt")
	require.NotEqual(t, -1, structureAt, "structure instructions missing from prompt")
	assert.Less(t, vitalsAt, structureAt, "vitals block must precede structure instructions")

	assert.Contains(t, prompt, "101.2")
	assert.Contains(t, prompt, "88 bpm")
	assert.Contains(t, prompt, "120/80")
	assert.Contains(t, prompt, "97%")
}

func TestPromptBuilder_NoVitalsNoBlock(t *testing.T) {
	builder := testPromptBuilder()

	tests := []struct {
		name   string
		vitals *domain.VitalsReading
	}{
		{"Nil vitals", nil},
		{"Empty vitals", &domain.VitalsReading{}},
		{"Unparseable vitals", &domain.VitalsReading{Temperature: "warm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := builder.BuildAnalysisRequest("feeling dizzy", nil, tt.vitals, "English")
			assert.NotContains(t, req.Parts[0].Text, "Reported vitals:")
		})
	}
}

func TestPromptBuilder_ZeroTemperatureLeftToRemote(t *testing.T) {
	builder := NewPromptBuilder(domain.GeminiConfig{
		TextModel:   "text-model",
		VisionModel: "vision-model",
	})

	req := builder.BuildAnalysisRequest("sore throat", nil, nil, "English")
	assert.Nil(t, req.Temperature)
}

func TestPromptBuilder_DoctorSearchRequest(t *testing.T) {
	builder := testPromptBuilder()

	req := builder.BuildDoctorSearchRequest("possible strep throat", 37.7749, -122.4194, "English")

	assert.Equal(t, "text-model", req.Model)
	require.Len(t, req.Parts, 1)
	assert.Contains(t, req.Parts[0].Text, "exactly 3")
	assert.Contains(t, req.Parts[0].Text, "possible strep throat")
	assert.Empty(t, req.SystemInstruction)

	require.Len(t, req.Tools, 1)
	assert.Equal(t, domain.MAPS_SEARCH, req.Tools[0].Kind)
	assert.Equal(t, 37.7749, req.Tools[0].Latitude)
	assert.Equal(t, -122.4194, req.Tools[0].Longitude)
}

func TestPromptBuilder_DoctorSearchKeepsFullContext(t *testing.T) {
	builder := testPromptBuilder()
	context := strings.Repeat("a", 150)

	req := builder.BuildDoctorSearchRequest(context, 0, 0, "English")
	assert.Contains(t, req.Parts[0].Text, context)
}

func TestPromptBuilder_DoctorFallbackRequest(t *testing.T) {
	builder := testPromptBuilder()

	req := builder.BuildDoctorFallbackRequest("possible strep throat", "English")

	assert.Equal(t, "text-model", req.Model)
	require.Len(t, req.Parts, 1)
	assert.Contains(t, req.Parts[0].Text, "possible strep throat")

	require.Len(t, req.Tools, 1)
	assert.Equal(t, domain.WEB_SEARCH, req.Tools[0].Kind)
}

func TestPromptBuilder_DoctorFallbackTruncatesContext(t *testing.T) {
	builder := testPromptBuilder()
	context := strings.Repeat("a", 150)

	req := builder.BuildDoctorFallbackRequest(context, "English")

	assert.Contains(t, req.Parts[0].Text, strings.Repeat("a", 100))
	assert.NotContains(t, req.Parts[0].Text, strings.Repeat("a", 101))
}

func TestTruncateContext(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"Shorter than limit", "short", 100, "short"},
		{"Exactly at limit", strings.Repeat("x", 100), 100, strings.Repeat("x", 100)},
		{"Over limit", strings.Repeat("x", 101), 100, strings.Repeat("x", 100)},
		{"Multi-byte rune at the cut", "aé", 2, "a"},
		{"Empty string", "", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateContext(tt.input, tt.limit)
			if got != tt.want {
				t.Errorf("truncateContext() = %q, want %q", got, tt.want)
			}
		})
	}
}
