package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

var (
	// First integer anywhere in the metadata header line
	confidenceScorePattern = regexp.MustCompile(`\d+`)

	// Label word anywhere in the metadata header line
	confidenceLabelPattern = regexp.MustCompile(`High|Medium|Low`)
)

// ResponseParser turns raw model replies into structured results. Parsing
// never fails: a reply that does not carry the expected metadata header is
// returned whole under a floor confidence.
type ResponseParser struct {
	logger *logrus.Logger
}

// NewResponseParser creates a new response parser
func NewResponseParser(logger *logrus.Logger) *ResponseParser {
	return &ResponseParser{logger: logger}
}

// ParseAnalysis extracts the confidence header and body from an analysis
// reply. The header is honored only when its first line carries the marker
// and both the score and the label extract cleanly; otherwise the entire
// reply text is kept unmodified and confidence falls back to zero / Low.
func (rp *ResponseParser) ParseAnalysis(raw string, grounding []domain.GroundingChunk, language string) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Content:    raw,
		Confidence: domain.Confidence{Score: 0, Label: domain.LOW},
		Language:   language,
		Sources:    rp.ExtractWebSources(grounding),
	}

	first, rest, _ := strings.Cut(raw, "\n")
	if !strings.Contains(first, ConfidenceHeaderPrefix) {
		return result
	}

	scoreMatch := confidenceScorePattern.FindString(first)
	labelMatch := confidenceLabelPattern.FindString(first)
	if scoreMatch == "" || labelMatch == "" {
		rp.logger.WithFields(logrus.Fields{
			"header": first,
		}).Debug("Confidence header unparseable, falling back to verbatim content")
		return result
	}

	score, err := strconv.Atoi(scoreMatch)
	if err != nil {
		return result
	}

	result.Confidence = domain.Confidence{
		Score: score,
		Label: domain.ConfidenceLevel(labelMatch),
	}
	result.Content = strings.TrimSpace(rest)

	return result
}

// ParseDoctorSearch assembles a doctor lookup result from the reply text and
// its grounding citations.
func (rp *ResponseParser) ParseDoctorSearch(raw string, grounding []domain.GroundingChunk) domain.DoctorSearchResult {
	return domain.DoctorSearchResult{
		Content: strings.TrimSpace(raw),
		Sources: rp.ExtractMapSources(grounding),
	}
}

// ParseDoctorFallback assembles a fallback lookup result. Only web-tagged
// citations count here, and their address stays empty.
func (rp *ResponseParser) ParseDoctorFallback(raw string, grounding []domain.GroundingChunk) domain.DoctorSearchResult {
	refs := rp.ExtractWebSources(grounding)
	sources := make([]domain.MapSource, 0, len(refs))
	for _, ref := range refs {
		sources = append(sources, domain.MapSource{
			Title: ref.Title,
			URI:   ref.URI,
		})
	}
	return domain.DoctorSearchResult{
		Content: strings.TrimSpace(raw),
		Sources: sources,
	}
}

// ExtractWebSources keeps web-tagged citations that carry both a title and a
// URI. Chunks of any other kind or with missing fields are dropped.
func (rp *ResponseParser) ExtractWebSources(grounding []domain.GroundingChunk) []domain.SourceRef {
	sources := make([]domain.SourceRef, 0, len(grounding))
	for _, chunk := range grounding {
		if chunk.Kind != domain.WEB_GROUNDING {
			continue
		}
		if chunk.Title == "" || chunk.URI == "" {
			continue
		}
		sources = append(sources, domain.SourceRef{
			Title: chunk.Title,
			URI:   chunk.URI,
		})
	}
	return sources
}

// ExtractMapSources prefers maps-tagged citations, carrying their address
// through. When the grounding holds no usable maps citation it degrades to
// the web-tagged ones with the address left empty.
func (rp *ResponseParser) ExtractMapSources(grounding []domain.GroundingChunk) []domain.MapSource {
	sources := make([]domain.MapSource, 0, len(grounding))
	for _, chunk := range grounding {
		if chunk.Kind != domain.MAPS_GROUNDING {
			continue
		}
		if chunk.Title == "" || chunk.URI == "" {
			continue
		}
		sources = append(sources, domain.MapSource{
			Title:   chunk.Title,
			URI:     chunk.URI,
			Address: chunk.Address,
		})
	}
	if len(sources) > 0 {
		return sources
	}

	for _, chunk := range grounding {
		if chunk.Kind != domain.WEB_GROUNDING {
			continue
		}
		if chunk.Title == "" || chunk.URI == "" {
			continue
		}
		sources = append(sources, domain.MapSource{
			Title: chunk.Title,
			URI:   chunk.URI,
		})
	}
	return sources
}
