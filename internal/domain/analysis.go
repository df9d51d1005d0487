package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxHistoryEntries bounds the persisted analysis history. The store evicts
// the oldest entry when an insert would exceed it.
const MaxHistoryEntries = 10

// PlaceholderSymptoms is recorded as the symptom text of a history entry when
// the analysis was driven by an image or vitals alone.
const PlaceholderSymptoms = "Image/vitals submission"

// SourceRef is a web citation substantiating part of an analysis.
type SourceRef struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// MapSource is a map-listing citation returned by the doctor lookup. Address
// is empty when the citation came from a web-search fallback.
type MapSource struct {
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Address string `json:"address,omitempty"`
}

// AnalysisResult is the structured outcome of one symptom analysis. Content
// is the localized narrative body; when the metadata header parsed, the
// header line is excluded from it.
type AnalysisResult struct {
	Content    string      `json:"content"`
	Confidence Confidence  `json:"confidence"`
	Language   string      `json:"language"`
	Sources    []SourceRef `json:"sources,omitempty"`
}

// DoctorSearchResult is the outcome of a nearby-doctor lookup. An empty
// Sources list with narrative content is a valid terminal result, not a
// failure.
type DoctorSearchResult struct {
	Content string      `json:"content"`
	Sources []MapSource `json:"sources,omitempty"`
}

// HistoryEntry is one persisted past analysis. Entries are created by the
// delivery layer on a successful analysis, owned by the history store, kept
// newest-first, and bounded to MaxHistoryEntries.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Symptoms  string         `json:"symptoms"`
	Timestamp time.Time      `json:"timestamp"`
	Result    AnalysisResult `json:"result"`
	Vitals    *VitalsReading `json:"vitals,omitempty"`
}

// Validate ensures a history entry carries the fields persistence relies on.
func (h *HistoryEntry) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("history entry validation: %w", errors.New("ID is required"))
	}
	if h.Symptoms == "" {
		return fmt.Errorf("history entry validation: %w", errors.New("symptom text is required"))
	}
	if h.Timestamp.IsZero() {
		return fmt.Errorf("history entry validation: %w", errors.New("timestamp is required"))
	}
	if h.Result.Confidence.Label != "" && !h.Result.Confidence.Label.IsValid() {
		return fmt.Errorf("history entry validation: %w", ErrInvalidConfidence)
	}
	return nil
}
