package service

import (
	"testing"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

func entryWithHeartRate(hr string) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:       "entry-" + hr,
		Symptoms: "checkup",
		Vitals:   &domain.VitalsReading{HeartRate: hr},
	}
}

func entryWithoutVitals() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:       "entry-no-vitals",
		Symptoms: "checkup",
	}
}

func TestTrendAnalyzer_EmptyHistory(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, nil)
	if len(insights) != 0 {
		t.Errorf("Analyze() returned %d insights for empty history, want 0", len(insights))
	}

	insights = analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, []domain.HistoryEntry{})
	if len(insights) != 0 {
		t.Errorf("Analyze() returned %d insights for zero-length history, want 0", len(insights))
	}
}

func TestTrendAnalyzer_HistoryWithoutVitals(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	history := []domain.HistoryEntry{
		entryWithoutVitals(),
		entryWithoutVitals(),
		entryWithoutVitals(),
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, history)
	if len(insights) != 0 {
		t.Errorf("Analyze() returned %d insights when no entry carries vitals, want 0", len(insights))
	}
}

func TestTrendAnalyzer_HeartRateUpward(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	history := []domain.HistoryEntry{
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, history)
	if len(insights) != 1 {
		t.Fatalf("Analyze() returned %d insights, want 1", len(insights))
	}

	insight := insights[0]
	if insight.Metric != "Heart Rate" {
		t.Errorf("Expected metric %q, got %q", "Heart Rate", insight.Metric)
	}
	if insight.Change != "21%" {
		t.Errorf("Expected change %q, got %q", "21%", insight.Change)
	}
	if insight.Direction != domain.UP {
		t.Errorf("Expected direction %s, got %s", domain.UP, insight.Direction)
	}
	if insight.Message != "Heart Rate is 21% higher than your recent average." {
		t.Errorf("Unexpected message: %q", insight.Message)
	}
}

func TestTrendAnalyzer_HeartRateDownward(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	history := []domain.HistoryEntry{
		entryWithHeartRate("100"),
		entryWithHeartRate("100"),
		entryWithHeartRate("100"),
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "80"}, history)
	if len(insights) != 1 {
		t.Fatalf("Analyze() returned %d insights, want 1", len(insights))
	}

	insight := insights[0]
	if insight.Change != "20%" {
		t.Errorf("Expected change %q, got %q", "20%", insight.Change)
	}
	if insight.Direction != domain.DOWN {
		t.Errorf("Expected direction %s, got %s", domain.DOWN, insight.Direction)
	}
	if insight.Message != "Heart Rate is 20% lower than your recent average." {
		t.Errorf("Unexpected message: %q", insight.Message)
	}
}

func TestTrendAnalyzer_WithinThreshold(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	history := []domain.HistoryEntry{
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
	}

	// 75 against a mean of 70 is a 7% move, inside the threshold.
	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "75"}, history)
	if len(insights) != 0 {
		t.Errorf("Analyze() returned %d insights for a move inside the threshold, want 0", len(insights))
	}
}

func TestTrendAnalyzer_WindowCapsAtFiveSnapshots(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	// Newest first. The two oldest entries would drag the mean far upward
	// if the window did not stop at five snapshots.
	history := []domain.HistoryEntry{
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("200"),
		entryWithHeartRate("200"),
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, history)
	if len(insights) != 1 {
		t.Fatalf("Analyze() returned %d insights, want 1", len(insights))
	}
	if insights[0].Change != "21%" || insights[0].Direction != domain.UP {
		t.Errorf("Expected 21%% up against the five newest snapshots, got %s %s", insights[0].Change, insights[0].Direction)
	}
}

func TestTrendAnalyzer_SkipsEntriesWithoutVitals(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	// Entries without vitals are skipped entirely; they must not consume
	// window slots. The fifth vitals-bearing entry still fits.
	history := []domain.HistoryEntry{
		entryWithHeartRate("70"),
		entryWithoutVitals(),
		entryWithHeartRate("70"),
		entryWithoutVitals(),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
		entryWithHeartRate("200"),
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, history)
	if len(insights) != 1 {
		t.Fatalf("Analyze() returned %d insights, want 1", len(insights))
	}
	if insights[0].Change != "21%" || insights[0].Direction != domain.UP {
		t.Errorf("Expected 21%% up with skipped entries excluded, got %s %s", insights[0].Change, insights[0].Direction)
	}
}

func TestTrendAnalyzer_CurrentReadingMissingMetric(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	history := []domain.HistoryEntry{
		entryWithHeartRate("70"),
		entryWithHeartRate("70"),
	}

	insights := analyzer.Analyze(domain.VitalsReading{Temperature: "98.6"}, history)
	if len(insights) != 0 {
		t.Errorf("Analyze() returned %d insights when the current reading lacks the metric, want 0", len(insights))
	}
}

func TestTrendAnalyzer_ExcludesSnapshotsMissingMetric(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	// The middle snapshot has vitals but no heart rate; it must not drag
	// the mean down, only shrink the divisor.
	history := []domain.HistoryEntry{
		entryWithHeartRate("60"),
		{ID: "entry-temp", Symptoms: "checkup", Vitals: &domain.VitalsReading{Temperature: "98.6"}},
		entryWithHeartRate("80"),
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, history)
	if len(insights) != 1 {
		t.Fatalf("Analyze() returned %d insights, want 1", len(insights))
	}
	if insights[0].Change != "21%" {
		t.Errorf("Expected change %q against mean of carriers only, got %q", "21%", insights[0].Change)
	}
}

func TestTrendAnalyzer_NoSnapshotCarriesMetric(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())

	history := []domain.HistoryEntry{
		{ID: "entry-1", Symptoms: "checkup", Vitals: &domain.VitalsReading{Temperature: "98.6"}},
		{ID: "entry-2", Symptoms: "checkup", Vitals: &domain.VitalsReading{SpO2: "98"}},
	}

	insights := analyzer.Analyze(domain.VitalsReading{HeartRate: "85"}, history)
	if len(insights) != 0 {
		t.Errorf("Analyze() returned %d insights with no snapshot carrying the metric, want 0", len(insights))
	}
}

func TestTrendAnalyzer_RegisterComparator(t *testing.T) {
	analyzer := NewTrendAnalyzer(testLogger())
	analyzer.RegisterComparator("Temperature", domain.VitalsReading.TemperatureF)

	history := []domain.HistoryEntry{
		{ID: "entry-1", Symptoms: "checkup", Vitals: &domain.VitalsReading{Temperature: "100"}},
		{ID: "entry-2", Symptoms: "checkup", Vitals: &domain.VitalsReading{Temperature: "100"}},
	}

	insights := analyzer.Analyze(domain.VitalsReading{Temperature: "120"}, history)
	if len(insights) != 1 {
		t.Fatalf("Analyze() returned %d insights, want 1", len(insights))
	}

	insight := insights[0]
	if insight.Metric != "Temperature" {
		t.Errorf("Expected metric %q, got %q", "Temperature", insight.Metric)
	}
	if insight.Change != "20%" {
		t.Errorf("Expected change %q, got %q", "20%", insight.Change)
	}
	if insight.Direction != domain.UP {
		t.Errorf("Expected direction %s, got %s", domain.UP, insight.Direction)
	}
}
