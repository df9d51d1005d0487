package service

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// RecentVitalsWindow caps how many past vitals snapshots feed a trend
// comparison. Entries without a snapshot are skipped and do not count toward
// the window.
const RecentVitalsWindow = 5

// trendThresholdPercent is the minimum deviation magnitude, in percent of
// the recent mean, that produces an insight.
const trendThresholdPercent = 10.0

// metricComparator extracts one vital from a reading for trend comparison.
type metricComparator struct {
	Metric  string
	Extract func(reading domain.VitalsReading) (float64, bool)
}

// TrendAnalyzer diffs a current vitals reading against the recent analysis
// history. Adding a metric means registering a comparator; the control
// structure never changes.
type TrendAnalyzer struct {
	logger      *logrus.Logger
	comparators []*metricComparator
}

// NewTrendAnalyzer creates an analyzer with the heart-rate comparator
// registered. Other vitals are deliberately left out until their comparison
// semantics are confirmed.
func NewTrendAnalyzer(logger *logrus.Logger) *TrendAnalyzer {
	a := &TrendAnalyzer{
		logger:      logger,
		comparators: make([]*metricComparator, 0, 1),
	}

	a.RegisterComparator("Heart Rate", domain.VitalsReading.HeartRateBPM)

	return a
}

// RegisterComparator adds a per-metric comparator. Comparators run in
// registration order.
func (a *TrendAnalyzer) RegisterComparator(metric string, extract func(domain.VitalsReading) (float64, bool)) {
	a.comparators = append(a.comparators, &metricComparator{
		Metric:  metric,
		Extract: extract,
	})
}

// Analyze compares the current reading against up to RecentVitalsWindow
// recent snapshots and returns one insight per metric that moved more than
// the threshold against its mean. History is expected newest-first; entries
// without vitals are skipped. No usable history means no insights.
func (a *TrendAnalyzer) Analyze(current domain.VitalsReading, history []domain.HistoryEntry) []domain.TrendInsight {
	window := recentSnapshots(history)
	if len(window) == 0 {
		return nil
	}

	insights := make([]domain.TrendInsight, 0, len(a.comparators))

	for _, cmp := range a.comparators {
		insight, ok := a.compareMetric(cmp, current, window)
		if !ok {
			continue
		}
		insights = append(insights, insight)
	}

	a.logger.WithFields(logrus.Fields{
		"window_size": len(window),
		"insights":    len(insights),
	}).Debug("Completed trend analysis")

	return insights
}

// compareMetric runs one comparator: mean over the window entries that carry
// the metric, then the percent deviation of the current value. A missing
// current value, an empty divisor, or a non-positive mean yields nothing.
func (a *TrendAnalyzer) compareMetric(cmp *metricComparator, current domain.VitalsReading, window []domain.VitalsReading) (domain.TrendInsight, bool) {
	currentValue, ok := cmp.Extract(current)
	if !ok {
		return domain.TrendInsight{}, false
	}

	var sum float64
	var count int
	for _, snapshot := range window {
		value, ok := cmp.Extract(snapshot)
		if !ok {
			continue
		}
		sum += value
		count++
	}

	if count == 0 {
		return domain.TrendInsight{}, false
	}

	mean := sum / float64(count)
	if mean <= 0 {
		return domain.TrendInsight{}, false
	}

	percent := (currentValue - mean) / mean * 100
	if math.Abs(percent) <= trendThresholdPercent {
		return domain.TrendInsight{}, false
	}

	direction := domain.UP
	wording := "higher"
	if currentValue < mean {
		direction = domain.DOWN
		wording = "lower"
	}

	change := fmt.Sprintf("%.0f%%", math.Abs(percent))

	return domain.TrendInsight{
		Metric:    cmp.Metric,
		Change:    change,
		Direction: direction,
		Message:   fmt.Sprintf("%s is %s %s than your recent average.", cmp.Metric, change, wording),
	}, true
}

// recentSnapshots collects up to RecentVitalsWindow vitals snapshots from the
// newest-first history.
func recentSnapshots(history []domain.HistoryEntry) []domain.VitalsReading {
	window := make([]domain.VitalsReading, 0, RecentVitalsWindow)
	for _, entry := range history {
		if entry.Vitals == nil {
			continue
		}
		window = append(window, *entry.Vitals)
		if len(window) == RecentVitalsWindow {
			break
		}
	}
	return window
}
