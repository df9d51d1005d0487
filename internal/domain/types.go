// Package domain contains core business entities and types for health-symptom
// triage: vitals readings and their local classification, trend insights,
// model-backed analysis results, and the bounded analysis history.
package domain

import (
	"errors"
	"strconv"
	"strings"
)

// Severity represents the urgency of a locally detected vitals condition.
type Severity string

const (
	NORMAL   Severity = "normal"
	WARNING  Severity = "warning"
	CRITICAL Severity = "critical"
)

// TrendDirection represents how a vital sign moved against its recent mean.
type TrendDirection string

const (
	UP     TrendDirection = "up"
	DOWN   TrendDirection = "down"
	STABLE TrendDirection = "stable"
)

// ConfidenceLevel represents the confidence bucket reported with an analysis.
type ConfidenceLevel string

const (
	HIGH   ConfidenceLevel = "High"
	MEDIUM ConfidenceLevel = "Medium"
	LOW    ConfidenceLevel = "Low"
)

// Validation errors for triage data integrity
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSeverity   = errors.New("invalid alert severity")
	ErrInvalidDirection  = errors.New("invalid trend direction")
	ErrInvalidConfidence = errors.New("invalid confidence level")
)

// IsValid validates the severity value.
func (s Severity) IsValid() bool {
	switch s {
	case NORMAL, WARNING, CRITICAL:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid validates the trend direction.
func (d TrendDirection) IsValid() bool {
	switch d {
	case UP, DOWN, STABLE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the direction.
func (d TrendDirection) String() string {
	return string(d)
}

// IsValid validates the confidence level.
func (cl ConfidenceLevel) IsValid() bool {
	switch cl {
	case HIGH, MEDIUM, LOW:
		return true
	default:
		return false
	}
}

// String returns the string representation of the confidence level.
func (cl ConfidenceLevel) String() string {
	return string(cl)
}

// Confidence pairs the numeric 0-100 score a response reports with its bucket
// label. The parser reports the model's pair verbatim; agreement between the
// two is mandated at the prompt level.
type Confidence struct {
	Score int             `json:"score"`
	Label ConfidenceLevel `json:"label"`
}

// LabelForScore returns the confidence bucket a numeric score falls into.
// Used when composing model instructions and for degraded defaults; parsed
// responses are never re-bucketed.
func LabelForScore(score int) ConfidenceLevel {
	switch {
	case score >= 80:
		return HIGH
	case score >= 50:
		return MEDIUM
	default:
		return LOW
	}
}

// VitalsReading is one immutable snapshot of user-entered vital signs. Each
// field is an optional numeric string captured as typed; an empty field means
// "not measured", never zero. Values are parsed on demand by the accessors.
type VitalsReading struct {
	Temperature string `json:"temperature,omitempty"` // degrees Fahrenheit
	HeartRate   string `json:"heart_rate,omitempty"`  // beats per minute
	Systolic    string `json:"systolic,omitempty"`    // mmHg
	Diastolic   string `json:"diastolic,omitempty"`   // mmHg
	SpO2        string `json:"spo2,omitempty"`        // percent saturation
}

// parseVital parses a single optional numeric field. Unparseable input is
// treated the same as absent.
func parseVital(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TemperatureF returns the body temperature in Fahrenheit, if measured.
func (v VitalsReading) TemperatureF() (float64, bool) {
	return parseVital(v.Temperature)
}

// HeartRateBPM returns the heart rate in beats per minute, if measured.
func (v VitalsReading) HeartRateBPM() (float64, bool) {
	return parseVital(v.HeartRate)
}

// BloodPressure returns the systolic/diastolic pair. A blood pressure reading
// exists only when both values are present.
func (v VitalsReading) BloodPressure() (sys, dia float64, ok bool) {
	sys, sysOK := parseVital(v.Systolic)
	dia, diaOK := parseVital(v.Diastolic)
	if !sysOK || !diaOK {
		return 0, 0, false
	}
	return sys, dia, true
}

// SpO2Percent returns the oxygen saturation percentage, if measured.
func (v VitalsReading) SpO2Percent() (float64, bool) {
	return parseVital(v.SpO2)
}

// HasAny reports whether at least one vital field was measured.
func (v VitalsReading) HasAny() bool {
	if _, ok := v.TemperatureF(); ok {
		return true
	}
	if _, ok := v.HeartRateBPM(); ok {
		return true
	}
	if _, ok := parseVital(v.Systolic); ok {
		return true
	}
	if _, ok := parseVital(v.Diastolic); ok {
		return true
	}
	if _, ok := v.SpO2Percent(); ok {
		return true
	}
	return false
}

// LocalAlert is one locally classified vitals condition. Alerts are produced
// fresh on every vitals change and carry no persisted identity.
type LocalAlert struct {
	Condition string   `json:"condition"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// TrendInsight is one significant deviation of a current vital against its
// recent history. Change carries the rounded percent magnitude without a
// sign; the direction is reported separately.
type TrendInsight struct {
	Metric    string         `json:"metric"`
	Change    string         `json:"change"`
	Direction TrendDirection `json:"direction"`
	Message   string         `json:"message"`
}
