package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// VitalsClassifier flags abnormal vital signs locally, independent of any
// network round trip. Classification is deterministic and is re-run on every
// vitals change.
type VitalsClassifier struct {
	logger *logrus.Logger
	rules  []*vitalRule
}

// vitalRule couples one vital-sign category with its threshold evaluator. The
// evaluator reports ok=false when the category was not measured, in which
// case no alert is produced for it.
type vitalRule struct {
	Category  string
	Evaluator func(reading domain.VitalsReading) (domain.LocalAlert, bool)
}

// NewVitalsClassifier creates a classifier with the standard adult threshold
// rules registered in their fixed evaluation order.
func NewVitalsClassifier(logger *logrus.Logger) *VitalsClassifier {
	c := &VitalsClassifier{
		logger: logger,
		rules:  make([]*vitalRule, 0, 4),
	}

	c.initializeRules()

	return c
}

// Classify evaluates every rule against the reading and returns one alert
// per measured category, in rule order. Unmeasured categories contribute
// nothing. The call has no side effects.
func (c *VitalsClassifier) Classify(reading domain.VitalsReading) []domain.LocalAlert {
	alerts := make([]domain.LocalAlert, 0, len(c.rules))

	for _, rule := range c.rules {
		alert, ok := rule.Evaluator(reading)
		if !ok {
			continue
		}
		alerts = append(alerts, alert)
	}

	c.logger.WithFields(logrus.Fields{
		"categories_measured": len(alerts),
		"abnormal":            countAbnormalAlerts(alerts),
	}).Debug("Classified vitals reading")

	return alerts
}

// countAbnormalAlerts counts alerts above normal severity
func countAbnormalAlerts(alerts []domain.LocalAlert) int {
	count := 0
	for _, a := range alerts {
		if a.Severity != domain.NORMAL {
			count++
		}
	}
	return count
}

// initializeRules registers the four vital-sign rules. Order is fixed:
// temperature, heart rate, blood pressure, oxygen saturation.
func (c *VitalsClassifier) initializeRules() {
	c.addRule("temperature", c.evaluateTemperature)
	c.addRule("heart_rate", c.evaluateHeartRate)
	c.addRule("blood_pressure", c.evaluateBloodPressure)
	c.addRule("spo2", c.evaluateSpO2)

	c.logger.WithField("rule_count", len(c.rules)).Debug("Initialized vitals rules")
}

// addRule is a helper to append a rule to the ordered set
func (c *VitalsClassifier) addRule(category string, evaluator func(domain.VitalsReading) (domain.LocalAlert, bool)) {
	c.rules = append(c.rules, &vitalRule{
		Category:  category,
		Evaluator: evaluator,
	})
}

// evaluateTemperature applies the body-temperature thresholds. Comparisons
// are strict: 100.4 exactly is still normal, 103.0 exactly is still a
// warning.
func (c *VitalsClassifier) evaluateTemperature(reading domain.VitalsReading) (domain.LocalAlert, bool) {
	t, ok := reading.TemperatureF()
	if !ok {
		return domain.LocalAlert{}, false
	}

	switch {
	case t > 103:
		return domain.LocalAlert{
			Condition: "High Fever",
			Severity:  domain.CRITICAL,
			Message:   fmt.Sprintf("Temperature of %.1f°F is dangerously high. Seek medical attention.", t),
		}, true
	case t > 100.4:
		return domain.LocalAlert{
			Condition: "Fever",
			Severity:  domain.WARNING,
			Message:   fmt.Sprintf("Temperature of %.1f°F indicates a fever.", t),
		}, true
	case t < 95:
		return domain.LocalAlert{
			Condition: "Hypothermia Risk",
			Severity:  domain.CRITICAL,
			Message:   fmt.Sprintf("Temperature of %.1f°F is dangerously low. Seek medical attention.", t),
		}, true
	default:
		return domain.LocalAlert{
			Condition: "Temperature Normal",
			Severity:  domain.NORMAL,
			Message:   "Temperature is within the normal range.",
		}, true
	}
}

// evaluateHeartRate applies the resting heart-rate thresholds. 120 exactly
// is a warning, not critical; 50 exactly is normal.
func (c *VitalsClassifier) evaluateHeartRate(reading domain.VitalsReading) (domain.LocalAlert, bool) {
	hr, ok := reading.HeartRateBPM()
	if !ok {
		return domain.LocalAlert{}, false
	}

	switch {
	case hr > 120:
		return domain.LocalAlert{
			Condition: "Tachycardia",
			Severity:  domain.CRITICAL,
			Message:   fmt.Sprintf("Heart rate of %.0f bpm is dangerously elevated. Seek medical attention.", hr),
		}, true
	case hr > 100:
		return domain.LocalAlert{
			Condition: "Elevated HR",
			Severity:  domain.WARNING,
			Message:   fmt.Sprintf("Heart rate of %.0f bpm is above the normal range.", hr),
		}, true
	case hr < 50:
		return domain.LocalAlert{
			Condition: "Bradycardia",
			Severity:  domain.WARNING,
			Message:   fmt.Sprintf("Heart rate of %.0f bpm is below the normal range.", hr),
		}, true
	default:
		return domain.LocalAlert{
			Condition: "Heart Rate Normal",
			Severity:  domain.NORMAL,
			Message:   "Heart rate is within the normal range.",
		}, true
	}
}

// evaluateBloodPressure applies the blood-pressure thresholds. A reading
// exists only when both systolic and diastolic values are present; a lone
// value produces no alert at all.
func (c *VitalsClassifier) evaluateBloodPressure(reading domain.VitalsReading) (domain.LocalAlert, bool) {
	sys, dia, ok := reading.BloodPressure()
	if !ok {
		return domain.LocalAlert{}, false
	}

	switch {
	case sys > 180 || dia > 120:
		return domain.LocalAlert{
			Condition: "Hypertensive Crisis",
			Severity:  domain.CRITICAL,
			Message:   fmt.Sprintf("Blood pressure of %.0f/%.0f mmHg is critically high. Seek medical attention.", sys, dia),
		}, true
	case sys > 140 || dia > 90:
		return domain.LocalAlert{
			Condition: "High BP",
			Severity:  domain.WARNING,
			Message:   fmt.Sprintf("Blood pressure of %.0f/%.0f mmHg indicates hypertension.", sys, dia),
		}, true
	case sys > 130 || dia > 80:
		return domain.LocalAlert{
			Condition: "Elevated BP",
			Severity:  domain.WARNING,
			Message:   fmt.Sprintf("Blood pressure of %.0f/%.0f mmHg is above the normal range.", sys, dia),
		}, true
	default:
		return domain.LocalAlert{
			Condition: "Blood Pressure Normal",
			Severity:  domain.NORMAL,
			Message:   "Blood pressure is within the normal range.",
		}, true
	}
}

// evaluateSpO2 applies the oxygen-saturation thresholds.
func (c *VitalsClassifier) evaluateSpO2(reading domain.VitalsReading) (domain.LocalAlert, bool) {
	spo2, ok := reading.SpO2Percent()
	if !ok {
		return domain.LocalAlert{}, false
	}

	switch {
	case spo2 < 90:
		return domain.LocalAlert{
			Condition: "Hypoxia Risk",
			Severity:  domain.CRITICAL,
			Message:   fmt.Sprintf("Oxygen saturation of %.0f%% is dangerously low. Seek medical attention.", spo2),
		}, true
	case spo2 < 95:
		return domain.LocalAlert{
			Condition: "Low Oxygen",
			Severity:  domain.WARNING,
			Message:   fmt.Sprintf("Oxygen saturation of %.0f%% is below the normal range.", spo2),
		}, true
	default:
		return domain.LocalAlert{
			Condition: "SpO2 Normal",
			Severity:  domain.NORMAL,
			Message:   "Oxygen saturation is within the normal range.",
		}, true
	}
}
