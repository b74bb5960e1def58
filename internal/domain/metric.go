package domain

import "fmt"

// MetricType describes the scale a metric value lives on.
type MetricType string

const (
	MetricPercentage MetricType = "percentage"
	MetricSeconds    MetricType = "seconds"
	MetricCount      MetricType = "count"
	MetricRatio      MetricType = "ratio"
	MetricScore      MetricType = "score"
)

// MetricCategory groups metrics for reporting.
type MetricCategory string

const (
	MetricQuality     MetricCategory = "quality"
	MetricPerformance MetricCategory = "performance"
	MetricEfficiency  MetricCategory = "efficiency"
	MetricRisk        MetricCategory = "risk"
)

// MetricStatus is the derived judgement of a value against its thresholds.
type MetricStatus string

const (
	StatusExcellent      MetricStatus = "excellent"
	StatusGood           MetricStatus = "good"
	StatusAcceptable     MetricStatus = "acceptable"
	StatusPoor           MetricStatus = "poor"
	StatusCriticalMetric MetricStatus = "critical"
)

// Metric is one measured quantity with optional thresholds. Value object.
type Metric struct {
	Name            string         `json:"name"`
	Value           float64        `json:"value"`
	Type            MetricType     `json:"type"`
	Category        MetricCategory `json:"category"`
	Unit            string         `json:"unit,omitempty"`
	ThresholdMin    *float64       `json:"threshold_min,omitempty"`
	ThresholdTarget *float64       `json:"threshold_target,omitempty"`
	Status          MetricStatus   `json:"status"`
}

// NewMetric builds a metric and derives its status from the thresholds.
func NewMetric(name string, value float64, typ MetricType, category MetricCategory, unit string, min, target *float64) (Metric, error) {
	if typ == MetricPercentage && (value < 0 || value > 100) {
		return Metric{}, fmt.Errorf("metric %s: percentage must be within [0,100], got %v", name, value)
	}
	if typ == MetricRatio && (value < 0 || value > 1) {
		return Metric{}, fmt.Errorf("metric %s: ratio must be within [0,1], got %v", name, value)
	}
	if min != nil && target != nil && *min > *target {
		return Metric{}, fmt.Errorf("metric %s: threshold_min %v above threshold_target %v", name, *min, *target)
	}
	m := Metric{
		Name:            name,
		Value:           value,
		Type:            typ,
		Category:        category,
		Unit:            unit,
		ThresholdMin:    min,
		ThresholdTarget: target,
	}
	m.Status = m.deriveStatus()
	return m, nil
}

// deriveStatus mirrors the grading ladder of the original metric model:
// at/above target is excellent, the upper 30% of the min..target band is
// good, at/above min is acceptable, below min is poor, and more than 50%
// under min is critical.
func (m Metric) deriveStatus() MetricStatus {
	if m.ThresholdTarget != nil && m.Value >= *m.ThresholdTarget {
		return StatusExcellent
	}
	if m.ThresholdMin == nil {
		return StatusAcceptable
	}
	min := *m.ThresholdMin
	if m.Value >= min {
		if m.ThresholdTarget != nil {
			band := *m.ThresholdTarget - min
			if band > 0 && (m.Value-min)/band >= 0.7 {
				return StatusGood
			}
		}
		return StatusAcceptable
	}
	if min > 0 && (min-m.Value)/min > 0.5 {
		return StatusCriticalMetric
	}
	return StatusPoor
}

// FormattedValue renders the value with its natural precision and unit.
func (m Metric) FormattedValue() string {
	switch m.Type {
	case MetricPercentage:
		return fmt.Sprintf("%.1f%%", m.Value)
	case MetricSeconds:
		return fmt.Sprintf("%.1fs", m.Value)
	case MetricCount:
		return fmt.Sprintf("%d", int(m.Value))
	case MetricRatio:
		return fmt.Sprintf("%.2f", m.Value)
	default:
		return fmt.Sprintf("%.2f%s", m.Value, m.Unit)
	}
}

func floatPtr(v float64) *float64 { return &v }

// Thresholds is a small helper for metric constructors that want literal
// min/target pairs.
func Thresholds(min, target float64) (*float64, *float64) {
	return floatPtr(min), floatPtr(target)
}
