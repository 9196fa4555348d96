package evaluator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"sentinel/internal/metrics"
	"sentinel/internal/models"
	"sentinel/internal/thresholds"
)

// Evaluation errors indicate bad input from the caller (unknown metric,
// non-numeric reading) rather than a runtime condition, and are propagated.
var (
	ErrUnknownMetric   = errors.New("metric has no configured threshold")
	ErrNonNumericValue = errors.New("metric value is not a number")
)

// Polarity declares which direction of a metric is "bad"
type Polarity int

const (
	// HighIsBad fires when the value meets or exceeds the threshold
	HighIsBad Polarity = iota
	// LowIsBad fires when the value drops to or below the threshold
	LowIsBad
)

// polarities is the explicit per-metric direction table. Every built-in
// metric degrades upward; the table keeps the direction a declared property
// rather than an assumption baked into the comparison.
var polarities = map[string]Polarity{
	models.MetricCPU:           HighIsBad,
	models.MetricMemory:        HighIsBad,
	models.MetricDisk:          HighIsBad,
	models.MetricResponseTime:  HighIsBad,
	models.MetricErrorRate:     HighIsBad,
	models.MetricDBConnections: HighIsBad,
}

// severityFor maps an overage ratio to a severity. The table is total over
// all reals and monotonic: ratio >= 1.5 is critical, ratio >= 1.0 is
// warning, anything below does not fire.
func severityFor(ratio float64) (models.Severity, bool) {
	switch {
	case ratio >= 1.5:
		return models.SeverityCritical, true
	case ratio >= 1.0:
		return models.SeverityWarning, true
	default:
		return "", false
	}
}

// overageRatio normalizes how far the value has crossed the threshold in
// the metric's bad direction. Values at the threshold map to exactly 1.0.
func overageRatio(polarity Polarity, value, threshold float64) float64 {
	switch polarity {
	case LowIsBad:
		if value <= 0 {
			return math.Inf(1)
		}
		return threshold / value
	default:
		if threshold <= 0 {
			if value >= threshold {
				return math.Inf(1)
			}
			return 0
		}
		return value / threshold
	}
}

// Evaluate decides whether a metric reading should fire a new alert. It is
// a pure function of its inputs: the current-alerts snapshot is passed in
// for the dedup check rather than fetched internally.
//
// An unresolved alert for the same metric suppresses re-firing unless the
// new severity is strictly higher (escalation).
func Evaluate(metric string, value float64, set models.ThresholdSet, current []models.Alert) (*models.Alert, error) {
	if math.IsNaN(value) {
		return nil, fmt.Errorf("%w: %s", ErrNonNumericValue, metric)
	}
	threshold, ok := set[metric]
	if !ok || !thresholds.Known(metric) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	polarity := polarities[metric]
	severity, fire := severityFor(overageRatio(polarity, value, threshold))
	if !fire {
		return nil, nil
	}

	// Dedup/hysteresis: suppress same-or-lower severity while an
	// unresolved alert for this metric exists.
	for i := range current {
		existing := &current[i]
		if existing.Type != metric || existing.Resolved {
			continue
		}
		if severity.Rank() <= existing.Severity.Rank() {
			metrics.AlertsSuppressedTotal.WithLabelValues(metric).Inc()
			return nil, nil
		}
	}

	return &models.Alert{
		Type:      metric,
		Severity:  severity,
		Message:   fmt.Sprintf("%s is %v (threshold %v)", metric, value, threshold),
		Value:     value,
		Threshold: threshold,
		Timestamp: time.Now().UTC(),
	}, nil
}
