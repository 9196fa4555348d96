package evaluator_test

import (
	"errors"
	"math"
	"testing"

	"sentinel/internal/evaluator"
	"sentinel/internal/models"
)

var testSet = models.ThresholdSet{
	models.MetricCPU:          80,
	models.MetricMemory:       85,
	models.MetricResponseTime: 1000,
	models.MetricErrorRate:    5,
}

func TestEvaluateSeverityTable(t *testing.T) {
	tests := []struct {
		name     string
		metric   string
		value    float64
		want     models.Severity
		wantFire bool
	}{
		{"below threshold", models.MetricCPU, 79.9, "", false},
		{"at threshold", models.MetricCPU, 80, models.SeverityWarning, true},
		{"above threshold", models.MetricCPU, 95, models.SeverityWarning, true},
		{"just under critical", models.MetricCPU, 119.9, models.SeverityWarning, true},
		{"at critical ratio", models.MetricCPU, 120, models.SeverityCritical, true},
		{"far above", models.MetricResponseTime, 5000, models.SeverityCritical, true},
		{"zero value", models.MetricErrorRate, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, err := evaluator.Evaluate(tt.metric, tt.value, testSet, nil)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if (alert != nil) != tt.wantFire {
				t.Fatalf("fired = %v, want %v", alert != nil, tt.wantFire)
			}
			if alert == nil {
				return
			}
			if alert.Severity != tt.want {
				t.Errorf("severity = %q, want %q", alert.Severity, tt.want)
			}
			if alert.Value != tt.value {
				t.Errorf("value = %v, want %v", alert.Value, tt.value)
			}
			if alert.Threshold != testSet[tt.metric] {
				t.Errorf("threshold = %v, want %v", alert.Threshold, testSet[tt.metric])
			}
			if alert.Timestamp.IsZero() {
				t.Error("timestamp not set")
			}
		})
	}
}

func TestEvaluateUnknownMetric(t *testing.T) {
	_, err := evaluator.Evaluate("load_average", 3, testSet, nil)
	if !errors.Is(err, evaluator.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestEvaluateNaNValue(t *testing.T) {
	_, err := evaluator.Evaluate(models.MetricCPU, math.NaN(), testSet, nil)
	if !errors.Is(err, evaluator.ErrNonNumericValue) {
		t.Fatalf("expected ErrNonNumericValue, got %v", err)
	}
}

func TestEvaluateDedupSuppressesSameSeverity(t *testing.T) {
	current := []models.Alert{
		{Type: models.MetricCPU, Severity: models.SeverityWarning},
	}

	alert, err := evaluator.Evaluate(models.MetricCPU, 90, testSet, current)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert != nil {
		t.Error("same-severity re-fire should be suppressed")
	}
}

func TestEvaluateDedupSuppressesLowerSeverity(t *testing.T) {
	current := []models.Alert{
		{Type: models.MetricCPU, Severity: models.SeverityCritical},
	}

	alert, err := evaluator.Evaluate(models.MetricCPU, 90, testSet, current)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert != nil {
		t.Error("lower-severity fire should be suppressed while critical is open")
	}
}

func TestEvaluateEscalationAllowed(t *testing.T) {
	current := []models.Alert{
		{Type: models.MetricCPU, Severity: models.SeverityWarning},
	}

	alert, err := evaluator.Evaluate(models.MetricCPU, 130, testSet, current)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert == nil {
		t.Fatal("escalation to critical should fire")
	}
	if alert.Severity != models.SeverityCritical {
		t.Errorf("severity = %q, want critical", alert.Severity)
	}
}

func TestEvaluateResolvedAlertDoesNotSuppress(t *testing.T) {
	current := []models.Alert{
		{Type: models.MetricCPU, Severity: models.SeverityWarning, Resolved: true},
	}

	alert, err := evaluator.Evaluate(models.MetricCPU, 90, testSet, current)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert == nil {
		t.Error("a resolved alert must not suppress a new fire")
	}
}

func TestEvaluateOtherMetricDoesNotSuppress(t *testing.T) {
	current := []models.Alert{
		{Type: models.MetricMemory, Severity: models.SeverityCritical},
	}

	alert, err := evaluator.Evaluate(models.MetricCPU, 90, testSet, current)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert == nil {
		t.Error("an open alert for another metric must not suppress this one")
	}
}
