package models

import (
	"errors"
	"strings"
	"time"
)

// Severity represents alert urgency levels, ordered info < warning < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Validation errors
var (
	ErrEmptyType       = errors.New("alert type cannot be empty")
	ErrEmptyMessage    = errors.New("alert message cannot be empty")
	ErrInvalidSeverity = errors.New("invalid severity level")
)

// IsValid checks if the severity is a known level
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal position of the severity (info=0, warning=1, critical=2).
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return -1
	}
}

// ParseSeverity normalizes a severity string
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrInvalidSeverity
	}
	return s, nil
}

// Alert represents a single detected threshold breach or manually raised condition
type Alert struct {
	// Unique identifier, assigned by the store at record time
	ID string `json:"id"`

	// Monitored condition identifier (a threshold key, or free-form for manual alerts)
	Type string `json:"type"`

	// Urgency classification
	Severity Severity `json:"severity"`

	// Human-readable description
	Message string `json:"message"`

	// Observed reading at fire time
	Value float64 `json:"value"`

	// Threshold that was crossed
	Threshold float64 `json:"threshold"`

	// Creation time, retained as a display/filter field and legacy lookup key
	Timestamp time.Time `json:"timestamp"`

	// Set when the condition returned to normal or was explicitly cleared
	Resolved bool `json:"resolved"`
}

// Validate checks if the Alert has all required fields and valid values
func (a *Alert) Validate() error {
	if a.Type == "" {
		return ErrEmptyType
	}
	if a.Message == "" {
		return ErrEmptyMessage
	}
	if !a.Severity.IsValid() {
		return ErrInvalidSeverity
	}
	return nil
}

// Filter narrows alert listings. Zero values mean "no constraint".
type Filter struct {
	Type     string
	Severity Severity
	Limit    int
	Start    time.Time
	End      time.Time
}

// Match reports whether the alert passes the type, severity, and date constraints
func (f Filter) Match(a *Alert) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if !f.Start.IsZero() && a.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && a.Timestamp.After(f.End) {
		return false
	}
	return true
}

// Stats holds aggregate counts over the alert history
type Stats struct {
	ByType       map[string]int   `json:"by_type"`
	BySeverity   map[Severity]int `json:"by_severity"`
	TotalFired   int              `json:"total_fired"`
	TotalCurrent int              `json:"total_current"`
}
