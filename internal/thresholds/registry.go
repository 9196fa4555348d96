package thresholds

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"sentinel/internal/logger"
	"sentinel/internal/models"
)

// Registry errors
var (
	ErrUnknownMetric    = errors.New("unknown threshold metric")
	ErrInvalidThreshold = errors.New("threshold value out of range")
)

// bound describes the valid range for one metric's threshold
type bound struct {
	min float64
	max float64
}

// bounds declares every known metric and its valid threshold range.
// Percentage metrics are [0,100]; responseTime is milliseconds, >= 0.
var bounds = map[string]bound{
	models.MetricCPU:           {0, 100},
	models.MetricMemory:        {0, 100},
	models.MetricDisk:          {0, 100},
	models.MetricErrorRate:     {0, 100},
	models.MetricDBConnections: {0, 100},
	models.MetricResponseTime:  {0, math.Inf(1)},
}

// defaults applied at construction
var defaults = models.ThresholdSet{
	models.MetricCPU:           80,
	models.MetricMemory:        85,
	models.MetricDisk:          90,
	models.MetricResponseTime:  1000,
	models.MetricErrorRate:     5,
	models.MetricDBConnections: 90,
}

// Registry holds the current threshold configuration. It is process-scoped
// in-memory state; callers construct independent instances rather than
// sharing a package-level singleton.
type Registry struct {
	mu  sync.RWMutex
	set models.ThresholdSet
}

// New creates a registry seeded with the default thresholds
func New() *Registry {
	return &Registry{set: defaults.Clone()}
}

// Known reports whether the metric is a configurable threshold key
func Known(metric string) bool {
	_, ok := bounds[metric]
	return ok
}

// Get returns a snapshot of the current thresholds. Mutating the returned
// set does not affect the registry.
func (r *Registry) Get() models.ThresholdSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Clone()
}

// Update validates every provided key, then merges the partial set into the
// current configuration. Validation failure rejects the entire update; the
// registry is left unchanged. Returns the new full set on success.
func (r *Registry) Update(partial models.ThresholdSet) (models.ThresholdSet, error) {
	// Validate everything before touching state
	for key, value := range partial {
		b, ok := bounds[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
		}
		if math.IsNaN(value) || value < b.min || value > b.max {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidThreshold, key, value)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, value := range partial {
		r.set[key] = value
	}

	log := logger.WithComponent("thresholds")
	log.Info().Int("updated_keys", len(partial)).Msg("thresholds updated")

	return r.set.Clone(), nil
}
