package service

import (
	"context"
	"fmt"
	"sync"

	"sentinel/internal/evaluator"
	"sentinel/internal/logger"
	"sentinel/internal/models"
	"sentinel/internal/notify"
	"sentinel/internal/store"
	"sentinel/internal/thresholds"
)

// ClearResult reports the outcome of a clear-resolved sweep
type ClearResult struct {
	ClearedCount   int `json:"cleared_count"`
	RemainingCount int `json:"remaining_count"`
}

// Service is the public facade over evaluation, alert state, and dispatch.
// Per-alert lifecycle: none -> fired -> (resolved | deleted). A metric that
// breaches again after resolution fires a brand-new alert identity.
type Service struct {
	registry   *thresholds.Registry
	store      *store.Store
	dispatcher *notify.Dispatcher

	// ingestMu serializes the dedup-check-then-record sequence so an
	// oscillating metric cannot slip two identical alerts past the
	// hysteresis check.
	ingestMu sync.Mutex

	// dispatches tracks in-flight asynchronous dispatches for shutdown
	dispatches sync.WaitGroup
}

// New wires the facade from its components
func New(registry *thresholds.Registry, st *store.Store, dispatcher *notify.Dispatcher) *Service {
	return &Service{
		registry:   registry,
		store:      st,
		dispatcher: dispatcher,
	}
}

// Ingest evaluates a metric reading and, when it fires, records the alert
// and dispatches notifications in the background. The returned alert (nil
// when nothing fired) reflects the decision and the record; dispatch
// failures never fail the ingest call.
//
// When a fire escalates an existing unresolved alert for the same metric,
// the superseded alert is auto-resolved in the same critical section, so
// at most one unresolved alert per metric exists at any time.
func (s *Service) Ingest(ctx context.Context, metric string, value float64) (*models.Alert, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	current := s.store.Current(models.Filter{Type: metric})

	alert, err := evaluator.Evaluate(metric, value, s.registry.Get(), current)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, nil
	}

	recorded := s.store.Record(*alert)

	// Replace, don't coexist: resolve the superseded lower-severity alert
	for _, prev := range current {
		if !prev.Resolved {
			s.store.Resolve(prev.ID)
		}
	}

	s.dispatchAsync(recorded)
	return &recorded, nil
}

// ManualAlert carries the optional fields of an operator-initiated alert
type ManualAlert struct {
	Value     float64
	Threshold float64
}

// TriggerManual records an operator-initiated alert, bypassing threshold
// evaluation and dedup entirely. The type is free-form and need not be a
// known metric. Notifications are dispatched in the background.
func (s *Service) TriggerManual(ctx context.Context, alertType, message string, severity models.Severity, extra ManualAlert) (*models.Alert, error) {
	if severity == "" {
		severity = models.SeverityInfo
	}

	alert := models.Alert{
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		Value:     extra.Value,
		Threshold: extra.Threshold,
	}
	if err := alert.Validate(); err != nil {
		return nil, fmt.Errorf("manual trigger: %w", err)
	}

	recorded := s.store.Record(alert)
	s.dispatchAsync(recorded)
	return &recorded, nil
}

// dispatchAsync fans the alert out without blocking the caller
func (s *Service) dispatchAsync(alert models.Alert) {
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()

		result := s.dispatcher.Dispatch(context.Background(), alert)

		log := logger.WithComponent("service").With().
			Str("alert_id", alert.ID).
			Str("type", alert.Type).
			Logger()
		if result.Succeeded() {
			log.Info().Int("channels", len(result)).Msg("alert dispatched")
		} else {
			log.Warn().Interface("result", result).Msg("alert dispatched with channel failures")
		}
	}()
}

// SendTest dispatches a synthetic alert to the named channel (or "all") and
// blocks until the per-channel results are in. Nothing is recorded.
func (s *Service) SendTest(ctx context.Context, channel string) (notify.Result, error) {
	return s.dispatcher.Test(ctx, channel)
}

// UpdateThresholds applies a partial, atomically validated threshold update
func (s *Service) UpdateThresholds(partial models.ThresholdSet) (models.ThresholdSet, error) {
	return s.registry.Update(partial)
}

// GetThresholds returns the current threshold snapshot
func (s *Service) GetThresholds() models.ThresholdSet {
	return s.registry.Get()
}

// Current lists active alerts
func (s *Service) Current(f models.Filter) []models.Alert {
	return s.store.Current(f)
}

// History lists retained alert history
func (s *Service) History(f models.Filter) []models.Alert {
	return s.store.History(f)
}

// Stats returns aggregate alert counts
func (s *Service) Stats() models.Stats {
	return s.store.Stats()
}

// ResolveAlert marks a current alert resolved. Returns false when no
// unresolved alert matches the id.
func (s *Service) ResolveAlert(id string) bool {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	return s.store.Resolve(id)
}

// DeleteAlert removes an alert from the current set. Returns false when
// not found.
func (s *Service) DeleteAlert(id string) bool {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	return s.store.Remove(id)
}

// ClearResolved sweeps resolved alerts out of the current set
func (s *Service) ClearResolved() ClearResult {
	cleared := s.store.ClearResolved()
	return ClearResult{
		ClearedCount:   cleared,
		RemainingCount: s.store.CurrentCount(),
	}
}

// Close waits for in-flight dispatches to finish
func (s *Service) Close() {
	s.dispatches.Wait()
}
