package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/models"
)

// DefaultRetention bounds the history when no limit is configured
const DefaultRetention = 1000

// Store is the authoritative holder of alert state: an append-only,
// retention-bounded history plus the working set of unresolved alerts.
// The current set shares entry identity with history, so resolving an
// alert mutates the history entry in place.
//
// All methods are safe for concurrent use; the read-modify-write sequences
// behind dedup live in the service layer, which serializes them.
type Store struct {
	mu        sync.Mutex
	retention int
	history   []*models.Alert
	current   map[string]*models.Alert // keyed by alert ID
}

// New creates an empty store with the given history retention limit
func New(retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		retention: retention,
		current:   make(map[string]*models.Alert),
	}
}

// Record assigns the alert its identity, appends it to history, and adds it
// to the current set. The returned copy carries the assigned ID; a
// subsequent Current() call observes the alert immediately.
func (s *Store) Record(alert models.Alert) models.Alert {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}
	// UUID identity; the timestamp stays a display/filter field
	alert.ID = uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := alert
	s.history = append(s.history, &stored)
	if !stored.Resolved {
		s.current[stored.ID] = &stored
	}
	s.evictLocked()

	metrics.AlertsFiredTotal.WithLabelValues(stored.Type, string(stored.Severity)).Inc()
	s.updateGaugesLocked()

	return stored
}

// evictLocked drops the oldest history entries once retention is exceeded.
// Evicted entries also leave the current set to keep it a subset of history.
func (s *Store) evictLocked() {
	if len(s.history) <= s.retention {
		return
	}
	evicted := s.history[:len(s.history)-s.retention]
	for _, a := range evicted {
		delete(s.current, a.ID)
	}
	s.history = append([]*models.Alert(nil), s.history[len(s.history)-s.retention:]...)
}

// lookupLocked finds a current alert by ID, falling back to the RFC3339Nano
// timestamp string for callers still holding the legacy weak key.
func (s *Store) lookupLocked(id string) *models.Alert {
	if a, ok := s.current[id]; ok {
		return a
	}
	for _, a := range s.current {
		if a.Timestamp.Format(time.RFC3339Nano) == id {
			return a
		}
	}
	return nil
}

// Resolve marks the matching current alert resolved and removes it from the
// working set. The history entry is mutated in place. Returns false when no
// unresolved alert matches; resolving twice is a no-op, not an error.
func (s *Store) Resolve(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.lookupLocked(id)
	if a == nil {
		return false
	}
	a.Resolved = true
	delete(s.current, a.ID)

	metrics.AlertsResolvedTotal.Inc()
	s.updateGaugesLocked()

	log := logger.WithComponent("store")
	log.Info().Str("alert_id", a.ID).Str("type", a.Type).Msg("alert resolved")
	return true
}

// Remove hard-deletes an alert from the current set without resolving it.
// History is untouched. Returns false when no current alert matches.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.lookupLocked(id)
	if a == nil {
		return false
	}
	delete(s.current, a.ID)
	s.updateGaugesLocked()
	return true
}

// ClearResolved removes any resolved alerts that leaked into the current
// set. Resolve already removes entries, so this is a reconciliation step
// and is safe to call when current is already clean.
func (s *Store) ClearResolved() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for id, a := range s.current {
		if a.Resolved {
			delete(s.current, id)
			cleared++
		}
	}
	s.updateGaugesLocked()
	return cleared
}

// Current returns copies of the current alerts passing the filter, in
// creation order (most recent last), truncated to the last Limit entries.
func (s *Store) Current(f models.Filter) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	// History order gives creation order; current is a subset of history.
	out := make([]models.Alert, 0, len(s.current))
	for _, a := range s.history {
		if _, ok := s.current[a.ID]; !ok {
			continue
		}
		if !f.Match(a) {
			continue
		}
		out = append(out, *a)
	}
	return tail(out, f.Limit)
}

// History returns copies of up to Limit most recent history entries that
// pass the filter, in creation order (most recent last).
func (s *Store) History(f models.Filter) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Alert, 0, len(s.history))
	for _, a := range s.history {
		if !f.Match(a) {
			continue
		}
		out = append(out, *a)
	}
	return tail(out, f.Limit)
}

// Stats aggregates counts over history and the current set
func (s *Store) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.Stats{
		ByType:       make(map[string]int),
		BySeverity:   make(map[models.Severity]int),
		TotalFired:   len(s.history),
		TotalCurrent: len(s.current),
	}
	for _, a := range s.history {
		st.ByType[a.Type]++
		st.BySeverity[a.Severity]++
	}
	return st
}

// CurrentCount returns the size of the working set
func (s *Store) CurrentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current)
}

func (s *Store) updateGaugesLocked() {
	metrics.AlertsCurrent.Set(float64(len(s.current)))
	metrics.HistorySize.Set(float64(len(s.history)))
}

func tail(alerts []models.Alert, limit int) []models.Alert {
	if limit > 0 && len(alerts) > limit {
		return alerts[len(alerts)-limit:]
	}
	return alerts
}
