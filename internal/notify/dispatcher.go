package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/models"
)

// DefaultSendTimeout bounds a single channel delivery so one hung channel
// cannot stall the whole dispatch.
const DefaultSendTimeout = 10 * time.Second

// channel pairs a notifier with its delivery policy
type channel struct {
	notifier    Notifier
	minSeverity models.Severity
}

// Dispatcher fans a fired alert out to every enabled channel. Channel sends
// run concurrently and complete independently: one channel failing or
// timing out never blocks the others, and failures are recorded in the
// result instead of propagating.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]channel
	timeout  time.Duration
}

// DispatcherOption configures the dispatcher
type DispatcherOption func(*Dispatcher)

// WithSendTimeout overrides the per-channel send timeout
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// NewDispatcher creates a dispatcher with no channels registered
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		channels: make(map[string]channel),
		timeout:  DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a channel. minSeverity gates delivery: the channel only
// receives alerts at or above that level. An empty minSeverity means the
// channel receives everything.
func (d *Dispatcher) Register(n Notifier, minSeverity models.Severity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[n.Name()] = channel{notifier: n, minSeverity: minSeverity}
}

// Channels returns the names of all registered channels
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}

// Dispatch sends the alert to every registered channel whose severity gate
// admits it. It returns once all attempts have completed; gated channels
// are not attempted and do not appear in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.Alert) Result {
	d.mu.RLock()
	targets := make([]channel, 0, len(d.channels))
	for _, ch := range d.channels {
		if ch.minSeverity != "" && alert.Severity.Rank() < ch.minSeverity.Rank() {
			continue
		}
		targets = append(targets, ch)
	}
	d.mu.RUnlock()

	return d.fanOut(ctx, alert, targets)
}

// Test sends a synthetic alert to the named channel, or to every channel
// when name is "all", bypassing severity gates. The alert is ephemeral and
// never recorded. Returns an error only when the channel name is unknown.
func (d *Dispatcher) Test(ctx context.Context, name string) (Result, error) {
	alert := models.Alert{
		Type:      "test",
		Severity:  models.SeverityInfo,
		Message:   "test notification from sentinel",
		Timestamp: time.Now().UTC(),
	}

	d.mu.RLock()
	var targets []channel
	if name == ChannelAll {
		for _, ch := range d.channels {
			targets = append(targets, ch)
		}
	} else {
		ch, ok := d.channels[name]
		if !ok {
			d.mu.RUnlock()
			return nil, fmt.Errorf("unknown notification channel %q", name)
		}
		targets = []channel{ch}
	}
	d.mu.RUnlock()

	return d.fanOut(ctx, alert, targets), nil
}

// fanOut runs one bounded send attempt per target and gathers outcomes
func (d *Dispatcher) fanOut(ctx context.Context, alert models.Alert, targets []channel) Result {
	result := make(Result, len(targets))
	if len(targets) == 0 {
		return result
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, ch := range targets {
		wg.Add(1)
		go func(ch channel) {
			defer wg.Done()
			outcome := d.attempt(ctx, ch.notifier, alert)
			mu.Lock()
			result[ch.notifier.Name()] = outcome
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	return result
}

// attempt performs a single bounded delivery, absorbing errors and panics
func (d *Dispatcher) attempt(ctx context.Context, n Notifier, alert models.Alert) (outcome Outcome) {
	log := logger.WithComponent("dispatcher").With().
		Str("channel", n.Name()).
		Str("alert_type", alert.Type).
		Str("severity", string(alert.Severity)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues("dispatcher").Inc()
			metrics.DispatchTotal.WithLabelValues(n.Name(), StatusFailed).Inc()
			log.Error().Interface("panic", r).Msg("notifier panic recovered")
			outcome = Outcome{Status: StatusFailed, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := n.Send(sendCtx, alert)
	duration := time.Since(start)

	metrics.DispatchDuration.WithLabelValues(n.Name()).Observe(duration.Seconds())

	if err != nil {
		metrics.DispatchTotal.WithLabelValues(n.Name(), StatusFailed).Inc()
		log.Error().Err(err).Dur("duration", duration).Msg("notification delivery failed")
		return Outcome{Status: StatusFailed, Error: err.Error()}
	}

	metrics.DispatchTotal.WithLabelValues(n.Name(), StatusSuccess).Inc()
	log.Info().Dur("duration", duration).Msg("notification delivered")
	return Outcome{Status: StatusSuccess}
}
