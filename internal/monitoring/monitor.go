// Package monitoring samples runtime and session counts and logs alerts when
// they cross configured thresholds.
package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
)

// SessionSource reports session table counts.
type SessionSource interface {
	Stats() gamemaster.Stats
}

// Config controls a Monitor.
type Config struct {
	Interval time.Duration
	// GoroutineAlert warns when the goroutine count exceeds it; 0 disables
	GoroutineAlert int
	// SessionAlert warns when live sessions exceed it; 0 disables
	SessionAlert  int
	AlertCooldown time.Duration
}

// Metrics is one sample.
type Metrics struct {
	Goroutines int              `json:"goroutines"`
	Baseline   int              `json:"baseline"`
	Peak       int              `json:"peak"`
	Growth     int              `json:"growth"`
	Sessions   gamemaster.Stats `json:"sessions"`
	SampledAt  time.Time        `json:"sampled_at"`
}

// Monitor tracks goroutine and session metrics
type Monitor struct {
	mu        sync.RWMutex
	cfg       Config
	source    SessionSource
	baseline  int
	peak      int
	last      Metrics
	lastAlert time.Time
	alerts    int
	logger    zerolog.Logger
}

// New creates a monitor. source may be nil to sample goroutines only.
func New(cfg Config, source SessionSource, logger zerolog.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = 5 * time.Minute
	}
	baseline := runtime.NumGoroutine()
	return &Monitor{
		cfg:      cfg,
		source:   source,
		baseline: baseline,
		peak:     baseline,
		logger:   logger.With().Str("component", "Monitor").Logger(),
	}
}

// Run samples every interval until ctx is done. A panic in a sample is logged
// and the loop restarts.
func (m *Monitor) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Interface("panic", r).
				Msg("Monitor panicked - restarting")
			if ctx.Err() == nil {
				go m.Run(ctx)
			}
		}
	}()

	m.logger.Info().
		Int("baseline", m.baseline).
		Dur("interval", m.cfg.Interval).
		Msg("Started monitoring")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sample()
		case <-ctx.Done():
			return
		}
	}
}

// Sample takes one measurement, logs it and alerts when a threshold is crossed.
func (m *Monitor) Sample() Metrics {
	now := time.Now()
	current := runtime.NumGoroutine()
	var sessions gamemaster.Stats
	if m.source != nil {
		sessions = m.source.Stats()
	}

	m.mu.Lock()
	if current > m.peak {
		m.peak = current
	}
	metrics := Metrics{
		Goroutines: current,
		Baseline:   m.baseline,
		Peak:       m.peak,
		Growth:     current - m.baseline,
		Sessions:   sessions,
		SampledAt:  now,
	}
	m.last = metrics

	overGoroutines := m.cfg.GoroutineAlert > 0 && current > m.cfg.GoroutineAlert
	overSessions := m.cfg.SessionAlert > 0 && sessions.Sessions > m.cfg.SessionAlert
	shouldAlert := (overGoroutines || overSessions) && now.Sub(m.lastAlert) > m.cfg.AlertCooldown
	if shouldAlert {
		m.lastAlert = now
		m.alerts++
	}
	m.mu.Unlock()

	m.logger.Debug().
		Int("goroutines", current).
		Int("baseline", metrics.Baseline).
		Int("peak", metrics.Peak).
		Int("sessions", sessions.Sessions).
		Int("running", sessions.Running).
		Int("ended", sessions.Ended).
		Msg("Runtime metrics")

	if shouldAlert {
		m.logger.Warn().
			Int("goroutines", current).
			Int("goroutine_threshold", m.cfg.GoroutineAlert).
			Int("sessions", sessions.Sessions).
			Int("session_threshold", m.cfg.SessionAlert).
			Msg("Resource threshold exceeded - possible leak")
	}
	return metrics
}

// Last returns the most recent sample.
func (m *Monitor) Last() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Alerts returns how many alerts have been raised.
func (m *Monitor) Alerts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alerts
}
