// Package floodguard throttles and temporarily blocks callers who
// exceed request-rate thresholds. It also keeps the session-freshness
// markers the conversation flow uses for its idle timeout.
package floodguard

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"salonbot/internal/metrics"
)

// Config holds the guard thresholds.
type Config struct {
	PerMinuteLimit int
	PerHourLimit   int
	BlockDuration  time.Duration
	SessionTimeout time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		PerMinuteLimit: 30,
		PerHourLimit:   200,
		BlockDuration:  time.Hour,
		SessionTimeout: 10 * time.Minute,
	}
}

// rateState is the per-caller accounting record. The window never
// retains entries older than one hour.
type rateState struct {
	window         []time.Time
	blockedUntil   time.Time
	sessionTouched time.Time
}

// Guard is the in-memory flood guard. All state is process-local; a
// single mutex covers both the request path and the sweep.
type Guard struct {
	mu     sync.Mutex
	states map[int64]*rateState
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a guard with the given thresholds.
func New(cfg Config, logger zerolog.Logger) *Guard {
	if cfg.PerMinuteLimit <= 0 {
		cfg.PerMinuteLimit = 30
	}
	if cfg.PerHourLimit <= 0 {
		cfg.PerHourLimit = 200
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = time.Hour
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 10 * time.Minute
	}
	return &Guard{
		states: make(map[int64]*rateState),
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With().Str("component", "floodguard").Logger(),
	}
}

func (g *Guard) state(callerID int64) *rateState {
	st, ok := g.states[callerID]
	if !ok {
		st = &rateState{}
		g.states[callerID] = st
	}
	return st
}

// RegisterRequest accounts one inbound request and reports whether it
// is allowed. A caller inside a block period is refused without
// re-evaluating thresholds. Crossing either the per-minute or the
// per-hour threshold blocks the caller for the configured duration.
func (g *Guard) RegisterRequest(callerID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	st := g.state(callerID)

	if now.Before(st.blockedUntil) {
		return false
	}

	st.window = pruneBefore(st.window, now.Add(-time.Hour))

	minuteAgo := now.Add(-time.Minute)
	recent := 0
	for _, ts := range st.window {
		if ts.After(minuteAgo) {
			recent++
		}
	}

	if recent >= g.cfg.PerMinuteLimit || len(st.window) >= g.cfg.PerHourLimit {
		st.blockedUntil = now.Add(g.cfg.BlockDuration)
		metrics.IncFloodBlocked()
		g.logger.Warn().
			Int64("caller_id", callerID).
			Int("window_size", len(st.window)).
			Time("blocked_until", st.blockedUntil).
			Msg("caller blocked for flooding")
		return false
	}

	st.window = append(st.window, now)
	return true
}

// IsBlocked reports whether the caller is inside a block period.
func (g *Guard) IsBlocked(callerID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[callerID]
	return ok && g.now().Before(st.blockedUntil)
}

// Unblock lifts a block early (operator override).
func (g *Guard) Unblock(callerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if st, ok := g.states[callerID]; ok {
		st.blockedUntil = time.Time{}
		g.logger.Info().Int64("caller_id", callerID).Msg("caller unblocked")
	}
}

// TouchSession refreshes the caller's session marker.
func (g *Guard) TouchSession(callerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state(callerID).sessionTouched = g.now()
}

// ClearSession drops the caller's session marker.
func (g *Guard) ClearSession(callerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if st, ok := g.states[callerID]; ok {
		st.sessionTouched = time.Time{}
	}
}

// SessionIsFresh reports whether the caller's session marker exists and
// is younger than maxAge.
func (g *Guard) SessionIsFresh(callerID int64, maxAge time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[callerID]
	if !ok || st.sessionTouched.IsZero() {
		return false
	}
	return g.now().Sub(st.sessionTouched) <= maxAge
}

// Sweep prunes expired window entries, stale session markers and
// expired blocks, and drops empty records so memory does not grow for
// callers who went silent. Returns the number of records removed.
func (g *Guard) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for callerID, st := range g.states {
		st.window = pruneBefore(st.window, now.Add(-time.Hour))
		if !st.sessionTouched.IsZero() && now.Sub(st.sessionTouched) > g.cfg.SessionTimeout {
			st.sessionTouched = time.Time{}
		}
		if !st.blockedUntil.IsZero() && !now.Before(st.blockedUntil) {
			st.blockedUntil = time.Time{}
		}
		if len(st.window) == 0 && st.sessionTouched.IsZero() && st.blockedUntil.IsZero() {
			delete(g.states, callerID)
			removed++
		}
	}
	return removed
}

// SessionTimeout exposes the configured idle window.
func (g *Guard) SessionTimeout() time.Duration {
	return g.cfg.SessionTimeout
}

func pruneBefore(window []time.Time, cutoff time.Time) []time.Time {
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
