// Package conversation drives a caller through the booking dialogue
// step by step.
package conversation

import (
	"sync"
	"time"
)

// Step identifies the caller's position in the booking dialogue.
type Step string

const (
	StepSelectService Step = "select_service"
	StepEnterDate     Step = "enter_date"
	StepEnterTime     Step = "enter_time"
	StepEnterFullName Step = "enter_full_name"
	StepEnterAllergy  Step = "enter_allergy"
	StepEnterPhone    Step = "enter_phone"
	StepConfirm       Step = "confirm"
)

// transitions lists the allowed forward moves. Terminal outcomes
// (committed, cancelled) destroy the session instead of entering a
// state.
var transitions = map[Step][]Step{
	StepSelectService: {StepEnterDate},
	StepEnterDate:     {StepEnterTime},
	StepEnterTime:     {StepEnterFullName},
	StepEnterFullName: {StepEnterAllergy},
	StepEnterAllergy:  {StepEnterPhone},
	StepEnterPhone:    {StepConfirm},
	StepConfirm:       {},
}

// backTargets lists the only steps a "back" request may re-enter. A
// back request from any other step is treated as corrupted navigation
// and resets the dialogue.
var backTargets = map[Step]Step{
	StepEnterDate:    StepSelectService,
	StepEnterAllergy: StepEnterFullName,
	StepEnterPhone:   StepEnterAllergy,
	StepConfirm:      StepEnterPhone,
}

// CanTransition checks if a forward transition is allowed.
func CanTransition(from, to Step) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// BackTarget returns the step a back request from the given step
// re-enters, if any.
func BackTarget(from Step) (Step, bool) {
	to, ok := backTargets[from]
	return to, ok
}

// BookingData holds the answers collected so far.
type BookingData struct {
	ServiceName string
	Date        string
	Time        string
	FullName    string
	HasAllergy  bool
	Phone       string
}

// Session is the ephemeral per-caller dialogue state.
type Session struct {
	CallerID  int64
	Step      Step
	Data      BookingData
	StartedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a fresh session at the first step.
func NewSession(callerID int64) *Session {
	now := time.Now()
	return &Session{
		CallerID:  callerID,
		Step:      StepSelectService,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SessionStore manages dialogue sessions. Each caller's actions arrive
// sequentially, so a session is only ever mutated by its own handler
// invocation; the store lock covers the map itself.
type SessionStore struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns a caller's session, or nil.
func (ss *SessionStore) Get(callerID int64) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.sessions[callerID]
}

// GetOrCreate returns the existing session or creates a fresh one.
func (ss *SessionStore) GetOrCreate(callerID int64) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if session, ok := ss.sessions[callerID]; ok {
		return session
	}
	session := NewSession(callerID)
	ss.sessions[callerID] = session
	return session
}

// Reset replaces a caller's session with a fresh one.
func (ss *SessionStore) Reset(callerID int64) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	session := NewSession(callerID)
	ss.sessions[callerID] = session
	return session
}

// Delete removes a caller's session.
func (ss *SessionStore) Delete(callerID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, callerID)
}
