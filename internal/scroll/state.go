// Package scroll implements the scroll-event debouncing and counting core.
//
// A Filter decides, per delivered event, whether the event belongs to the
// tracked app and whether a scroll falls inside the cooldown window. A
// Counter increments the running count on every accepted scroll, converts it
// to feet and classifies it against a landmark table, then pushes the result
// to at most one subscriber. A Tracker wires both around a shared State.
package scroll

import (
	"errors"
	"sync"
)

// Configuration errors returned by New.
var (
	ErrNoAppID      = errors.New("scroll: tracked app id is empty")
	ErrBadCooldown  = errors.New("scroll: cooldown must be positive")
	ErrBadUnitScale = errors.New("scroll: unit scale must be positive")
	ErrBadLandmarks = errors.New("scroll: invalid landmark table")
)

// State is the mutable state shared by the Filter and the Counter. It lives
// for the lifetime of the owning Tracker and is never persisted.
type State struct {
	mu         sync.Mutex
	debouncing bool
	counter    uint64
}

// Count returns the number of accepted scrolls so far.
func (s *State) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Debouncing reports whether a cooldown window is active.
func (s *State) Debouncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debouncing
}

// rearm is the cooldown timer callback.
func (s *State) rearm() {
	s.mu.Lock()
	s.debouncing = false
	s.mu.Unlock()
}
