package models

import (
	"strings"
	"time"
)

// EventKind represents the type of a host notification
type EventKind string

const (
	EventForegroundChanged EventKind = "foreground_changed"
	EventScrollSignal      EventKind = "scroll"
	EventUnknown           EventKind = "unknown"
)

// ParseEventKind maps a wire name onto an EventKind. Anything unrecognized
// becomes EventUnknown.
func ParseEventKind(s string) EventKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "foreground_changed", "foreground", "window_state_changed":
		return EventForegroundChanged
	case "scroll", "scroll_signal", "view_scrolled":
		return EventScrollSignal
	default:
		return EventUnknown
	}
}

// Event represents a notification delivered by a host event source
type Event struct {
	ID        string    `json:"id,omitempty"`
	Kind      EventKind `json:"kind"`
	AppID     string    `json:"app"`
	Timestamp time.Time `json:"ts,omitempty"`
}

// Reading is the payload pushed to the subscriber after an accepted scroll
type Reading struct {
	Count    uint64    `json:"count"`
	Feet     float64   `json:"feet"`
	Landmark string    `json:"landmark"`
	Bucket   int       `json:"bucket"`
	Exceeded bool      `json:"exceeded,omitempty"`
	At       time.Time `json:"at"`
}
