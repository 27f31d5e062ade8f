// Package watcher turns host notifications into models.Event values.
package watcher

import (
	"log/slog"

	"github.com/doomscroll/doomscroll/pkg/models"
)

// Watcher is the interface for all event sources
type Watcher interface {
	Name() string
	Start() error
	Stop()
}

// EventSink is a channel that receives events
type EventSink chan<- models.Event

// send delivers e without blocking; a full sink drops the event.
func send(sink EventSink, e models.Event, logger *slog.Logger, source string) bool {
	select {
	case sink <- e:
		return true
	default:
		logger.Warn("event queue full, dropping event",
			"source", source, "kind", e.Kind, "app", e.AppID)
		return false
	}
}
