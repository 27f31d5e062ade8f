package scroll

import (
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
)

// DefaultCooldown is the debounce window applied after an accepted scroll.
const DefaultCooldown = 650 * time.Millisecond

// Action is the Filter's verdict for one delivered event.
type Action int

const (
	Ignore Action = iota
	NotifyForeground
	AcceptScroll
	SuppressScroll
)

var actionNames = map[Action]string{
	Ignore:           "ignore",
	NotifyForeground: "notify_foreground",
	AcceptScroll:     "accept_scroll",
	SuppressScroll:   "suppress_scroll",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Filter gates raw events for a single tracked app.
type Filter struct {
	appID     string
	cooldown  time.Duration
	state     *State
	scheduler Scheduler
}

// NewFilter creates a filter for appID operating on state.
func NewFilter(appID string, cooldown time.Duration, state *State, scheduler Scheduler) *Filter {
	if scheduler == nil {
		scheduler = RealScheduler
	}
	return &Filter{
		appID:     appID,
		cooldown:  cooldown,
		state:     state,
		scheduler: scheduler,
	}
}

// AppID returns the tracked app identifier.
func (f *Filter) AppID() string {
	return f.appID
}

// Handle classifies one event and, for an accepted scroll, opens the
// cooldown window.
func (f *Filter) Handle(kind models.EventKind, appID string) Action {
	if appID == "" || appID != f.appID {
		return Ignore
	}
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	return f.handleLocked(kind)
}

// handleLocked requires f.state.mu and an event already matched to the
// tracked app.
func (f *Filter) handleLocked(kind models.EventKind) Action {
	switch kind {
	case models.EventForegroundChanged:
		return NotifyForeground
	case models.EventScrollSignal:
		if f.state.debouncing {
			return SuppressScroll
		}
		f.state.debouncing = true
		f.scheduler.AfterFunc(f.cooldown, f.state.rearm)
		return AcceptScroll
	default:
		return Ignore
	}
}
