package scroll

import (
	"fmt"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
)

// Options configures a Tracker.
type Options struct {
	AppID     string
	Cooldown  time.Duration
	UnitScale float64
	Landmarks Table

	// Scheduler runs cooldown timers. Defaults to RealScheduler.
	Scheduler Scheduler
	// Clock stamps readings. Defaults to time.Now.
	Clock func() time.Time
}

// Tracker is one Filter plus one Counter sharing a State. Handle is safe
// for concurrent use: the filter decision, the increment and the emission
// run as a single critical section.
type Tracker struct {
	state   *State
	filter  *Filter
	counter *Counter
}

// New validates opts and returns a Tracker with a zero count.
func New(opts Options) (*Tracker, error) {
	if opts.AppID == "" {
		return nil, ErrNoAppID
	}
	if opts.Cooldown <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadCooldown, opts.Cooldown)
	}
	if opts.UnitScale <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadUnitScale, opts.UnitScale)
	}
	landmarks := opts.Landmarks
	if landmarks == nil {
		landmarks = DefaultLandmarks
	}
	if err := landmarks.Validate(); err != nil {
		return nil, err
	}
	landmarks = append(Table(nil), landmarks...)

	state := &State{}
	return &Tracker{
		state:   state,
		filter:  NewFilter(opts.AppID, opts.Cooldown, state, opts.Scheduler),
		counter: NewCounter(state, opts.UnitScale, landmarks, opts.Clock),
	}, nil
}

// Handle runs one event through the filter and, when accepted, the counter.
func (t *Tracker) Handle(kind models.EventKind, appID string) Action {
	if appID == "" || appID != t.filter.appID {
		return Ignore
	}
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	action := t.filter.handleLocked(kind)
	if action == AcceptScroll {
		t.counter.acceptLocked()
	}
	return action
}

// Deliver is Handle for a decoded event.
func (t *Tracker) Deliver(e models.Event) Action {
	return t.Handle(e.Kind, e.AppID)
}

// Subscribe installs sub as the single subscriber.
func (t *Tracker) Subscribe(sub Subscriber) Handle {
	return t.counter.Subscribe(sub)
}

// Unsubscribe clears the subscription identified by h.
func (t *Tracker) Unsubscribe(h Handle) bool {
	return t.counter.Unsubscribe(h)
}

// AppID returns the tracked app identifier.
func (t *Tracker) AppID() string {
	return t.filter.appID
}

// Count returns the number of accepted scrolls.
func (t *Tracker) Count() uint64 {
	return t.state.Count()
}

// Debouncing reports whether a cooldown window is open.
func (t *Tracker) Debouncing() bool {
	return t.state.Debouncing()
}

// Reading returns the current count with its classification.
func (t *Tracker) Reading() models.Reading {
	return t.counter.Classify(t.state.Count())
}

// Classify returns the Reading a given count would produce.
func (t *Tracker) Classify(count uint64) models.Reading {
	return t.counter.Classify(count)
}

// Landmarks returns a copy of the landmark table.
func (t *Tracker) Landmarks() Table {
	return append(Table(nil), t.counter.landmarks...)
}
