package scroll

import (
	"sync"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/oklog/ulid/v2"
)

// DefaultUnitScale is the number of feet credited per accepted scroll.
const DefaultUnitScale = 6.5

// Subscriber receives a Reading for every accepted scroll. Push is called
// with the tracker lock held: it must not block and must not call back into
// the Tracker.
type Subscriber interface {
	Push(r models.Reading)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(r models.Reading)

// Push calls f(r).
func (f SubscriberFunc) Push(r models.Reading) {
	f(r)
}

// Handle identifies one subscription.
type Handle string

// Counter counts accepted scrolls, classifies the distance, and emits to a
// single-slot subscriber.
type Counter struct {
	state     *State
	scale     float64
	landmarks Table
	now       func() time.Time

	slotMu sync.Mutex
	handle Handle
	sub    Subscriber
}

// NewCounter creates a counter operating on state.
func NewCounter(state *State, scale float64, landmarks Table, now func() time.Time) *Counter {
	if now == nil {
		now = time.Now
	}
	return &Counter{
		state:     state,
		scale:     scale,
		landmarks: landmarks,
		now:       now,
	}
}

// Subscribe installs sub, replacing any previous subscriber.
func (c *Counter) Subscribe(sub Subscriber) Handle {
	h := Handle(ulid.Make().String())
	c.slotMu.Lock()
	c.handle = h
	c.sub = sub
	c.slotMu.Unlock()
	return h
}

// Unsubscribe clears the slot if h is the current subscription. A stale or
// unknown handle leaves the slot untouched and returns false.
func (c *Counter) Unsubscribe(h Handle) bool {
	c.slotMu.Lock()
	defer c.slotMu.Unlock()
	if h == "" || h != c.handle {
		return false
	}
	c.handle = ""
	c.sub = nil
	return true
}

// Subscribed reports whether a subscriber is registered.
func (c *Counter) Subscribed() bool {
	c.slotMu.Lock()
	defer c.slotMu.Unlock()
	return c.sub != nil
}

// OnAccept records one accepted scroll and emits the resulting Reading.
func (c *Counter) OnAccept() models.Reading {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.acceptLocked()
}

// acceptLocked requires c.state.mu. Holding it across the emit keeps
// readings ordered by count.
func (c *Counter) acceptLocked() models.Reading {
	c.state.counter++
	r := c.reading(c.state.counter)
	c.emit(r)
	return r
}

// Classify converts count into a Reading without touching state.
func (c *Counter) Classify(count uint64) models.Reading {
	return c.reading(count)
}

func (c *Counter) reading(count uint64) models.Reading {
	feet := float64(count) * c.scale
	cls := c.landmarks.Classify(feet)
	return models.Reading{
		Count:    count,
		Feet:     feet,
		Landmark: cls.Label,
		Bucket:   cls.Bucket,
		Exceeded: cls.Exceeded,
		At:       c.now(),
	}
}

func (c *Counter) emit(r models.Reading) {
	c.slotMu.Lock()
	sub := c.sub
	c.slotMu.Unlock()
	if sub == nil {
		return
	}
	sub.Push(r)
}
