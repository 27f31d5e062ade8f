package scroll

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs one-shot deferred callbacks. Scheduled callbacks are never
// cancelled; each one fires exactly once.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, f func())

// AfterFunc calls fn(d, f).
func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) {
	fn(d, f)
}

// RealScheduler schedules callbacks on the runtime timer heap.
var RealScheduler Scheduler = SchedulerFunc(func(d time.Duration, f func()) {
	time.AfterFunc(d, f)
})

type manualTimer struct {
	due time.Time
	seq int
	fn  func()
}

// ManualScheduler is a virtual-time Scheduler. Callbacks fire only when the
// clock is advanced past their due time, in due order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []manualTimer
}

// NewManualScheduler returns a scheduler whose clock starts at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// AfterFunc registers f to run once the clock reaches now+d.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending = append(m.pending, manualTimer{due: m.now.Add(d), seq: m.seq, fn: f})
}

// Now returns the virtual clock.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks that have not fired yet.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by d and fires every callback that became due.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.AdvanceTo(m.Now().Add(d))
}

// AdvanceTo moves the clock to t and fires every callback due at or before t.
// The clock steps to each callback's due time before it runs, and callbacks
// run without the scheduler lock held, so they may schedule further
// callbacks. Moving backwards is a no-op.
func (m *ManualScheduler) AdvanceTo(t time.Time) {
	for {
		m.mu.Lock()
		sort.Slice(m.pending, func(i, j int) bool {
			if m.pending[i].due.Equal(m.pending[j].due) {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].due.Before(m.pending[j].due)
		})
		if len(m.pending) == 0 || m.pending[0].due.After(t) {
			if t.After(m.now) {
				m.now = t
			}
			m.mu.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		if next.due.After(m.now) {
			m.now = next.due
		}
		m.mu.Unlock()

		next.fn()
	}
}
