package scroll

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManualTracker(t *testing.T) (*Tracker, *ManualScheduler, *recorder) {
	t.Helper()
	sched := NewManualScheduler(epoch)
	tr, err := New(Options{
		AppID:     testApp,
		Cooldown:  DefaultCooldown,
		UnitScale: DefaultUnitScale,
		Scheduler: sched,
		Clock:     sched.Now,
	})
	require.NoError(t, err)
	rec := &recorder{}
	tr.Subscribe(rec)
	return tr, sched, rec
}

func TestNew_Validation(t *testing.T) {
	valid := Options{AppID: testApp, Cooldown: DefaultCooldown, UnitScale: DefaultUnitScale}

	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"no app", func(o *Options) { o.AppID = "" }, ErrNoAppID},
		{"zero cooldown", func(o *Options) { o.Cooldown = 0 }, ErrBadCooldown},
		{"negative cooldown", func(o *Options) { o.Cooldown = -time.Second }, ErrBadCooldown},
		{"zero scale", func(o *Options) { o.UnitScale = 0 }, ErrBadUnitScale},
		{"bad landmarks", func(o *Options) { o.Landmarks = Table{} }, ErrBadLandmarks},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid
			tc.mutate(&opts)
			_, err := New(opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	tr, err := New(valid)
	require.NoError(t, err)
	assert.Equal(t, DefaultLandmarks, tr.Landmarks())
	assert.Zero(t, tr.Count())
}

func TestNew_CopiesLandmarks(t *testing.T) {
	table := Table{{Name: "a", Height: 1}, {Name: "b", Height: 2}}
	tr, err := New(Options{AppID: testApp, Cooldown: time.Second, UnitScale: 1, Landmarks: table})
	require.NoError(t, err)

	table[0].Name = "mutated"
	assert.Equal(t, "a", tr.Landmarks()[0].Name)
}

func TestTracker_BurstCountsOnce(t *testing.T) {
	tr, sched, rec := newManualTracker(t)

	for i := 0; i < 3; i++ {
		tr.Handle(models.EventScrollSignal, testApp)
		sched.Advance(40 * time.Millisecond)
	}

	assert.Equal(t, uint64(1), tr.Count())
	assert.Equal(t, []uint64{1}, rec.counts())
}

func TestTracker_OtherAppLeavesNoTrace(t *testing.T) {
	tr, sched, rec := newManualTracker(t)

	kinds := []models.EventKind{models.EventScrollSignal, models.EventForegroundChanged, models.EventUnknown}
	for _, app := range []string{"app.other", ""} {
		for _, kind := range kinds {
			assert.Equal(t, Ignore, tr.Handle(kind, app), "kind %s app %q", kind, app)
		}
	}
	assert.Zero(t, tr.Count())
	assert.False(t, tr.Debouncing())
	assert.Empty(t, rec.counts())
	assert.Zero(t, sched.Pending())

	require.Equal(t, AcceptScroll, tr.Handle(models.EventScrollSignal, testApp))
	assert.Equal(t, Ignore, tr.Handle(models.EventScrollSignal, "app.other"))
	assert.Equal(t, Ignore, tr.Handle(models.EventScrollSignal, ""))
	assert.Equal(t, 1, sched.Pending())
	assert.Equal(t, []uint64{1}, rec.counts())
}

func TestTracker_AcceptsAgainAfterCooldown(t *testing.T) {
	tr, sched, rec := newManualTracker(t)

	assert.Equal(t, AcceptScroll, tr.Handle(models.EventScrollSignal, testApp))
	sched.Advance(700 * time.Millisecond)
	assert.Equal(t, AcceptScroll, tr.Handle(models.EventScrollSignal, testApp))

	assert.Equal(t, uint64(2), tr.Count())
	assert.Equal(t, []uint64{1, 2}, rec.counts())
}

func TestTracker_AcceptsAgainAfterCooldownRealTime(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cooldown")
	}
	tr, err := New(Options{AppID: testApp, Cooldown: DefaultCooldown, UnitScale: DefaultUnitScale})
	require.NoError(t, err)
	rec := &recorder{}
	tr.Subscribe(rec)

	tr.Handle(models.EventScrollSignal, testApp)
	time.Sleep(700 * time.Millisecond)
	tr.Handle(models.EventScrollSignal, testApp)

	assert.Equal(t, uint64(2), tr.Count())
	assert.Equal(t, []uint64{1, 2}, rec.counts())
}

func TestTracker_NoSubscriber(t *testing.T) {
	sched := NewManualScheduler(epoch)
	tr, err := New(Options{AppID: testApp, Cooldown: DefaultCooldown, UnitScale: DefaultUnitScale, Scheduler: sched})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Equal(t, AcceptScroll, tr.Handle(models.EventScrollSignal, testApp))
	})
	assert.Equal(t, uint64(1), tr.Count())
}

func TestTracker_UnsubscribeStopsEmission(t *testing.T) {
	sched := NewManualScheduler(epoch)
	tr, err := New(Options{AppID: testApp, Cooldown: DefaultCooldown, UnitScale: DefaultUnitScale, Scheduler: sched})
	require.NoError(t, err)
	rec := &recorder{}
	h := tr.Subscribe(rec)

	tr.Handle(models.EventScrollSignal, testApp)
	require.True(t, tr.Unsubscribe(h))
	sched.Advance(time.Second)
	tr.Handle(models.EventScrollSignal, testApp)

	assert.Equal(t, uint64(2), tr.Count())
	assert.Equal(t, []uint64{1}, rec.counts())
}

func TestTracker_DebounceMatchesElapsedTime(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		tr, sched, _ := newManualTracker(t)
		var lastAccept time.Time
		accepted := uint64(0)

		for i := 0; i < 200; i++ {
			sched.Advance(time.Duration(rng.Intn(900)) * time.Millisecond)
			now := sched.Now()
			want := accepted == 0 || now.Sub(lastAccept) >= DefaultCooldown

			action := tr.Handle(models.EventScrollSignal, testApp)
			if want {
				require.Equal(t, AcceptScroll, action, "round %d step %d", round, i)
				lastAccept = now
				accepted++
			} else {
				require.Equal(t, SuppressScroll, action, "round %d step %d", round, i)
			}
		}
		assert.Equal(t, accepted, tr.Count())
	}
}

func TestTracker_CountsAreConsecutive(t *testing.T) {
	tr, sched, rec := newManualTracker(t)

	for i := 0; i < 50; i++ {
		tr.Handle(models.EventScrollSignal, testApp)
		tr.Handle(models.EventForegroundChanged, testApp)
		tr.Handle(models.EventScrollSignal, "app.other")
		sched.Advance(DefaultCooldown)
	}

	counts := rec.counts()
	require.Len(t, counts, 50)
	for i, c := range counts {
		assert.Equal(t, uint64(i+1), c)
	}
}

func TestTracker_ExactBoundaryGoesToNextBucket(t *testing.T) {
	table := Table{{Name: "low", Height: 100}, {Name: "mid", Height: 240}, {Name: "top", Height: 500}}
	tr, err := New(Options{AppID: testApp, Cooldown: time.Second, UnitScale: 10, Landmarks: table})
	require.NoError(t, err)

	below := tr.Classify(23)
	assert.Equal(t, 230.0, below.Feet)
	assert.Equal(t, 1, below.Bucket)

	exact := tr.Classify(24)
	assert.Equal(t, 240.0, exact.Feet)
	assert.Equal(t, 2, exact.Bucket)
	assert.Equal(t, "between mid (240 ft) and top (500 ft)", exact.Landmark)
}

func TestTracker_DefaultScaleBoundaries(t *testing.T) {
	tr, err := New(Options{AppID: testApp, Cooldown: DefaultCooldown, UnitScale: DefaultUnitScale})
	require.NoError(t, err)

	assert.Equal(t, "less than an Igloo (5 ft)", tr.Classify(0).Landmark)
	assert.Equal(t, "between an Igloo (5 ft) and Qutub Minar (240 ft)", tr.Classify(1).Landmark)
	assert.Equal(t, tr.Classify(0).Landmark, tr.Reading().Landmark)
}

func TestTracker_ConcurrentBurstAcceptsOnce(t *testing.T) {
	tr, _, rec := newManualTracker(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tr.Handle(models.EventScrollSignal, testApp)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1), tr.Count())
	assert.Equal(t, []uint64{1}, rec.counts())
	assert.True(t, tr.Debouncing())
}

func TestTracker_Deliver(t *testing.T) {
	tr, _, _ := newManualTracker(t)
	assert.Equal(t, AcceptScroll, tr.Deliver(models.Event{Kind: models.EventScrollSignal, AppID: testApp}))
	assert.Equal(t, testApp, tr.AppID())
}
