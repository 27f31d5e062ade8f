// Package agent runs the doomscroll daemon: event sources in, readings out.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doomscroll/doomscroll/internal/config"
	"github.com/doomscroll/doomscroll/internal/presence"
	"github.com/doomscroll/doomscroll/internal/scroll"
	"github.com/doomscroll/doomscroll/internal/store"
	"github.com/doomscroll/doomscroll/internal/watcher"
	"github.com/doomscroll/doomscroll/internal/ws"
	"github.com/doomscroll/doomscroll/pkg/models"
)

// Config holds agent configuration
type Config struct {
	Tracker scroll.Options

	// SpoolPath enables the spool watcher when set.
	SpoolPath string
	DBus      bool
	// JournalPath enables the SQLite journal when set.
	JournalPath string
	// ServerAddr enables the websocket/HTTP server when set.
	ServerAddr string
	AuthToken  string

	QueueSize     int
	ReadingBuffer int

	// Presence defaults to the host process table.
	Presence *presence.Checker
}

// DefaultConfig returns the default agent configuration
func DefaultConfig() *Config {
	return &Config{
		Tracker: scroll.Options{
			AppID:     config.DefaultAppID,
			Cooldown:  scroll.DefaultCooldown,
			UnitScale: scroll.DefaultUnitScale,
		},
		QueueSize:     1024,
		ReadingBuffer: 256,
	}
}

// FromConfig maps the file configuration onto agent settings
func FromConfig(c *config.Config) *Config {
	cfg := DefaultConfig()
	cfg.Tracker = c.TrackerOptions()
	if c.Sources.Spool.Enabled {
		cfg.SpoolPath = c.Sources.Spool.Path
	}
	cfg.DBus = c.Sources.DBus.Enabled
	if c.Journal.Enabled {
		cfg.JournalPath = c.Journal.Path
	}
	if c.Server.Enabled {
		cfg.ServerAddr = c.ServerAddr()
		cfg.AuthToken = c.Server.AuthToken
	}
	return cfg
}

// Stats counts tracked-app events since start
type Stats struct {
	Received        uint64 `json:"received"`
	Accepted        uint64 `json:"accepted"`
	Suppressed      uint64 `json:"suppressed"`
	// Ignored counts tracked-app events of unknown kind.
	Ignored         uint64 `json:"ignored"`
	Foreground      uint64 `json:"foreground"`
	DroppedReadings uint64 `json:"droppedReadings"`
}

// Agent is the doomscroll background service
type Agent struct {
	config   *Config
	logger   *slog.Logger
	tracker  *scroll.Tracker
	handle   scroll.Handle
	store    *store.Store
	session  *models.Session
	hub      *ws.Hub
	presence *presence.Checker

	eventQueue chan models.Event
	readings   chan models.Reading
	watchers   []watcher.Watcher

	received, accepted, suppressed, ignored, foreground, dropped atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	stop   sync.Once
}

// New creates a new agent instance
func New(cfg *Config, logger *slog.Logger) (*Agent, error) {
	tracker, err := scroll.New(cfg.Tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	var s *store.Store
	if cfg.JournalPath != "" {
		s, err = store.New(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	readingBuffer := cfg.ReadingBuffer
	if readingBuffer <= 0 {
		readingBuffer = 256
	}
	checker := cfg.Presence
	if checker == nil {
		checker = presence.NewChecker()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Agent{
		config:     cfg,
		logger:     logger,
		tracker:    tracker,
		store:      s,
		hub:        ws.NewHub(tracker.Reading(), logger),
		presence:   checker,
		eventQueue: make(chan models.Event, queueSize),
		readings:   make(chan models.Reading, readingBuffer),
		ctx:        ctx,
		cancel:     cancel,
	}
	a.handle = tracker.Subscribe(scroll.SubscriberFunc(a.enqueueReading))

	return a, nil
}

// Tracker returns the scroll tracker owned by the agent
func (a *Agent) Tracker() *scroll.Tracker {
	return a.tracker
}

// Hub returns the reading hub
func (a *Agent) Hub() *ws.Hub {
	return a.hub
}

// Sink returns the channel event sources deliver into
func (a *Agent) Sink() watcher.EventSink {
	return a.eventQueue
}

// Session returns the journal session for this run, if journaling
func (a *Agent) Session() *models.Session {
	return a.session
}

// Stats returns a snapshot of the agent counters
func (a *Agent) Stats() Stats {
	return Stats{
		Received:        a.received.Load(),
		Accepted:        a.accepted.Load(),
		Suppressed:      a.suppressed.Load(),
		Ignored:         a.ignored.Load(),
		Foreground:      a.foreground.Load(),
		DroppedReadings: a.dropped.Load(),
	}
}

// Start begins the agent's background processing
func (a *Agent) Start() error {
	appID := a.tracker.AppID()
	a.logger.Info("starting doomscroll agent", "app", appID)

	if a.store != nil {
		sess, err := a.store.StartSession(appID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to start journal session: %w", err)
		}
		a.session = sess
		a.logger.Info("journal session started", "session", sess.ID)
	}

	a.wg.Add(2)
	go a.processEvents()
	go a.publishReadings()

	a.startWatchers()
	a.startServer()
	a.logPresence(appID)

	a.logger.Info("doomscroll agent started", "watchers", len(a.watchers))
	return nil
}

// Stop gracefully shuts down the agent
func (a *Agent) Stop() {
	a.stop.Do(func() {
		a.logger.Info("stopping doomscroll agent")

		for _, w := range a.watchers {
			w.Stop()
		}

		a.cancel()
		a.wg.Wait()

		a.tracker.Unsubscribe(a.handle)
		a.hub.Close()

		if a.store != nil {
			if a.session != nil {
				if err := a.store.EndSession(a.session.ID, time.Now()); err != nil {
					a.logger.Warn("failed to end journal session", "error", err)
				}
			}
			a.store.Close()
		}

		a.logger.Info("doomscroll agent stopped", "count", a.tracker.Count())
	})
}

// Wait blocks until ctx is done and then stops the agent
func (a *Agent) Wait(ctx context.Context) {
	<-ctx.Done()
	a.Stop()
}

// startWatchers starts every configured event source. A source that fails
// to start is logged and skipped.
func (a *Agent) startWatchers() {
	var candidates []watcher.Watcher
	if a.config.SpoolPath != "" {
		candidates = append(candidates, watcher.NewSpoolWatcher(a.config.SpoolPath, a.eventQueue, a.logger))
	}
	if a.config.DBus {
		candidates = append(candidates, watcher.NewDBusWatcher(a.eventQueue, a.logger))
	}

	for _, w := range candidates {
		if err := w.Start(); err != nil {
			a.logger.Warn("watcher failed to start", "watcher", w.Name(), "error", err)
			continue
		}
		a.watchers = append(a.watchers, w)
	}
}

func (a *Agent) startServer() {
	if a.config.ServerAddr == "" {
		return
	}
	srv := ws.NewServer(a.hub, a.tracker.AppID(), a.tracker.Landmarks(), a.config.AuthToken, a.logger)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := ws.ListenAndServe(a.ctx, a.config.ServerAddr, srv.Handler(), a.logger); err != nil {
			a.logger.Error("reading server failed", "error", err)
		}
	}()
}

func (a *Agent) logPresence(appID string) {
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
	defer cancel()

	p, err := a.presence.Find(ctx, appID)
	switch {
	case err != nil:
		a.logger.Debug("presence check failed", "error", err)
	case p == nil:
		a.logger.Info("tracked app is not running", "app", appID)
	default:
		a.logger.Info("tracked app is running", "app", appID, "pid", p.PID)
	}
}

// processEvents delivers queued events to the tracker one at a time
func (a *Agent) processEvents() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case event := <-a.eventQueue:
			a.handleEvent(event)
		}
	}
}

// handleEvent delivers e to the tracker. Events for other apps leave no
// trace, not even in Stats.
func (a *Agent) handleEvent(e models.Event) scroll.Action {
	action := a.tracker.Deliver(e)
	if e.AppID == "" || e.AppID != a.tracker.AppID() {
		return action
	}
	defer a.received.Add(1)

	switch action {
	case scroll.NotifyForeground:
		a.foreground.Add(1)
		a.logger.Info("tracked app in foreground", "app", e.AppID)
		if a.store != nil && a.session != nil {
			if err := a.store.RecordForeground(a.session.ID); err != nil {
				a.logger.Warn("failed to journal foreground change", "error", err)
			}
		}
	case scroll.AcceptScroll:
		a.accepted.Add(1)
	case scroll.SuppressScroll:
		a.suppressed.Add(1)
		a.logger.Debug("scroll suppressed during cooldown", "app", e.AppID)
	default:
		a.ignored.Add(1)
	}
	return action
}

// enqueueReading runs under the tracker lock and must not block.
func (a *Agent) enqueueReading(r models.Reading) {
	select {
	case a.readings <- r:
	default:
		a.dropped.Add(1)
		a.logger.Warn("reading queue full, dropping reading", "count", r.Count)
	}
}

// publishReadings journals each reading and fans it out to clients
func (a *Agent) publishReadings() {
	defer a.wg.Done()

	lastBucket := -1
	for {
		select {
		case <-a.ctx.Done():
			for {
				select {
				case r := <-a.readings:
					a.publish(r, &lastBucket)
				default:
					return
				}
			}
		case r := <-a.readings:
			a.publish(r, &lastBucket)
		}
	}
}

func (a *Agent) publish(r models.Reading, lastBucket *int) {
	a.logger.Debug("scroll accepted", "count", r.Count, "feet", r.Feet, "landmark", r.Landmark)
	if r.Bucket != *lastBucket {
		a.logger.Info("landmark reached", "label", r.Landmark, "feet", r.Feet)
		*lastBucket = r.Bucket
	}

	if a.store != nil && a.session != nil {
		if err := a.store.RecordReading(a.session.ID, r); err != nil {
			a.logger.Warn("failed to journal reading", "count", r.Count, "error", err)
		}
	}
	a.hub.Publish(r)
}
