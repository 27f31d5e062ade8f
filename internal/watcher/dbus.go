package watcher

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/godbus/dbus/v5"
	"github.com/oklog/ulid/v2"
)

// D-Bus names used by host collectors to publish events.
const (
	DBusInterface = "org.doomscroll.Events"
	DBusPath      = dbus.ObjectPath("/org/doomscroll/Events")

	signalForeground = DBusInterface + ".ForegroundChanged"
	signalScroll     = DBusInterface + ".ScrollSignal"
)

// DBusWatcher listens on the session bus for doomscroll event signals
type DBusWatcher struct {
	eventSink EventSink
	logger    *slog.Logger
	connect   func() (*dbus.Conn, error)

	conn     *dbus.Conn
	signals  chan *dbus.Signal
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewDBusWatcher creates a watcher on the session bus
func NewDBusWatcher(sink EventSink, logger *slog.Logger) *DBusWatcher {
	return &DBusWatcher{
		eventSink: sink,
		logger:    logger,
		connect:   func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() },
		stopChan:  make(chan struct{}),
	}
}

func (w *DBusWatcher) Name() string { return "dbus" }

// Start subscribes to the event interface
func (w *DBusWatcher) Start() error {
	conn, err := w.connect()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if err := conn.AddMatchSignal(dbus.WithMatchInterface(DBusInterface)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to add signal match: %w", err)
	}

	w.conn = conn
	w.signals = make(chan *dbus.Signal, 64)
	conn.Signal(w.signals)

	go w.watch()
	w.logger.Info("dbus watcher started", "interface", DBusInterface)
	return nil
}

// Stop stops the watcher
func (w *DBusWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.conn != nil {
			w.conn.RemoveSignal(w.signals)
			w.conn.Close()
		}
	})
}

func (w *DBusWatcher) watch() {
	for {
		select {
		case <-w.stopChan:
			return
		case sig, ok := <-w.signals:
			if !ok {
				return
			}
			e, ok := eventFromSignal(sig)
			if !ok {
				continue
			}
			e.Timestamp = time.Now()
			send(w.eventSink, e, w.logger, w.Name())
		}
	}
}

// eventFromSignal maps a signal to an event. Signals from other interfaces
// or with an unexpected body are rejected.
func eventFromSignal(sig *dbus.Signal) (models.Event, bool) {
	if sig == nil {
		return models.Event{}, false
	}

	var kind models.EventKind
	switch sig.Name {
	case signalForeground:
		kind = models.EventForegroundChanged
	case signalScroll:
		kind = models.EventScrollSignal
	default:
		return models.Event{}, false
	}

	if len(sig.Body) < 1 {
		return models.Event{}, false
	}
	appID, ok := sig.Body[0].(string)
	if !ok {
		return models.Event{}, false
	}

	return models.Event{
		ID:    ulid.Make().String(),
		Kind:  kind,
		AppID: appID,
	}, true
}

// signalName returns the D-Bus member for kind.
func signalName(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventForegroundChanged:
		return signalForeground, nil
	case models.EventScrollSignal:
		return signalScroll, nil
	default:
		return "", fmt.Errorf("no signal for event kind %q", kind)
	}
}

// EmitSignal publishes e on the session bus as a collector would.
func EmitSignal(e models.Event) error {
	name, err := signalName(e.Kind)
	if err != nil {
		return err
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	if err := conn.Emit(DBusPath, name, e.AppID); err != nil {
		return fmt.Errorf("failed to emit signal: %w", err)
	}
	return nil
}
