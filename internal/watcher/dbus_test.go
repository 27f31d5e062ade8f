package watcher

import (
	"testing"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestEventFromSignal(t *testing.T) {
	tests := []struct {
		name string
		sig  *dbus.Signal
		ok   bool
		kind models.EventKind
		app  string
	}{
		{"scroll", &dbus.Signal{Name: signalScroll, Body: []interface{}{"a"}}, true, models.EventScrollSignal, "a"},
		{"foreground", &dbus.Signal{Name: signalForeground, Body: []interface{}{"b"}}, true, models.EventForegroundChanged, "b"},
		{"empty app", &dbus.Signal{Name: signalScroll, Body: []interface{}{""}}, true, models.EventScrollSignal, ""},
		{"other interface", &dbus.Signal{Name: "org.freedesktop.DBus.NameAcquired", Body: []interface{}{"x"}}, false, "", ""},
		{"no body", &dbus.Signal{Name: signalScroll}, false, "", ""},
		{"wrong type", &dbus.Signal{Name: signalScroll, Body: []interface{}{uint32(1)}}, false, "", ""},
		{"nil", nil, false, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := eventFromSignal(tc.sig)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.kind, e.Kind)
				assert.Equal(t, tc.app, e.AppID)
				assert.NotEmpty(t, e.ID)
			}
		})
	}
}

func TestSignalName(t *testing.T) {
	name, err := signalName(models.EventScrollSignal)
	assert.NoError(t, err)
	assert.Equal(t, "org.doomscroll.Events.ScrollSignal", name)

	name, err = signalName(models.EventForegroundChanged)
	assert.NoError(t, err)
	assert.Equal(t, "org.doomscroll.Events.ForegroundChanged", name)

	_, err = signalName(models.EventUnknown)
	assert.Error(t, err)
}
