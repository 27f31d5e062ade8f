package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/doomscroll/doomscroll/internal/logging"
	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan models.Event) models.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return models.Event{}
	}
}

func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	defer f.Close()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
}

func TestSpoolWatcher_DeliversAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendLines(t, path, `{"kind":"scroll","app":"old"}`)

	sink := make(chan models.Event, 10)
	w := NewSpoolWatcher(path, sink, logging.Discard())
	require.NoError(t, w.Start())
	defer w.Stop()

	appendLines(t, path,
		`{"kind":"scroll","app":"a"}`,
		`broken line`,
		`{"kind":"foreground_changed","app":"b"}`,
	)

	first := receive(t, sink)
	assert.Equal(t, models.EventScrollSignal, first.Kind)
	assert.Equal(t, "a", first.AppID)
	assert.False(t, first.Timestamp.IsZero())

	second := receive(t, sink)
	assert.Equal(t, models.EventForegroundChanged, second.Kind)
	assert.Equal(t, "b", second.AppID)
}

func TestSpoolWatcher_LineInProgressAtStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendLines(t, path, `{"kind":"scroll","app":"old"}`)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"kind":"scr`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sink := make(chan models.Event, 10)
	w := NewSpoolWatcher(path, sink, logging.Discard())
	require.NoError(t, w.Start())
	defer w.Stop()

	appendLines(t, path,
		`oll","app":"a"}`,
		`{"kind":"scroll","app":"b"}`,
	)

	first := receive(t, sink)
	assert.Equal(t, models.EventScrollSignal, first.Kind)
	assert.Equal(t, "a", first.AppID)
	assert.Equal(t, "b", receive(t, sink).AppID)
}

func TestLastLineEnd(t *testing.T) {
	dir := t.TempDir()

	off, err := lastLineEnd(filepath.Join(dir, "missing.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, off)

	tests := []struct {
		name    string
		content string
		want    int64
	}{
		{"empty", "", 0},
		{"complete lines", "ab\ncd\n", 6},
		{"trailing fragment", "ab\ncd", 3},
		{"only a fragment", "abcd", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".jsonl")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))
			off, err := lastLineEnd(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, off)
		})
	}
}

func TestSpoolWatcher_FileCreatedAfterStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool", "events.jsonl")

	sink := make(chan models.Event, 10)
	w := NewSpoolWatcher(path, sink, logging.Discard())
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, AppendEvent(path, models.Event{Kind: models.EventScrollSignal, AppID: "a"}))
	assert.Equal(t, "a", receive(t, sink).AppID)
}

func TestSpoolWatcher_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendLines(t, path,
		`{"kind":"scroll","app":"padding-padding-padding-padding"}`,
		`{"kind":"scroll","app":"padding-padding-padding-padding"}`,
	)

	sink := make(chan models.Event, 10)
	w := NewSpoolWatcher(path, sink, logging.Discard())
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"scroll","app":"x"}`+"\n"), 0644))
	assert.Equal(t, "x", receive(t, sink).AppID)
}

func TestSpoolWatcher_PartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink := make(chan models.Event, 10)
	w := NewSpoolWatcher(path, sink, logging.Discard())
	require.NoError(t, w.Start())
	defer w.Stop()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString(`{"kind":"scroll",`)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	select {
	case e := <-sink:
		t.Fatalf("unexpected event %+v", e)
	default:
	}

	_, err = f.WriteString(`"app":"joined"}` + "\n")
	require.NoError(t, err)
	assert.Equal(t, "joined", receive(t, sink).AppID)
}

func TestSpoolWatcher_FullSinkDrops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink := make(chan models.Event, 1)
	w := NewSpoolWatcher(path, sink, logging.Discard())
	require.NoError(t, w.Start())
	defer w.Stop()

	appendLines(t, path, `{"kind":"scroll","app":"1"}`, `{"kind":"scroll","app":"2"}`, `{"kind":"scroll","app":"3"}`)
	assert.Equal(t, "1", receive(t, sink).AppID)
}

func TestSpoolWatcher_StopIsIdempotent(t *testing.T) {
	w := NewSpoolWatcher(filepath.Join(t.TempDir(), "e.jsonl"), make(chan models.Event), logging.Discard())
	require.NoError(t, w.Start())
	w.Stop()
	w.Stop()
}
