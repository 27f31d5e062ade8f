package watcher

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/fsnotify/fsnotify"
)

// SpoolWatcher tails a JSONL spool file that a host collector appends
// events to. Only lines written after Start are delivered.
type SpoolWatcher struct {
	path      string
	eventSink EventSink
	logger    *slog.Logger
	now       func() time.Time

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu      sync.Mutex
	offset  int64
	partial []byte
}

// NewSpoolWatcher creates a watcher for the spool at path
func NewSpoolWatcher(path string, sink EventSink, logger *slog.Logger) *SpoolWatcher {
	return &SpoolWatcher{
		path:      path,
		eventSink: sink,
		logger:    logger,
		now:       time.Now,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (w *SpoolWatcher) Name() string { return "spool" }

// Start begins tailing the spool. The file does not need to exist yet; its
// directory is created and watched.
func (w *SpoolWatcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	offset, err := lastLineEnd(w.path)
	if err != nil {
		return fmt.Errorf("failed to scan spool: %w", err)
	}
	w.offset = offset

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.watcher = watcher

	go w.watch()
	w.logger.Info("spool watcher started", "path", w.path, "offset", w.offset)
	return nil
}

// Stop stops the watcher and waits for the read loop to exit
func (w *SpoolWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.watcher != nil {
			w.watcher.Close()
			<-w.done
		}
	})
}

func (w *SpoolWatcher) watch() {
	defer close(w.done)
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.reset()
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.readNew()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("spool watcher error", "error", err)
		}
	}
}

// lastLineEnd returns the offset just past the final newline in path, so a
// line still being written when tailing starts is read once it completes.
// A missing file yields 0. A trailing fragment longer than maxLineSize is
// skipped.
func lastLineEnd(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	start := size - maxLineSize
	if start < 0 {
		start = 0
	}
	tail := make([]byte, size-start)
	if _, err := f.ReadAt(tail, start); err != nil && err != io.EOF {
		return 0, err
	}
	if i := bytes.LastIndexByte(tail, '\n'); i >= 0 {
		return start + int64(i) + 1, nil
	}
	if start == 0 {
		return 0, nil
	}
	return size, nil
}

func (w *SpoolWatcher) reset() {
	w.mu.Lock()
	w.offset = 0
	w.partial = nil
	w.mu.Unlock()
}

// readNew delivers every complete line appended since the last read. A file
// that shrank is treated as truncated and read from the start.
func (w *SpoolWatcher) readNew() {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Open(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("failed to open spool", "path", w.path, "error", err)
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.logger.Warn("failed to stat spool", "path", w.path, "error", err)
		return
	}
	if info.Size() < w.offset {
		w.logger.Info("spool truncated, rereading", "path", w.path)
		w.offset = 0
		w.partial = nil
	}

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		w.logger.Warn("failed to seek spool", "error", err)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		w.logger.Warn("failed to read spool", "error", err)
		return
	}
	w.offset += int64(len(data))

	buf := append(w.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		w.handleLine(buf[:i])
		buf = buf[i+1:]
	}
	if len(buf) > maxLineSize {
		w.logger.Warn("dropping oversized spool line", "bytes", len(buf))
		buf = nil
	}
	w.partial = append([]byte(nil), buf...)
}

func (w *SpoolWatcher) handleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	e, err := DecodeEvent(line)
	if err != nil {
		w.logger.Warn("dropping malformed spool line", "error", err)
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = w.now()
	}
	send(w.eventSink, e, w.logger, w.Name())
}

// AppendEvent writes e as one line at the end of the spool at path.
func AppendEvent(path string, e models.Event) error {
	line, err := EncodeEvent(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open spool: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}
