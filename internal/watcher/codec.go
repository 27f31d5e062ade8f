package watcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/oklog/ulid/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// eventSchema describes one line of the event spool.
const eventSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["kind", "app"],
  "properties": {
    "id":   {"type": "string"},
    "kind": {"type": "string", "minLength": 1},
    "app":  {"type": ["string", "null"]},
    "ts":   {"type": "string"}
  }
}`

var lineSchema = jsonschema.MustCompileString("doomscroll-event.schema.json", eventSchema)

// maxLineSize bounds a single spool line.
const maxLineSize = 64 * 1024

type wireEvent struct {
	ID    string     `json:"id,omitempty"`
	Kind  string     `json:"kind"`
	AppID *string    `json:"app"`
	TS    *time.Time `json:"ts,omitempty"`
}

// DecodeEvent parses and validates one JSON event line. Unknown kinds decode
// to models.EventUnknown; a null app decodes to an empty AppID. Events
// without an id get a fresh ULID.
func DecodeEvent(line []byte) (models.Event, error) {
	var doc any
	if err := json.Unmarshal(line, &doc); err != nil {
		return models.Event{}, fmt.Errorf("invalid event json: %w", err)
	}
	if err := lineSchema.Validate(doc); err != nil {
		return models.Event{}, fmt.Errorf("event does not match schema: %w", err)
	}

	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return models.Event{}, fmt.Errorf("invalid event fields: %w", err)
	}

	e := models.Event{
		ID:   w.ID,
		Kind: models.ParseEventKind(w.Kind),
	}
	if w.AppID != nil {
		e.AppID = *w.AppID
	}
	if w.TS != nil {
		e.Timestamp = *w.TS
	}
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	return e, nil
}

// EncodeEvent renders e as a single JSON line without the trailing newline.
func EncodeEvent(e models.Event) ([]byte, error) {
	app := e.AppID
	w := wireEvent{
		ID:    e.ID,
		Kind:  string(e.Kind),
		AppID: &app,
	}
	if !e.Timestamp.IsZero() {
		ts := e.Timestamp.UTC()
		w.TS = &ts
	}
	return json.Marshal(w)
}

// ReadEvents decodes every line of r. Blank lines are skipped; lines that
// fail to decode are counted in skipped and otherwise ignored.
func ReadEvents(r io.Reader) (events []models.Event, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		e, derr := DecodeEvent(line)
		if derr != nil {
			skipped++
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return events, skipped, fmt.Errorf("failed to read events: %w", err)
	}
	return events, skipped, nil
}
