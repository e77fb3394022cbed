// Package stream decodes the recommendation service's newline-delimited
// JSON stream into discrete events. A line that fails to decode as an
// exercise is logged and dropped; a malformed terminal object aborts the
// stream with ErrMalformedTerminator.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
)

// ErrMalformedTerminator is returned when the stream's terminal object is
// present but invalid, or when the stream ends without one.
var ErrMalformedTerminator = errors.New("malformed stream terminator")

// EventKind discriminates Event.
type EventKind int

const (
	// EventExercise carries one decoded exercise record.
	EventExercise EventKind = iota
	// EventComplete marks a clean end of stream with the producer's total.
	EventComplete
	// EventError marks a failed stream; no further events follow it.
	EventError
)

// Event is one tagged item from the stream. Exactly one of Exercise, Total,
// or Err is meaningful depending on Kind.
type Event struct {
	Kind     EventKind
	Exercise models.ExerciseRecord
	Total    int
	Err      error
}

// terminal is the shape of the stream's closing object. The server sends
// either {"done":true,"total":N} or {"done":true,"error":"..."} as the last
// line.
type terminal struct {
	Done  bool   `json:"done"`
	Total *int   `json:"total"`
	Error string `json:"error"`
}

// Decoder turns raw stream lines into Events. It is single-use and not
// restartable: after the terminal event, Next reports no more items.
type Decoder struct {
	sc      *bufio.Scanner
	log     *slog.Logger
	done    bool
	dropped int
}

// NewDecoder wraps r. Lines up to 1 MiB are accepted; a recommendation
// record is far smaller in practice.
func NewDecoder(r io.Reader, log *slog.Logger) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Decoder{sc: sc, log: log}
}

// Dropped reports how many malformed record lines were skipped.
func (d *Decoder) Dropped() int { return d.dropped }

// Next returns the next event in arrival order. ok is false once the stream
// is exhausted; the event preceding that is always EventComplete or
// EventError.
func (d *Decoder) Next() (Event, bool) {
	if d.done {
		return Event{}, false
	}

	for d.sc.Scan() {
		line := strings.TrimSpace(d.sc.Text())
		if line == "" {
			continue
		}

		var term terminal
		if err := json.Unmarshal([]byte(line), &term); err == nil && term.Done {
			d.done = true
			if term.Error != "" {
				return Event{Kind: EventError, Err: fmt.Errorf("server reported: %s", term.Error)}, true
			}
			if term.Total == nil || *term.Total < 0 {
				return Event{Kind: EventError, Err: ErrMalformedTerminator}, true
			}
			return Event{Kind: EventComplete, Total: *term.Total}, true
		}

		var ex models.ExerciseRecord
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			d.dropped++
			d.log.Warn("dropping undecodable record", "error", err)
			continue
		}
		ex.ID = "" // IDs are assigned at ingestion, never taken from the wire
		if err := ex.Validate(); err != nil {
			d.dropped++
			d.log.Warn("dropping invalid record", "error", err)
			continue
		}
		return Event{Kind: EventExercise, Exercise: ex}, true
	}

	d.done = true
	if err := d.sc.Err(); err != nil {
		return Event{Kind: EventError, Err: fmt.Errorf("reading stream: %w", err)}, true
	}
	// EOF with no terminal object: the stream is not well-formed.
	return Event{Kind: EventError, Err: ErrMalformedTerminator}, true
}
