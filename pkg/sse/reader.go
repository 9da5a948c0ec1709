package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

const maxLineSize = 1024 * 1024

// Reader parses SSE events from a byte stream.
type Reader struct {
	scanner *bufio.Scanner

	// current accumulates fields for the event being built.
	current Event
	hasData bool
	lastID  string
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{scanner: scanner}
}

// LastID returns the most recent event id seen, for resuming a stream with
// the Last-Event-ID header.
func (r *Reader) LastID() string {
	return r.lastID
}

// Next blocks until a complete event is available. It returns nil, nil when
// the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if r.hasData {
				return r.flush(), nil
			}
			// keep-alive
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended without a trailing blank line.
	if r.hasData {
		return r.flush(), nil
	}
	return nil, nil
}

// parseLine accumulates a "field:value" line into the current event. A
// single space after the colon is stripped.
func (r *Reader) parseLine(line string) {
	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		// ids containing NUL are ignored
		if !strings.ContainsRune(value, 0) {
			r.current.ID = value
			r.lastID = value
		}
		r.hasData = true
	case "retry":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			r.current.Retry = time.Duration(ms) * time.Millisecond
		}
	}
}

func (r *Reader) flush() *Event {
	ev := r.current
	r.current = Event{}
	r.hasData = false
	return &ev
}
