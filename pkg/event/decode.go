package event

import (
	"encoding/json"
	"fmt"
)

// Envelope pairs an event with the channel it should be delivered on. It is
// the line format of recorded event files.
type Envelope struct {
	Channel string          `json:"channel"`
	Event   json.RawMessage `json:"event"`
}

// Decode parses a single wire event. It fails on invalid JSON and unknown
// type tags; identifier checks are left to Validate so callers can decide
// how to report them.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if !e.Type.Known() {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	return e, nil
}

// DecodeLine parses either a bare event or an Envelope. The returned channel
// is empty for bare events.
func DecodeLine(data []byte) (string, Event, error) {
	var probe struct {
		Channel *string         `json:"channel"`
		Event   json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", Event{}, fmt.Errorf("decoding event line: %w", err)
	}

	if probe.Channel != nil && len(probe.Event) > 0 {
		e, err := Decode(probe.Event)
		if err != nil {
			return "", Event{}, err
		}
		return *probe.Channel, e, nil
	}

	e, err := Decode(data)
	return "", e, err
}

// Validate reports a missing required identifier for the event's type.
func Validate(e Event) error {
	switch e.Type {
	case TypeStarted, TypeFinished, TypeStateDelta:
		if e.SpanID == "" {
			return fmt.Errorf("%s event: %w", e.Type, ErrMissingSpanID)
		}
	case TypeCustom:
		if e.Name == "" {
			return ErrMissingName
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	return nil
}
