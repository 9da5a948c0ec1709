package breakpoint

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/spool/pkg/event"
)

// Condition selects events that should stop a channel. Empty fields match
// anything, so the zero Condition breaks on every event.
type Condition struct {
	Channel    string          `toml:"channel,omitempty" json:"channel,omitempty"`
	EventType  event.Type      `toml:"event_type,omitempty" json:"event_type,omitempty"`
	Operation  event.Operation `toml:"operation,omitempty" json:"operation,omitempty"`
	CustomName string          `toml:"custom_name,omitempty" json:"custom_name,omitempty"`
	SpanID     string          `toml:"span_id,omitempty" json:"span_id,omitempty"`
}

// Matches reports whether e delivered on channel satisfies the condition.
func (c Condition) Matches(channel string, e event.Event) bool {
	switch {
	case c.Channel != "" && c.Channel != channel:
		return false
	case c.EventType != "" && c.EventType != e.Type:
		return false
	case c.Operation != "" && c.Operation != e.OperationName:
		return false
	case c.CustomName != "" && (e.Type != event.TypeCustom || c.CustomName != e.Name):
		return false
	case c.SpanID != "" && c.SpanID != e.SpanID:
		return false
	}
	return true
}

// String renders the condition as a breakpoint reason.
func (c Condition) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	add("channel", c.Channel)
	add("type", string(c.EventType))
	add("operation", string(c.Operation))
	add("custom", c.CustomName)
	add("span", c.SpanID)

	if len(parts) == 0 {
		return "step"
	}
	return strings.Join(parts, " ")
}

// Detector checks events against configured conditions before they reach
// the gate, so the matching event is the first one buffered.
type Detector struct {
	registry   *Registry
	conditions []Condition
	logger     *slog.Logger
}

// NewDetector creates a detector that records hits in registry.
func NewDetector(registry *Registry, conditions []Condition, logger *slog.Logger) *Detector {
	return &Detector{
		registry:   registry,
		conditions: conditions,
		logger:     logger,
	}
}

// Inspect hits a breakpoint when e matches a condition. Channels that are
// already paused are not re-triggered.
func (d *Detector) Inspect(channel string, e event.Event) (Breakpoint, bool) {
	if len(d.conditions) == 0 || d.registry.IsPaused(channel) {
		return Breakpoint{}, false
	}

	for _, c := range d.conditions {
		if !c.Matches(channel, e) {
			continue
		}
		bp, err := d.registry.Hit(channel, c.String())
		if err != nil {
			d.logger.Error("could not hit breakpoint", "channel", channel, "error", err)
			return Breakpoint{}, false
		}
		return bp, true
	}
	return Breakpoint{}, false
}

// Conditions returns the configured conditions.
func (d *Detector) Conditions() []Condition {
	return d.conditions
}
