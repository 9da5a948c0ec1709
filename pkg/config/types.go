package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/spool/pkg/breakpoint"
)

// Config represents the persistent spool configuration stored as config.toml
// in the .spool/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	API      APIConfig      `toml:"api"`
	Channels ChannelsConfig `toml:"channels"`
	Bus      BusConfig      `toml:"bus"`
	Debug    DebugConfig    `toml:"debug"`
	Kafka    KafkaConfig    `toml:"kafka"`
	SSE      SSEConfig      `toml:"sse"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ChannelsConfig names the event channels the inspector consumes.
type ChannelsConfig struct {
	// Conversation carries thread events.
	Conversation string `toml:"conversation,omitempty"`

	// Trace carries span events.
	Trace string `toml:"trace,omitempty"`

	// Debug carries duplicated events for inspection tooling; it is the
	// default channel for replayed recordings.
	Debug string `toml:"debug,omitempty"`
}

// BusConfig holds in-process channel bus settings.
type BusConfig struct {
	QueueSize uint `toml:"queue_size,omitempty"`
}

// DebugConfig holds breakpoint settings.
type DebugConfig struct {
	Strict              bool                   `toml:"strict,omitempty"`
	BufferWarnThreshold uint                   `toml:"buffer_warn_threshold,omitempty"`
	Breakpoints         []breakpoint.Condition `toml:"breakpoints,omitempty"`
}

// KafkaConfig holds Kafka ingest settings. Ingest is disabled without brokers.
type KafkaConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
	GroupID string   `toml:"group_id,omitempty"`
}

// SSEConfig holds SSE ingest settings. Ingest is disabled without a URL.
type SSEConfig struct {
	URL string `toml:"url,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
// Breakpoint conditions are tables and can only be edited in the file.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"channels.conversation": {
		get: func(c *Config) string { return c.Channels.Conversation },
		set: func(c *Config, v string) error { c.Channels.Conversation = v; return nil },
	},
	"channels.trace": {
		get: func(c *Config) string { return c.Channels.Trace },
		set: func(c *Config, v string) error { c.Channels.Trace = v; return nil },
	},
	"channels.debug": {
		get: func(c *Config) string { return c.Channels.Debug },
		set: func(c *Config, v string) error { c.Channels.Debug = v; return nil },
	},
	"bus.queue_size": {
		get: func(c *Config) string { return formatUint(c.Bus.QueueSize) },
		set: func(c *Config, v string) error { return parseUint("bus.queue_size", v, &c.Bus.QueueSize) },
	},
	"debug.strict": {
		get: func(c *Config) string { return strconv.FormatBool(c.Debug.Strict) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for debug.strict: %w", err)
			}
			c.Debug.Strict = b
			return nil
		},
	},
	"debug.buffer_warn_threshold": {
		get: func(c *Config) string { return formatUint(c.Debug.BufferWarnThreshold) },
		set: func(c *Config, v string) error {
			return parseUint("debug.buffer_warn_threshold", v, &c.Debug.BufferWarnThreshold)
		},
	},
	"kafka.brokers": {
		get: func(c *Config) string { return strings.Join(c.Kafka.Brokers, ",") },
		set: func(c *Config, v string) error { c.Kafka.Brokers = SplitList(v); return nil },
	},
	"kafka.topic": {
		get: func(c *Config) string { return c.Kafka.Topic },
		set: func(c *Config, v string) error { c.Kafka.Topic = v; return nil },
	},
	"kafka.group_id": {
		get: func(c *Config) string { return c.Kafka.GroupID },
		set: func(c *Config, v string) error { c.Kafka.GroupID = v; return nil },
	},
	"sse.url": {
		get: func(c *Config) string { return c.SSE.URL },
		set: func(c *Config, v string) error { c.SSE.URL = v; return nil },
	},
}

// SplitList splits a comma or whitespace separated list, dropping empty
// entries.
func SplitList(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func parseUint(key, v string, target *uint) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = uint(n)
	return nil
}
