package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --strict
// on both "spool serve" and "spool replay").
type Flag struct {
	// Name is the long flag name (e.g. "api-listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen     = "api-listen"
	FlagKafkaBrokers  = "kafka-brokers"
	FlagKafkaTopic    = "kafka-topic"
	FlagKafkaGroupID  = "kafka-group-id"
	FlagSSEURL        = "sse-url"
	FlagQueueSize     = "queue-size"
	FlagStrict        = "strict"
	FlagWarnThreshold = "buffer-warn-threshold"
	FlagDebugChannel  = "channel"
	FlagTraceChannel  = "trace-channel"
	FlagConvChannel   = "conversation-channel"
)

// Flags is the shared registry used by spool commands.
var Flags = FlagSet{
	FlagAPIListen:     {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagKafkaBrokers:  {Name: "kafka-brokers", ViperKey: "kafka.brokers", Description: "Comma separated Kafka brokers to ingest events from"},
	FlagKafkaTopic:    {Name: "kafka-topic", ViperKey: "kafka.topic", Description: "Kafka topic carrying events"},
	FlagKafkaGroupID:  {Name: "kafka-group-id", ViperKey: "kafka.group_id", Description: "Kafka consumer group"},
	FlagSSEURL:        {Name: "sse-url", ViperKey: "sse.url", Description: "Server-Sent Events endpoint to ingest events from"},
	FlagQueueSize:     {Name: "queue-size", ViperKey: "bus.queue_size", Description: "Per-channel event queue capacity"},
	FlagStrict:        {Name: "strict", ViperKey: "debug.strict", Description: "Panic when breakpoint and gate state disagree"},
	FlagWarnThreshold: {Name: "buffer-warn-threshold", ViperKey: "debug.buffer_warn_threshold", Description: "Warn each time a paused channel buffers this many more events"},
	FlagDebugChannel:  {Name: "channel", Shorthand: "c", ViperKey: "channels.debug", Description: "Channel for recorded events without an explicit channel"},
	FlagTraceChannel:  {Name: "trace-channel", ViperKey: "channels.trace", Description: "Channel carrying span events"},
	FlagConvChannel:   {Name: "conversation-channel", ViperKey: "channels.conversation", Description: "Channel carrying conversation events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
