package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/spool/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SPOOL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SPOOL_API_LISTEN, SPOOL_KAFKA_BROKERS, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("SPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Brokers returns kafka.brokers from v, accepting both a TOML array and a
// comma separated string from the environment or a flag.
func Brokers(v *viper.Viper) []string {
	var brokers []string
	for _, entry := range v.GetStringSlice("kafka.brokers") {
		brokers = append(brokers, SplitList(entry)...)
	}
	return brokers
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("channels.conversation", d.Channels.Conversation)
	v.SetDefault("channels.trace", d.Channels.Trace)
	v.SetDefault("channels.debug", d.Channels.Debug)

	v.SetDefault("bus.queue_size", d.Bus.QueueSize)

	v.SetDefault("debug.strict", d.Debug.Strict)
	v.SetDefault("debug.buffer_warn_threshold", d.Debug.BufferWarnThreshold)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.group_id", d.Kafka.GroupID)

	v.SetDefault("sse.url", d.SSE.URL)
}
