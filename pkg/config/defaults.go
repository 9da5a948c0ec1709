package config

const (
	defaultAPIListen = ":8086"

	defaultConversationChannel = "conversation"
	defaultTraceChannel        = "trace"
	defaultDebugChannel        = "debug"

	defaultQueueSize           = 256
	defaultBufferWarnThreshold = 1000

	defaultKafkaTopic   = "spool.events"
	defaultKafkaGroupID = "spool"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Channels: ChannelsConfig{
			Conversation: defaultConversationChannel,
			Trace:        defaultTraceChannel,
			Debug:        defaultDebugChannel,
		},
		Bus: BusConfig{
			QueueSize: defaultQueueSize,
		},
		Debug: DebugConfig{
			BufferWarnThreshold: defaultBufferWarnThreshold,
		},
		Kafka: KafkaConfig{
			Topic:   defaultKafkaTopic,
			GroupID: defaultKafkaGroupID,
		},
	}
}
