package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// ChannelHeader is the Kafka message header naming the target channel.
const ChannelHeader = "spool-channel"

var (
	// ErrNoBrokers is returned when a Kafka source has no brokers.
	ErrNoBrokers = errors.New("kafka brokers are required")

	// ErrNoTopic is returned when a Kafka source has no topic.
	ErrNoTopic = errors.New("kafka topic is required")
)

// MessageReader is the subset of *kafka.Reader a Kafka source uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConfig configures a Kafka source.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	// DefaultChannel receives messages without a channel header.
	DefaultChannel string

	Logger *slog.Logger
}

// Kafka consumes events from a Kafka topic.
type Kafka struct {
	reader MessageReader
	dec    decoder
}

// NewKafka creates a source reading c.Topic as consumer group c.GroupID.
func NewKafka(c *KafkaConfig) (*Kafka, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if c.Topic == "" {
		return nil, ErrNoTopic
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.Brokers,
		Topic:   c.Topic,
		GroupID: c.GroupID,
	})
	return NewKafkaFromReader(reader, c.DefaultChannel, c.Logger), nil
}

// NewKafkaFromReader wraps an existing reader.
func NewKafkaFromReader(reader MessageReader, defaultChannel string, logger *slog.Logger) *Kafka {
	return &Kafka{
		reader: reader,
		dec: decoder{
			source:         "kafka",
			defaultChannel: defaultChannel,
			logger:         logger,
		},
	}
}

// Run publishes messages until ctx is done or the reader fails.
func (k *Kafka) Run(ctx context.Context, pub Publisher) error {
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading kafka message: %w", err)
		}

		ch, e, ok := k.dec.decode(msg.Value, header(msg, ChannelHeader))
		if !ok {
			continue
		}
		if ch == "" {
			k.dec.logger.Warn("skipping kafka message without channel",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			continue
		}

		if err := pub.Publish(ctx, ch, e); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("publishing kafka event: %w", err)
		}
	}
}

// Close closes the underlying reader.
func (k *Kafka) Close() error {
	return k.reader.Close()
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
