// Package ingest provides sources that read recorded or live events from an
// external transport and publish them onto named event channels.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/utils"
)

// maxPayloadPreview bounds how much of an undecodable payload is logged.
const maxPayloadPreview = 120

// ErrNoChannel is returned by a source with no default channel configured.
var ErrNoChannel = errors.New("no default channel configured")

// Publisher accepts events for a named channel. *channel.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, channel string, e event.Event) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, channel string, e event.Event) error

func (f PublisherFunc) Publish(ctx context.Context, channel string, e event.Event) error {
	return f(ctx, channel, e)
}

// Source reads events from a transport until it is exhausted or ctx is done.
type Source interface {
	Run(ctx context.Context, pub Publisher) error
	Close() error
}

// decoder turns raw payloads into channel-addressed events. Payloads that
// cannot be decoded are logged and skipped so one bad record never stops a
// stream.
type decoder struct {
	source         string
	defaultChannel string
	logger         *slog.Logger
}

// decode parses data as a bare event or an envelope. hint names the channel
// the transport itself suggested, and wins over the default but not over an
// explicit envelope channel.
func (d decoder) decode(data []byte, hint string) (string, event.Event, bool) {
	ch, e, err := event.DecodeLine(data)
	if err != nil {
		d.logger.Warn("skipping undecodable event",
			"source", d.source,
			"payload", utils.Truncate(string(data), maxPayloadPreview),
			"error", err,
		)
		return "", event.Event{}, false
	}

	switch {
	case ch != "":
	case hint != "":
		ch = hint
	default:
		ch = d.defaultChannel
	}
	return ch, e, true
}
