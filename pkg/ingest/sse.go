package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/spool/pkg/sse"
)

const defaultRetryDelay = 3 * time.Second

// ErrUnexpectedStatus is returned when an SSE endpoint answers with a
// non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status from event stream")

// SSEConfig configures an SSE source.
type SSEConfig struct {
	URL string

	// DefaultChannel receives events with no SSE event type.
	DefaultChannel string

	// Reconnect re-opens the stream after it ends, honoring server retry
	// hints and resuming from the last event id.
	Reconnect  bool
	RetryDelay time.Duration

	Client *http.Client
	Logger *slog.Logger
}

// SSE consumes events from a Server-Sent Events endpoint. The SSE event
// type names the channel and the data field holds the event JSON.
type SSE struct {
	url       string
	reconnect bool
	retry     time.Duration
	client    *http.Client
	dec       decoder
	lastID    string
}

// NewSSE creates an SSE source.
func NewSSE(c *SSEConfig) *SSE {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	retry := c.RetryDelay
	if retry == 0 {
		retry = defaultRetryDelay
	}

	return &SSE{
		url:       c.URL,
		reconnect: c.Reconnect,
		retry:     retry,
		client:    client,
		dec: decoder{
			source:         "sse",
			defaultChannel: c.DefaultChannel,
			logger:         c.Logger,
		},
	}
}

// Run streams events until ctx is done, or until the stream ends when
// reconnecting is disabled.
func (s *SSE) Run(ctx context.Context, pub Publisher) error {
	for {
		err := s.stream(ctx, pub)
		if ctx.Err() != nil {
			return nil
		}
		if !s.reconnect {
			return err
		}
		if err != nil {
			s.dec.logger.Warn("event stream failed, reconnecting",
				"url", s.url,
				"retry", s.retry.String(),
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.retry):
		}
	}
}

// Close is a no-op; the stream is closed when Run returns.
func (s *SSE) Close() error {
	return nil
}

func (s *SSE) stream(ctx context.Context, pub Publisher) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.lastID != "" {
		req.Header.Set("Last-Event-ID", s.lastID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("opening event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	s.dec.logger.Info("event stream opened", "url", s.url)

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			return fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			return nil
		}
		if ev.ID != "" {
			s.lastID = ev.ID
		}
		if ev.Retry > 0 {
			s.retry = ev.Retry
		}
		if ev.Data == "" {
			continue
		}

		hint := ev.Type
		if hint == "message" {
			hint = ""
		}
		ch, e, ok := s.dec.decode([]byte(ev.Data), hint)
		if !ok {
			continue
		}
		if ch == "" {
			return ErrNoChannel
		}
		if err := pub.Publish(ctx, ch, e); err != nil {
			return fmt.Errorf("publishing stream event: %w", err)
		}
	}
}
