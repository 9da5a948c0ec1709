package breakpoint

import (
	"log/slog"
	"time"
)

type options struct {
	strict bool
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithStrict makes registry/gate disagreements panic instead of logging.
// Enable it in development builds and tests.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp breakpoint hits.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
