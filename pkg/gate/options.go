package gate

import "log/slog"

type options struct {
	warnThreshold int
	logger        *slog.Logger
}

// Option configures a Gate.
type Option func(*options)

// WithLogger sets the gate's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWarnThreshold logs a warning every time the buffer grows by n events.
// Zero disables the warning.
func WithWarnThreshold(n int) Option {
	return func(o *options) {
		o.warnThreshold = n
	}
}
