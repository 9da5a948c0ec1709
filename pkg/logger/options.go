package logger

import (
	"io"
	"log/slog"
)

// Option tunes the logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug, which is where per-event
// reconciliation and dispatch records are logged. False keeps Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty renders records with charmbracelet/log. Commands enable it
// when stderr is a terminal.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON emits one JSON object per record, as written to serve's
// --log-file. It takes precedence over WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter sends records to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters copies every record to each of ws.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) {
		c.writers = ws
	}
}

// WithSource annotates records with the calling file and line.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
