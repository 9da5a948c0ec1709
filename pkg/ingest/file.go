package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// File replays a JSONL file of events. Each line is either a bare event or
// an envelope of the form {"channel": "...", "event": {...}}.
type File struct {
	path string
	dec  decoder

	// pending holds a trailing line that has not been terminated yet.
	pending []byte
}

// NewFile creates a file source. Bare events are published on
// defaultChannel.
func NewFile(path, defaultChannel string, logger *slog.Logger) *File {
	return &File{
		path: path,
		dec: decoder{
			source:         "file",
			defaultChannel: defaultChannel,
			logger:         logger,
		},
	}
}

// Run publishes every event in the file and returns at end of file.
func (f *File) Run(ctx context.Context, pub Publisher) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("opening event file: %w", err)
	}
	defer file.Close()

	if err := f.publishAvailable(ctx, file, pub); err != nil {
		return err
	}
	return f.flushPending(ctx, pub)
}

// Follow publishes every event in the file and keeps publishing appended
// lines until ctx is done.
func (f *File) Follow(ctx context.Context, pub Publisher) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("opening event file: %w", err)
	}
	defer file.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watching event dir: %w", err)
	}

	if err := f.publishAvailable(ctx, file, pub); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.publishAvailable(ctx, file, pub); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}

// Close is a no-op; files are closed when Run or Follow return.
func (f *File) Close() error {
	return nil
}

// publishAvailable publishes every complete line readable from r.
func (f *File) publishAvailable(ctx context.Context, r io.Reader, pub Publisher) error {
	br := bufio.NewReader(r)
	for {
		chunk, err := br.ReadBytes('\n')
		if len(chunk) > 0 {
			f.pending = append(f.pending, chunk...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading event file: %w", err)
		}

		line := f.pending
		f.pending = nil
		if err := f.publishLine(ctx, line, pub); err != nil {
			return err
		}
	}
}

// flushPending publishes an unterminated final line.
func (f *File) flushPending(ctx context.Context, pub Publisher) error {
	line := f.pending
	f.pending = nil
	return f.publishLine(ctx, line, pub)
}

func (f *File) publishLine(ctx context.Context, line []byte, pub Publisher) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	ch, e, ok := f.dec.decode(line, "")
	if !ok {
		return nil
	}
	if ch == "" {
		return ErrNoChannel
	}
	return pub.Publish(ctx, ch, e)
}
