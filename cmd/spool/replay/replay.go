// Package replaycmder provides the replay command, which rebuilds spans and
// threads from a recorded JSONL event file.
package replaycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/ingest"
	"github.com/papercomputeco/spool/pkg/inspector"
	"github.com/papercomputeco/spool/pkg/logger"
)

type replayCommander struct {
	configDir string
	debug     bool
	follow    bool
	resume    bool
	plain     bool

	debugChannel  string
	convChannel   string
	traceChannel  string
	strict        bool
	warnThreshold uint
	breakpoints   []breakpoint.Condition

	// progress receives a spinner step while a file is replayed. Nil for
	// plain output and follow mode.
	progress io.Writer

	logger *slog.Logger
}

const replayLongDesc string = `Rebuild spans and threads from a recorded event file.

Each line of the file is either a bare event or an envelope:
  {"channel": "trace", "event": {"type": "Started", "span_id": "a", ...}}

Bare events are replayed on the debug channel (--channel). Events are applied
synchronously in file order; configured breakpoint conditions pause their
channel and the remaining events stay buffered unless --continue is given.

With --follow the file is tailed until interrupted, then the result is printed.`

const replayShortDesc string = "Rebuild spans and threads from an event file"

var replayFlags = []string{
	config.FlagDebugChannel,
	config.FlagConvChannel,
	config.FlagTraceChannel,
	config.FlagStrict,
	config.FlagWarnThreshold,
}

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	var (
		debugChannel, convChannel, traceChannel string
		strict                                  bool
		warnThreshold                           uint
	)

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, replayFlags)

			cmder.debugChannel = v.GetString("channels.debug")
			cmder.convChannel = v.GetString("channels.conversation")
			cmder.traceChannel = v.GetString("channels.trace")
			cmder.strict = v.GetBool("debug.strict")
			cmder.warnThreshold = v.GetUint("debug.buffer_warn_threshold")

			cfger, err := config.NewConfiger(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.breakpoints = cfg.Debug.Breakpoints
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.logger = logger.New(
				logger.WithDebug(cmder.debug),
				logger.WithPretty(logger.IsTerminal()),
				logger.WithWriter(cmd.ErrOrStderr()),
			)
			if !cmder.plain {
				cmder.plain = !logger.IsTerminal()
			}
			if !cmder.plain {
				cmder.progress = cmd.ErrOrStderr()
			}

			ctx := cmd.Context()
			if cmder.follow {
				var stop context.CancelFunc
				ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}
			return cmder.run(ctx, args[0], cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDebugChannel, &debugChannel)
	config.AddStringFlag(cmd, config.Flags, config.FlagConvChannel, &convChannel)
	config.AddStringFlag(cmd, config.Flags, config.FlagTraceChannel, &traceChannel)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStrict, &strict)
	config.AddUintFlag(cmd, config.Flags, config.FlagWarnThreshold, &warnThreshold)

	cmd.Flags().BoolVarP(&cmder.follow, "follow", "f", false, "Keep tailing the file until interrupted")
	cmd.Flags().BoolVar(&cmder.resume, "continue", false, "Continue every breakpoint after the file is replayed")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print without colors")

	return cmd
}

func (c *replayCommander) run(ctx context.Context, path string, out io.Writer) error {
	in := inspector.New(&inspector.Config{
		Strict:              c.strict,
		BufferWarnThreshold: int(c.warnThreshold),
		Breakpoints:         c.breakpoints,
		Logger:              c.logger,
	})
	in.Route(c.convChannel, inspector.SinkThreads)
	in.Route(c.traceChannel, inspector.SinkSpans)

	delivered := 0
	pub := ingest.PublisherFunc(func(_ context.Context, name string, e event.Event) error {
		in.Deliver(name, e)
		delivered++
		return nil
	})

	src := ingest.NewFile(path, c.debugChannel, c.logger)
	defer src.Close()

	var err error
	switch {
	case c.follow:
		err = src.Follow(ctx, pub)
	case c.progress != nil:
		err = cliui.Step(c.progress, "Replaying "+filepath.Base(path), func() error {
			return src.Run(ctx, pub)
		})
	default:
		err = src.Run(ctx, pub)
	}
	if err != nil {
		return err
	}

	if c.resume {
		if _, err := in.ContinueAll(); err != nil {
			return fmt.Errorf("continuing breakpoints: %w", err)
		}
	}

	c.logger.Debug("replay finished", "path", path, "events", delivered)
	c.print(out, in)
	return nil
}

func (c *replayCommander) print(out io.Writer, in *inspector.Inspector) {
	render := func(s string) string {
		if c.plain {
			return cliui.Plain(s)
		}
		return s
	}

	stats := in.SpanStats()
	fmt.Fprintf(out, "\n%s\n\n", render(cliui.KeyStyle.Render(
		fmt.Sprintf("Spans (%d, %d in progress)", stats.Spans, stats.InProgress),
	)))
	fmt.Fprintln(out, render(cliui.RenderHierarchy(in.Hierarchy())))

	if threads := in.Threads(); len(threads) > 0 {
		fmt.Fprintf(out, "\n%s\n\n", render(cliui.KeyStyle.Render(
			fmt.Sprintf("Threads (%d)", len(threads)),
		)))
		fmt.Fprintln(out, render(cliui.RenderThreads(threads)))
	}

	if bps := in.Breakpoints(); len(bps) > 0 {
		fmt.Fprintf(out, "\n%s\n\n", render(cliui.KeyStyle.Render(
			fmt.Sprintf("Breakpoints (%d)", len(bps)),
		)))
		fmt.Fprintln(out, render(cliui.RenderBreakpoints(bps, in.BufferedCounts())))
	}
}
