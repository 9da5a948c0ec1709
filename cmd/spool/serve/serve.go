// Package servecmder provides the serve command: ingest events into the
// channel bus, reconcile them, and expose the inspection API.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/spool/api"
	"github.com/papercomputeco/spool/api/mcp"
	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/channel"
	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/ingest"
	"github.com/papercomputeco/spool/pkg/inspector"
	"github.com/papercomputeco/spool/pkg/logger"
)

type serveCommander struct {
	configDir string
	debug     bool
	logFile   string
	noMCP     bool

	listen        string
	convChannel   string
	traceChannel  string
	debugChannel  string
	queueSize     uint
	strict        bool
	warnThreshold uint
	kafkaBrokers  []string
	kafkaTopic    string
	kafkaGroupID  string
	sseURL        string
	breakpoints   []breakpoint.Condition

	logger *slog.Logger
}

const serveLongDesc string = `Run the spool inspector.

Events are read from the configured transports (Kafka, Server-Sent Events)
and from POST /v1/channels/<name>/events, published onto the channel bus and
reconciled into spans and threads. The inspection API and its MCP tools are
served on --listen.

Configuration precedence: flags > SPOOL_* environment > config.toml > defaults.
Breakpoint conditions are read from [[debug.breakpoints]] in config.toml.`

const serveShortDesc string = "Run the spool inspector"

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagConvChannel,
	config.FlagTraceChannel,
	config.FlagQueueSize,
	config.FlagStrict,
	config.FlagWarnThreshold,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagKafkaGroupID,
	config.FlagSSEURL,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	// Flag targets only carry registration defaults; resolved values are
	// read back from viper in PreRunE.
	var (
		listen, convChannel, traceChannel string
		kafkaBrokers, kafkaTopic          string
		kafkaGroupID, sseURL              string
		queueSize, warnThreshold          uint
		strict                            bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
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
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.resolve(v)

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
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagConvChannel, &convChannel)
	config.AddStringFlag(cmd, config.Flags, config.FlagTraceChannel, &traceChannel)
	config.AddUintFlag(cmd, config.Flags, config.FlagQueueSize, &queueSize)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStrict, &strict)
	config.AddUintFlag(cmd, config.Flags, config.FlagWarnThreshold, &warnThreshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &kafkaTopic)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaGroupID, &kafkaGroupID)
	config.AddStringFlag(cmd, config.Flags, config.FlagSSEURL, &sseURL)

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Serve an MCP endpoint without tools")

	return cmd
}

func (c *serveCommander) resolve(v *viper.Viper) {
	c.listen = v.GetString("api.listen")
	c.convChannel = v.GetString("channels.conversation")
	c.traceChannel = v.GetString("channels.trace")
	c.debugChannel = v.GetString("channels.debug")
	c.queueSize = v.GetUint("bus.queue_size")
	c.strict = v.GetBool("debug.strict")
	c.warnThreshold = v.GetUint("debug.buffer_warn_threshold")
	c.kafkaBrokers = config.Brokers(v)
	c.kafkaTopic = v.GetString("kafka.topic")
	c.kafkaGroupID = v.GetString("kafka.group_id")
	c.sseURL = v.GetString("sse.url")
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	bus := channel.NewBus(&channel.Config{
		QueueSize: c.queueSize,
		Logger:    c.logger,
	})
	defer bus.Close()

	in, ingress, err := c.newInspector(bus)
	if err != nil {
		return err
	}

	sources, err := c.newSources()
	if err != nil {
		return err
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Inspector: in,
		Noop:      c.noMCP,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: c.listen,
		Publisher:  ingress,
		MCP:        mcpServer.Handler(),
	}, in, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel to capture errors from goroutines
	errChan := make(chan error, len(sources)+1)

	for _, src := range sources {
		go func() {
			if err := src.Run(ctx, ingress); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("ingest error: %w", err)
			}
		}()
	}

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	c.logger.Info("spool inspector running",
		"listen", c.listen,
		"conversation_channel", c.convChannel,
		"trace_channel", c.traceChannel,
		"debug_channel", c.debugChannel,
		"sources", len(sources),
		"breakpoint_conditions", len(c.breakpoints),
	)

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	for _, src := range sources {
		if err := src.Close(); err != nil {
			c.logger.Warn("failed to close source", "error", err)
		}
	}
	if err := apiServer.Shutdown(); err != nil {
		c.logger.Warn("failed to shut down API server", "error", err)
	}
	return runErr
}

// newInspector attaches an inspector to the bus and returns the publisher
// every ingress path must use. The conversation channel feeds threads and
// the trace channel feeds spans. The debug channel mirrors both, so it only
// feeds spans, where re-applying an event is idempotent; in the thread store
// its cost events would be counted twice. Any other channel is attached to every sink
// on its first event.
func (c *serveCommander) newInspector(bus *channel.Bus) (*inspector.Inspector, *inspector.Ingress, error) {
	in := inspector.New(&inspector.Config{
		Strict:              c.strict,
		BufferWarnThreshold: int(c.warnThreshold),
		Breakpoints:         c.breakpoints,
		Logger:              c.logger,
	})
	if err := in.Attach(bus, c.convChannel, inspector.SinkThreads); err != nil {
		return nil, nil, fmt.Errorf("attaching conversation channel: %w", err)
	}
	if err := in.Attach(bus, c.traceChannel, inspector.SinkSpans); err != nil {
		return nil, nil, fmt.Errorf("attaching trace channel: %w", err)
	}
	if c.debugChannel != "" {
		in.Route(c.debugChannel, inspector.SinkSpans)
	}
	return in, in.Ingress(bus), nil
}

// newSources builds the configured ingest transports. Events without an
// explicit channel land on the trace channel.
func (c *serveCommander) newSources() ([]ingest.Source, error) {
	var sources []ingest.Source

	if len(c.kafkaBrokers) > 0 {
		k, err := ingest.NewKafka(&ingest.KafkaConfig{
			Brokers:        c.kafkaBrokers,
			Topic:          c.kafkaTopic,
			GroupID:        c.kafkaGroupID,
			DefaultChannel: c.traceChannel,
			Logger:         c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka source: %w", err)
		}
		c.logger.Info("ingesting from kafka",
			"brokers", c.kafkaBrokers,
			"topic", c.kafkaTopic,
			"group_id", c.kafkaGroupID,
		)
		sources = append(sources, k)
	}

	if c.sseURL != "" {
		sources = append(sources, ingest.NewSSE(&ingest.SSEConfig{
			URL:            c.sseURL,
			DefaultChannel: c.traceChannel,
			Reconnect:      true,
			Logger:         c.logger,
		}))
		c.logger.Info("ingesting from sse", "url", c.sseURL)
	}

	return sources, nil
}

// setupLogger builds the console logger and, with --log-file, tees records
// into a JSON log file.
func (c *serveCommander) setupLogger() (func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(logger.IsTerminal()),
	)
	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	c.logger = logger.Multi(console, logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	))
	return func() { _ = f.Close() }, nil
}
