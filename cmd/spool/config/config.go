// Package configcmder provides the config command for managing persistent
// spool configuration stored in the .spool/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent spool configuration.

Configuration is stored as config.toml in the .spool/ directory and provides
default values for command flags. CLI flags and SPOOL_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  channels.conversation, channels.trace, channels.debug,
  bus.queue_size,
  debug.strict, debug.buffer_warn_threshold,
  kafka.brokers, kafka.topic, kafka.group_id,
  sse.url

Breakpoint conditions are edited directly in config.toml:
  [[debug.breakpoints]]
  channel = "trace"
  operation = "model_call"

Use subcommands to get, set, or list configuration values:
  spool config set <key> <value>    Set a configuration value
  spool config get <key>            Get a configuration value
  spool config list                 List all configuration values

Examples:
  spool config set kafka.brokers broker-1:9092,broker-2:9092
  spool config set debug.strict true
  spool config get api.listen
  spool config list`

const configShortDesc string = "Manage persistent spool configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
