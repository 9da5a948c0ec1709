// Package spoolcmder
package spoolcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/spool/cmd/spool/config"
	replaycmder "github.com/papercomputeco/spool/cmd/spool/replay"
	servecmder "github.com/papercomputeco/spool/cmd/spool/serve"
	versioncmder "github.com/papercomputeco/spool/cmd/version"
	"github.com/papercomputeco/spool/pkg/utils"
)

const spoolLongDesc string = `Spool reconciles live LLM call-graph events into span trees and
conversation threads, and lets you step through them with breakpoints.

  spool serve              Ingest events and serve the inspection API
  spool replay <file>      Rebuild spans and threads from a recorded event file
  spool config             Manage persistent configuration`

const spoolShortDesc string = "Spool - LLM call-graph inspector"

func NewSpoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spool",
		Short:         spoolShortDesc,
		Long:          spoolLongDesc,
		Version:       utils.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .spool/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
