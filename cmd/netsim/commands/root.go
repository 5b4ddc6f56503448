// Package commands implements the netsim CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configPath is the shared --config flag value for commands that load a
// descriptor.
var configPath string

// rootCmd is the top-level cobra command for netsim.
var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "Discrete-event packet-network simulator",
	Long:  "netsim drives a single-threaded discrete-event loop over a descriptor of hosts, routers, links, and flows, with Reno and FAST TCP congestion control and distance-vector routing.",

	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the network descriptor (JSON)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
