package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	appversion "github.com/timothychou/netsim/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print netsim build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(appversion.Full("netsim"))
		},
	}
}
