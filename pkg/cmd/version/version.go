package version

import (
	"fmt"

	"github.com/spf13/cobra"

	appversion "github.com/mpapenbr/f1-telemetry-lab/version"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "prints the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ftl %s\n", appversion.FullVersion)
		},
	}
}
