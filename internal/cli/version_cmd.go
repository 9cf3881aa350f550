package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/DecisionSim/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "decisionsim %s\n", version.Version)
		},
	}
}
