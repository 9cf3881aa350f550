package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/cli/formatter"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check scenario files for errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				d, err := catalog.ParseFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s\n", formatter.StyleRed.Render("FAIL"), err)
					continue
				}
				fmt.Fprintf(out, "%s %s (%s, %d nodes)\n", formatter.StyleGreen.Render("ok  "), path, d.ID, d.Graph.Len())
				for _, w := range simulation.Lint(d.Graph) {
					fmt.Fprintf(out, "     %s %s\n", formatter.StyleYellow.Render("warning:"), w)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenario files invalid", failed, len(args))
			}
			return nil
		},
	}
}
