package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/DecisionSim/internal/cli/formatter"
)

func newShowCmd(flags *globalFlags) *cobra.Command {
	var graph bool

	cmd := &cobra.Command{
		Use:   "show <scenario-id>",
		Short: "Show a scenario's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := flags.loadCatalog()
			if err != nil {
				return err
			}
			d, err := cat.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if graph {
				b, err := yaml.Marshal(d.Graph.Document())
				if err != nil {
					return fmt.Errorf("failed to encode graph: %w", err)
				}
				_, err = out.Write(b)
				return err
			}
			fmt.Fprint(out, formatter.FormatScenario(d))
			return nil
		},
	}

	cmd.Flags().BoolVar(&graph, "graph", false, "Print the decision graph as YAML")
	return cmd
}
