package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/cli/formatter"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var category, maxDifficulty, skill string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := flags.loadCatalog()
			if err != nil {
				return err
			}

			q := catalog.Query{Category: category, Skill: skill}
			if maxDifficulty != "" {
				d, err := catalog.ParseDifficulty(maxDifficulty)
				if err != nil {
					return err
				}
				q.MaxDifficulty = d
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatScenarioList(cat.Filter(q)))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only scenarios in this category")
	cmd.Flags().StringVar(&maxDifficulty, "max-difficulty", "", "Only scenarios at or below this difficulty")
	cmd.Flags().StringVar(&skill, "skill", "", "Only scenarios exercising this skill")
	return cmd
}
