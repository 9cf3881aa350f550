// Package cli implements the decisionsim command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	contentDir string
	noBuiltin  bool
}

// NewRootCmd creates the top-level "decisionsim" command.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "decisionsim",
		Short:         "Branching decision scenario simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config YAML")
	root.PersistentFlags().StringVar(&flags.contentDir, "content-dir", "", "Directory of additional scenario files")
	root.PersistentFlags().BoolVar(&flags.noBuiltin, "no-builtin", false, "Exclude the builtin scenarios")

	root.AddCommand(
		newServeCmd(flags),
		newListCmd(flags),
		newShowCmd(flags),
		newValidateCmd(),
		newPlayCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies command line overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.contentDir != "" {
		cfg.Content.Dir = f.contentDir
	}
	if f.noBuiltin {
		cfg.Content.IncludeBuiltin = false
	}
	return cfg, nil
}

func (f *globalFlags) loadCatalog() (*catalog.Catalog, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Load(cfg.Content.Dir, cfg.Content.IncludeBuiltin)
}
