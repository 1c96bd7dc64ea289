package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/manifestkit/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Global flags:
//   - --dir (-C): project directory, defaults to the working directory
//   - --config: TOML config file (see Config)
//
// The config file is loaded and the logger attached to the command context
// in PersistentPreRunE, so every subcommand sees the effective settings.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "manifestkit reads and writes package manifests",
		Long:         `manifestkit finds the package manifest of a project (package.json, package.json5 or package.yaml), edits its dependencies and rewrites it in the author's own formatting, touching the file only when its content actually changes.`,
		Version:      buildinfo.Current(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.dir, "dir", "C", ".", "project directory")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/manifestkit/config.toml)")

	// Register all subcommands
	root.AddCommand(c.showCommand())
	root.AddCommand(c.whichCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
