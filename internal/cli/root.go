package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/vertexflow/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vertexflow",
		Short:         "vertexflow edits dataflow graphs",
		Long:          `vertexflow edits vertex/edge dataflow graphs whose vertices run code on a backend. It lays graphs out, renders snapshots and offers a mouse-driven terminal canvas.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/vertexflow/config.toml)")
	root.PersistentFlags().StringVar(&c.backendURL, "backend", "", "backend URL (overrides config)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.saveCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.formatCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.vertexCommand())
	root.AddCommand(c.edgeCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.completionCommand())

	return root
}
