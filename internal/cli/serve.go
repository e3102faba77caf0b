package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/vertexflow/internal/devserver"
	vfio "github.com/matzehuels/vertexflow/pkg/io"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		seedFile string
		simulate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory development backend",
		Long: `Run an in-memory graph backend speaking the REST and WebSocket contract.

Vertex code is not executed. With simulation on, every tick reports a
message rate per vertex and a log line to subscribed clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.DevServer.Addr
			}
			if !cmd.Flags().Changed("simulate") {
				simulate = c.cfg.DevServer.Simulate
			}

			srv := devserver.New(
				devserver.WithLogger(c.Logger),
				devserver.WithSimulation(simulate),
				devserver.WithInterval(c.cfg.DevServer.MetricsInterval.Std()),
			)
			if seedFile != "" {
				doc, err := vfio.ImportJSON(seedFile)
				if err != nil {
					return err
				}
				accepted := srv.Replace(doc)
				printSuccess("Seeded graph from %s", seedFile)
				printStats(len(accepted.Vertices), len(accepted.Edges))
			}

			printInfo("Serving on %s", StyleHighlight.Render(addr))
			printNextStep("Open the canvas", "vertexflow edit --backend http://localhost"+addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&seedFile, "seed", "", "graph document to start with")
	cmd.Flags().BoolVar(&simulate, "simulate", true, "invent message rates and log lines")
	return cmd
}
