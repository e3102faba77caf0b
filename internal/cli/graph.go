package cli

import (
	"os"

	"github.com/spf13/cobra"

	vfio "github.com/matzehuels/vertexflow/pkg/io"
	"github.com/matzehuels/vertexflow/pkg/layout"
	"github.com/matzehuels/vertexflow/pkg/render/nodelink"
)

// =============================================================================
// save / load
// =============================================================================

func (c *CLI) saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save FILE",
		Short: "Write the graph document to FILE (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newClient()
			if err != nil {
				return err
			}
			sp := newSpinner(cmd.Context(), "Fetching graph...").Start()
			doc, err := client.FetchGraph(cmd.Context())
			sp.Stop()
			if err != nil {
				return err
			}

			if args[0] == "-" {
				return vfio.WriteJSON(doc, stdout)
			}
			if err := vfio.ExportJSON(doc, args[0]); err != nil {
				return err
			}
			printSuccess("Saved graph")
			printStats(len(doc.Vertices), len(doc.Edges))
			printFile(args[0])
			return nil
		},
	}
}

func (c *CLI) loadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Replace the backend graph with FILE and lay it out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			sp := newSpinner(ctx, "Connecting...").Start()
			ws, err := c.openSession(ctx, false)
			if err != nil {
				sp.Stop()
				return err
			}
			defer ws.close(ctx, c.Logger)

			sp.SetMessage("Replacing graph...")
			res, err := ws.session.ImportFile(ctx, args[0])
			if err := sp.Done("Loaded "+args[0], err); err != nil {
				return err
			}
			prog.done("graph loaded", "vertices", len(res.Vertices))
			reportLayout(res)
			return nil
		},
	}
}

// =============================================================================
// format / list
// =============================================================================

func (c *CLI) formatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Lay the graph out in layers and remember the positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer ws.close(ctx, c.Logger)

			reportLayout(ws.session.Format())
			return nil
		},
	}
}

func reportLayout(res layout.Result) {
	printColumns(res)
	if len(res.Unplaced) > 0 {
		printWarning("%d vertices sit on or behind a cycle and kept their position", len(res.Unplaced))
		for _, id := range res.Unplaced {
			printDetail("%s (%s)", res.Vertices[id].Name, id)
		}
		for _, e := range res.Cycles {
			printDetail("cycle closed by %s → %s (edge %s)", res.Vertices[e.From].Name, res.Vertices[e.To].Name, e.ID)
		}
	}
}

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List vertices with their positions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer ws.close(ctx, c.Logger)

			st := ws.session.Store()
			printVertices(st.Vertices())
			printStats(len(st.Vertices()), len(st.Edges()))
			return nil
		},
	}
}

// =============================================================================
// render
// =============================================================================

func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		dot      bool
		detailed bool
		format   bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write an SVG (or DOT) snapshot of the canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer ws.close(ctx, c.Logger)

			if format {
				ws.session.Format()
			}
			st := ws.session.Store()
			src := nodelink.ToDOT(st.Snapshot(), nodelink.Options{Detailed: detailed, Selected: st.Selected()})

			data := []byte(src)
			if !dot {
				sp := newSpinner(ctx, "Rendering...").Start()
				data, err = nodelink.RenderSVG(ctx, src)
				sp.Stop()
				if err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err := stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Rendered snapshot")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&dot, "dot", false, "write Graphviz DOT instead of SVG")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include code and message rate in labels")
	cmd.Flags().BoolVar(&format, "format", false, "lay the graph out before rendering")
	return cmd
}
