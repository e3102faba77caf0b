package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/graph"
	"github.com/matzehuels/vertexflow/pkg/store"
)

func (c *CLI) vertexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vertex",
		Short: "Create, rename, recode or delete a vertex",
	}
	cmd.AddCommand(c.vertexCreateCommand())
	cmd.AddCommand(c.vertexRenameCommand())
	cmd.AddCommand(c.vertexCodeCommand())
	cmd.AddCommand(c.vertexDeleteCommand())
	return cmd
}

// withStore runs fn against a freshly loaded store and saves positions
// afterwards.
func (c *CLI) withStore(ctx context.Context, fn func(*store.Store) error) error {
	ws, err := c.openSession(ctx, false)
	if err != nil {
		return err
	}
	defer ws.close(ctx, c.Logger)
	return fn(ws.session.Store())
}

// resolve finds a vertex by id or name.
func resolve(st *store.Store, ref string) (graph.Vertex, error) {
	v, ok := st.FindVertex(ref)
	if !ok {
		return graph.Vertex{}, errors.New(errors.ErrCodeNotFound, "no vertex with id or name %q", ref)
	}
	return v, nil
}

// codeFlags reads vertex code from --code or --file.
type codeFlags struct {
	code string
	file string
}

func (f *codeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.code, "code", "", "vertex code")
	cmd.Flags().StringVar(&f.file, "file", "", "read vertex code from file")
	cmd.MarkFlagsMutuallyExclusive("code", "file")
}

func (f *codeFlags) value() (string, error) {
	if f.file == "" {
		return f.code, nil
	}
	data, err := os.ReadFile(f.file)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read code file")
	}
	return string(data), nil
}

func (c *CLI) vertexCreateCommand() *cobra.Command {
	var (
		name string
		code codeFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a vertex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := code.value()
			if err != nil {
				return err
			}
			var namePtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			return c.withStore(cmd.Context(), func(st *store.Store) error {
				v, err := st.CreateVertex(cmd.Context(), namePtr, src)
				if err != nil {
					return err
				}
				printSuccess("Created vertex %s", StyleHighlight.Render(v.Name))
				printKeyValue("id", v.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (backend default when omitted)")
	code.register(cmd)
	return cmd
}

func (c *CLI) vertexRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename VERTEX NAME",
		Short: "Rename a vertex",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st *store.Store) error {
				v, err := resolve(st, args[0])
				if err != nil {
					return err
				}
				if _, err := st.RenameVertex(cmd.Context(), v.ID, args[1]); err != nil {
					return err
				}
				printSuccess("Renamed %s to %s", v.Name, StyleHighlight.Render(args[1]))
				return nil
			})
		},
	}
}

func (c *CLI) vertexCodeCommand() *cobra.Command {
	var code codeFlags
	cmd := &cobra.Command{
		Use:   "code VERTEX",
		Short: "Replace the code of a vertex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := code.value()
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st *store.Store) error {
				v, err := resolve(st, args[0])
				if err != nil {
					return err
				}
				if _, err := st.SetVertexCode(cmd.Context(), v.ID, src); err != nil {
					return err
				}
				printSuccess("Updated code of %s", StyleHighlight.Render(v.Name))
				return nil
			})
		},
	}
	code.register(cmd)
	return cmd
}

func (c *CLI) vertexDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete VERTEX",
		Aliases: []string{"rm"},
		Short:   "Delete a vertex and its edges",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st *store.Store) error {
				v, err := resolve(st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteVertex(cmd.Context(), v.ID); err != nil {
					return err
				}
				printSuccess("Deleted %s", v.Name)
				return nil
			})
		},
	}
}

func (c *CLI) edgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Manage edges",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create FROM TO",
		Short: "Link the out side of FROM to the in side of TO",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st *store.Store) error {
				from, err := resolve(st, args[0])
				if err != nil {
					return err
				}
				to, err := resolve(st, args[1])
				if err != nil {
					return err
				}
				e, err := st.CreateEdge(cmd.Context(), from.ID, to.ID)
				if err != nil {
					return err
				}
				printSuccess("Linked %s %s %s", from.Name, iconArrow, to.Name)
				printKeyValue("id", e.ID)
				return nil
			})
		},
	})
	return cmd
}
