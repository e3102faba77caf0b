package cli

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vertexflow/pkg/errors"
)

func (c *CLI) editCommand() *cobra.Command {
	var (
		savePath string
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the full-screen canvas",
		Long: `Open a full-screen canvas on the backend graph.

Drag a vertex body to move it. Drag from an anchor (◆) onto the opposite
anchor of another vertex to link them. Clicking a vertex selects it and
streams its log into the bottom panel.

Keys: n new vertex, x delete selected, f format, s save, r reload,
esc cancel, arrows pan, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// The canvas owns the terminal; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "open log file")
				}
				defer f.Close()
				logOut = f
			}
			c.Logger.SetOutput(logOut)
			defer c.Logger.SetOutput(os.Stderr)

			ws, err := c.openSession(ctx, true)
			if err != nil {
				return err
			}
			defer ws.close(ctx, c.Logger)

			go func() {
				if err := ws.session.Run(ctx, ws.push.Events()); err != nil {
					c.Logger.Debug("push loop stopped", "error", err)
				}
			}()

			p := tea.NewProgram(newCanvasModel(ws.session, savePath),
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
			)
			if _, err := p.Run(); err != nil && ctx.Err() == nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "canvas")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&savePath, "save-to", "vertexflow.json", "file written by the s key")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file while the canvas is open")
	return cmd
}
