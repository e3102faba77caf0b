package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
)

func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch VERTEX",
		Short: "Stream the log and message rate of a vertex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openSession(ctx, true)
			if err != nil {
				return err
			}
			defer ws.close(ctx, c.Logger)

			st := ws.session.Store()
			v, err := resolve(st, args[0])
			if err != nil {
				return err
			}
			if err := st.SelectVertex(v.ID); err != nil {
				return err
			}
			printInfo("Watching %s %s", StyleHighlight.Render(v.Name), StyleDim.Render("(ctrl+c to stop)"))

			lastMPS := -1.0
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-ws.push.Events():
					if !ok {
						if err := ws.push.Err(); err != nil {
							return err
						}
						return errors.New(errors.ErrCodeClosed, "push channel closed")
					}
					if !st.ApplyPushEvent(ev) {
						continue
					}
					switch ev.Type {
					case api.EventLog:
						printLogLine(ev.Log.LogMessage().Timestamp, ev.Log.Message)
					case api.EventMetrics:
						cur, ok := st.Vertex(v.ID)
						if !ok {
							return errors.New(errors.ErrCodeNotFound, "vertex %s was deleted", v.Name)
						}
						if cur.MPS != lastMPS {
							lastMPS = cur.MPS
							printDetail("%.1f msg/s", cur.MPS)
						}
					}
				}
			}
		},
	}
}

func printLogLine(ts float64, msg string) {
	t := time.UnixMilli(int64(ts * 1e3))
	fmt.Fprintln(stdout, StyleDim.Render(t.Format("15:04:05.000"))+" "+msg)
}
