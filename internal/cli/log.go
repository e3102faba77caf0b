// Package cli implements the vertexflow command-line interface.
//
// Commands talk to a graph backend over HTTP and its push channel:
//   - serve: run the in-memory development backend
//   - save / load: export and import the whole graph document
//   - format: lay the graph out in layers and remember the positions
//   - render: write an SVG or DOT snapshot
//   - vertex / edge: single mutations
//   - watch: stream a vertex's log and message rate
//   - edit: full-screen canvas driven by the mouse
//
// All commands accept --verbose (-v) for debug logging, --config to pick a
// configuration file and --backend to override the backend URL.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger. Timestamps look like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
