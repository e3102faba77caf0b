package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vertexflow/internal/config"
	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/editor"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/positions"
	"github.com/matzehuels/vertexflow/pkg/push"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	backendURL string
	cfg        config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the configuration and applies the --backend override.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.backendURL != "" {
		cfg.Backend.URL = c.backendURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "backend", cfg.Backend.URL, "positions", cfg.Positions.Backend)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) newClient() (*api.Client, error) {
	return api.NewClient(c.cfg.Backend.URL,
		api.WithTimeout(c.cfg.Backend.Timeout.Std()),
		api.WithLogger(c.Logger),
	)
}

func (c *CLI) openPositions(ctx context.Context) (positions.Store, error) {
	return positions.Open(ctx, c.cfg.PositionsConfig())
}

func (c *CLI) dialPush(ctx context.Context) (*push.Client, error) {
	return push.Dial(ctx, c.cfg.PushURL(),
		push.WithLogger(c.Logger),
		push.WithReconnect(c.cfg.Push.Reconnect),
		push.WithBackoff(c.cfg.Push.InitialBackoff.Std(), c.cfg.Push.MaxBackoff.Std(), 0),
		push.WithBuffer(c.cfg.Push.Buffer),
	)
}

// workspace bundles a loaded editing session with the resources it owns.
type workspace struct {
	client    *api.Client
	positions positions.Store
	push      *push.Client
	session   *editor.Session
}

// openSession connects to the backend and loads the graph. With live set
// it also dials the push channel and wires it as the subscription slot.
func (c *CLI) openSession(ctx context.Context, live bool) (*workspace, error) {
	client, err := c.newClient()
	if err != nil {
		return nil, err
	}
	ps, err := c.openPositions(ctx)
	if err != nil {
		return nil, err
	}

	ws := &workspace{client: client, positions: ps}
	opts := []editor.Option{
		editor.WithLogger(c.Logger),
		editor.WithPositions(ps),
		editor.WithRequestTimeout(c.cfg.Backend.Timeout.Std()),
		editor.WithLogLimit(c.cfg.Editor.LogLimit),
		editor.WithSeed(c.cfg.Editor.SeedX, c.cfg.Editor.SeedY),
	}
	if live {
		pc, err := c.dialPush(ctx)
		if err != nil {
			_ = ps.Close()
			return nil, err
		}
		ws.push = pc
		opts = append(opts, editor.WithSubscriber(pc))
	}
	ws.session = editor.New(client, opts...)

	if err := ws.session.Load(ctx); err != nil {
		ws.close(ctx, c.Logger)
		if errors.IsTransport(err) {
			return nil, errors.Wrap(errors.GetCode(err), err, "backend %s unreachable", client.BaseURL())
		}
		return nil, err
	}
	return ws, nil
}

// close saves positions and releases connections.
func (w *workspace) close(ctx context.Context, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.session.Close(ctx); err != nil {
		logger.Warn("saving positions failed", "error", err)
	}
	if w.push != nil {
		_ = w.push.Close()
	}
	_ = w.positions.Close()
}
