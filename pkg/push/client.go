package push

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/httputil"
)

// Defaults for a push client.
const (
	DefaultBuffer           = 64
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
)

// Client is a push channel connection. Events are delivered on [Client.Events]
// until the connection ends for good; the channel is then closed.
type Client struct {
	url          string
	dialer       *websocket.Dialer
	logger       *log.Logger
	reconnect    bool
	maxRetries   int
	backoff      httputil.Backoff
	writeTimeout time.Duration
	buffer       int

	events chan api.PushEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	conn         *websocket.Conn
	subscription string
	closed       bool
	err          error

	writeMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for connection diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReconnect enables reconnecting after the connection drops.
func WithReconnect(enabled bool) Option {
	return func(c *Client) { c.reconnect = enabled }
}

// WithBackoff sets the reconnect delay schedule. maxRetries bounds
// consecutive failed attempts; zero means unlimited.
func WithBackoff(initial, maxDelay time.Duration, maxRetries int) Option {
	return func(c *Client) {
		c.backoff = httputil.Backoff{Initial: initial, Max: maxDelay, Multiplier: 2}
		c.maxRetries = maxRetries
	}
}

// WithBuffer sets the capacity of the events channel.
func WithBuffer(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// Dial connects to the push channel at rawURL (ws or wss). ctx bounds the
// initial handshake only; use [Client.Close] to end the connection.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(rawURL, "ws", "wss"); err != nil {
		return nil, err
	}

	c := &Client{
		url:          rawURL,
		dialer:       &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
		logger:       log.Default(),
		writeTimeout: DefaultWriteTimeout,
		buffer:       DefaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	c.events = make(chan api.PushEvent, c.buffer)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.conn = conn

	c.wg.Add(1)
	go c.run(conn)
	return c, nil
}

// Events returns the channel of decoded, validated push events.
func (c *Client) Events() <-chan api.PushEvent { return c.events }

// Subscription returns the vertex id last passed to Subscribe.
func (c *Client) Subscription() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscription
}

// Subscribe points the log stream at vertexID. The id is remembered and
// re-sent after reconnects. While a reconnect is pending the call succeeds
// and the frame is sent once the connection is back.
func (c *Client) Subscribe(vertexID string) error {
	if err := errors.ValidateVertexID(vertexID); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeClosed, "push channel closed")
	}
	conn := c.conn
	if conn == nil && !c.reconnect {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeClosed, "push channel disconnected")
	}
	c.subscription = vertexID
	c.mu.Unlock()

	if conn == nil {
		c.logger.Debug("subscription deferred until reconnect", "vertex", vertexID)
		return nil
	}
	return c.deliver(conn, vertexID)
}

// deliver sends the subscription frame on conn. A failed write counts as
// success when conn has since been dropped for reconnecting, because the
// recorded subscription is sent on the replacement connection.
func (c *Client) deliver(conn *websocket.Conn, vertexID string) error {
	err := c.send(conn, vertexID)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	superseded := c.reconnect && !c.closed && c.conn != conn
	c.mu.Unlock()
	if superseded {
		c.logger.Debug("subscribe hit a stale connection, resent after reconnect", "vertex", vertexID)
		return nil
	}
	return err
}

// Err returns the error that ended the connection, once Events is closed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the connection and waits for the reader to stop.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	c.wg.Wait()
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "dial %s", c.url)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "dial %s", c.url)
	}
	c.logger.Debug("push channel connected", "url", c.url)
	return conn, nil
}

func (c *Client) send(conn *websocket.Conn, vertexID string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(vertexID)); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "subscribe %q", vertexID)
	}
	return nil
}

func (c *Client) run(conn *websocket.Conn) {
	defer c.wg.Done()
	defer close(c.events)

	for {
		err := c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()
		_ = conn.Close()

		if closed {
			c.finish(errors.New(errors.ErrCodeClosed, "push channel closed"))
			return
		}
		c.logger.Warn("push channel lost", "error", err)
		if !c.reconnect {
			c.finish(err)
			return
		}

		next, err := c.redial()
		if err != nil {
			c.finish(err)
			return
		}
		conn = next
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "read push frame")
		}

		ev, err := api.DecodePushEvent(data)
		if err != nil {
			c.logger.Debug("dropping push frame", "error", err)
			continue
		}

		select {
		case c.events <- ev:
		case <-c.ctx.Done():
			return errors.New(errors.ErrCodeClosed, "push channel closed")
		}
	}
}

func (c *Client) redial() (*websocket.Conn, error) {
	c.backoff.Reset()
	for attempt := 1; ; attempt++ {
		if c.maxRetries > 0 && attempt > c.maxRetries {
			return nil, errors.New(errors.ErrCodeNetwork, "push channel: gave up after %d reconnect attempts", c.maxRetries)
		}

		delay := c.backoff.Next()
		t := time.NewTimer(delay)
		select {
		case <-c.ctx.Done():
			t.Stop()
			return nil, errors.New(errors.ErrCodeClosed, "push channel closed")
		case <-t.C:
		}

		conn, err := c.dial(c.ctx)
		if err != nil {
			c.logger.Debug("reconnect failed", "attempt", attempt, "delay", delay, "error", err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return nil, errors.New(errors.ErrCodeClosed, "push channel closed")
		}
		c.conn = conn
		sub := c.subscription
		c.mu.Unlock()

		if sub != "" {
			if err := c.send(conn, sub); err != nil {
				c.logger.Warn("resubscribe failed", "vertex", sub, "error", err)
			}
		}
		c.logger.Info("push channel reconnected", "attempt", attempt)
		return conn, nil
	}
}

func (c *Client) finish(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
