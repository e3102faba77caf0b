package devserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/vertexflow/pkg/api"
)

const writeTimeout = 5 * time.Second

// hub tracks push clients and their subscriptions.
type hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu           sync.Mutex
	subscription string
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("push client connected", "remote", r.RemoteAddr)

	defer h.remove(c)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.mu.Lock()
		c.subscription = string(data)
		c.mu.Unlock()
		h.logger.Debug("push client subscribed", "vertex", string(data))
	}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *hub) snapshot() []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) subscriptions() []string {
	var out []string
	for _, c := range h.snapshot() {
		c.mu.Lock()
		if c.subscription != "" {
			out = append(out, c.subscription)
		}
		c.mu.Unlock()
	}
	slices.Sort(out)
	return out
}

// publishLog sends ev to clients subscribed to its vertex.
func (h *hub) publishLog(ev api.PushEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode log event", "error", err)
		return
	}
	for _, c := range h.snapshot() {
		c.mu.Lock()
		match := c.subscription != "" && c.subscription == ev.Log.VertexID
		c.mu.Unlock()
		if match {
			h.send(c, data)
		}
	}
}

func (h *hub) broadcast(ev api.PushEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event", "error", err)
		return
	}
	for _, c := range h.snapshot() {
		h.send(c, data)
	}
}

func (h *hub) send(c *client, data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("push write failed", "error", err)
		go h.remove(c)
	}
}

func (h *hub) closeAll() {
	for _, c := range h.snapshot() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		h.remove(c)
	}
}
