// Package stream pushes factory state and events to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"candyworks/internal/session"
	"candyworks/internal/tycoon"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	defaultBuffer  = 64
)

// Message is one frame sent to clients.
type Message struct {
	Type  string                 `json:"type"`
	State *session.StateResponse `json:"state,omitempty"`
	Event *tycoon.Event          `json:"event,omitempty"`
}

type Options struct {
	// StateEvery is how often a full state frame is broadcast. Zero disables it.
	StateEvery  time.Duration
	// Buffer is the per-client queue length. Slower clients are dropped.
	Buffer      int
	Logger      *log.Logger
	// CheckOrigin overrides the upgrader's origin check. Nil accepts any origin.
	CheckOrigin func(*http.Request) bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session events and periodic state frames out to every client.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	session    *session.Session
	stateEvery time.Duration
	buffer     int
	logger     *log.Logger
	upgrader   websocket.Upgrader

	register   chan *client
	unregister chan *client
	done       chan struct{}
	clients    atomic.Int64
}

func NewHub(s *session.Session, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	check := opts.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &Hub{
		session:    s,
		stateEvery: opts.StateEvery,
		buffer:     opts.Buffer,
		logger:     opts.Logger,
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096, CheckOrigin: check},
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Clients reports how many connections are registered.
func (h *Hub) Clients() int { return int(h.clients.Load()) }

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	events, unsubscribe := h.session.Subscribe(h.buffer)
	defer unsubscribe()

	var tick <-chan time.Time
	if h.stateEvery > 0 {
		t := time.NewTicker(h.stateEvery)
		defer t.Stop()
		tick = t.C
	}

	clients := make(map[*client]bool)
	drop := func(c *client) {
		if clients[c] {
			delete(clients, c)
			close(c.send)
			h.clients.Store(int64(len(clients)))
		}
	}
	fanout := func(msg Message) {
		if len(clients) == 0 {
			return
		}
		b, err := json.Marshal(msg)
		if err != nil {
			h.logf("error", "stream_marshal_failed", map[string]any{"error": err.Error()})
			return
		}
		for c := range clients {
			select {
			case c.send <- b:
			default:
				h.logf("warn", "stream_client_dropped", map[string]any{"remote": c.conn.RemoteAddr().String()})
				drop(c)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				drop(c)
			}
			return
		case c := <-h.register:
			clients[c] = true
			h.clients.Store(int64(len(clients)))
		case c := <-h.unregister:
			drop(c)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			fanout(Message{Type: "event", Event: &ev})
		case <-tick:
			st := session.StateOf(h.session)
			fanout(Message{Type: "state", State: &st})
		}
	}
}

// ServeWS upgrades the request and sends the current state before any event.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("warn", "stream_upgrade_failed", map[string]any{"error": err.Error()})
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.buffer)}

	st := session.StateOf(h.session)
	if b, err := json.Marshal(Message{Type: "state", State: &st}); err == nil {
		c.send <- b
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump only watches for the peer going away; clients drive the factory
// through the command API.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) logf(level, msg string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.logger.Print(string(b))
}
