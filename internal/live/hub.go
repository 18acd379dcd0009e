// Package live pushes GitHub stats snapshots to browsers over websockets.
//
// Clients connect to the live endpoint, immediately receive the current
// snapshot, and then receive every new snapshot the poller produces. The
// connection is one-way: anything the client sends is read and discarded,
// only so that a closed connection is noticed.
//
// All writes to client connections happen on the Run goroutine, since a
// gorilla/websocket connection supports only one concurrent writer.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudeepta/portfolio/internal/model"
)

const (
	writeWait  = 5 * time.Second
	bufferSize = 16
)

// Observer is notified as clients come and go. *metrics.Collector
// implements it.
type Observer interface {
	ClientConnected()
	ClientDisconnected()
}

type nopObserver struct{}

func (nopObserver) ClientConnected()    {}
func (nopObserver) ClientDisconnected() {}

// Message is the JSON frame sent to clients.
type Message struct {
	Type     string         `json:"type"`
	Snapshot model.Snapshot `json:"snapshot"`
}

// Hub tracks connected clients and fans snapshots out to them.
type Hub struct {
	snapshot func() model.Snapshot
	observer Observer
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clients    map[*websocket.Conn]bool
	mu         sync.RWMutex
	broadcast  chan model.Snapshot
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a Hub. snapshot supplies the value sent to each client
// on connect. allowedOrigins restricts the websocket handshake; an empty
// list accepts any origin.
func NewHub(snapshot func() model.Snapshot, allowedOrigins []string, observer Observer, logger *slog.Logger) *Hub {
	if observer == nil {
		observer = nopObserver{}
	}
	h := &Hub{
		snapshot:   snapshot,
		observer:   observer,
		logger:     logger,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan model.Snapshot, bufferSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin header.
		return origin == "" || set[origin]
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.observer.ClientConnected()
			h.logger.Debug("live client registered", slog.Int("clients", total))

		case conn := <-h.unregister:
			h.remove(conn)

		case snap := <-h.broadcast:
			data, err := json.Marshal(Message{Type: "stats", Snapshot: snap})
			if err != nil {
				h.logger.Error("encoding live snapshot", slog.String("error", err.Error()))
				continue
			}
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for c := range h.clients {
				conns = append(conns, c)
			}
			h.mu.RUnlock()

			for _, c := range conns {
				c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					h.logger.Debug("live broadcast failed, dropping client", slog.String("error", err.Error()))
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.observer.ClientDisconnected()
		h.logger.Debug("live client unregistered", slog.Int("clients", total))
	}
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[*websocket.Conn]bool)
	h.mu.Unlock()

	for c := range conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		c.Close()
		h.observer.ClientDisconnected()
	}
}

// Broadcast queues snap for delivery to every client. It never blocks: if
// the queue is full the snapshot is dropped, since a newer one will follow.
// It is meant to be registered with Poller.OnUpdate.
func (h *Hub) Broadcast(snap model.Snapshot) {
	select {
	case h.broadcast <- snap:
	case <-h.done:
	default:
		h.logger.Warn("live broadcast queue full, dropping snapshot")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket, sends the current
// snapshot and registers the connection for broadcasts.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Debug("live websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	// The first write happens before registration, so it cannot race with
	// a broadcast from Run.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: "stats", Snapshot: h.snapshot()}); err != nil {
		conn.Close()
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go h.readPump(conn)
}

// readPump discards client frames until the connection errors, then
// unregisters it.
func (h *Hub) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}
