package bridge

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scottieai/collab-hub/host/internal/logger"
)

// wsClient represents a connected UI surface
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan interface{}
	id   string
}

// Hub manages UI connections, fans events out to them, and feeds incoming
// requests through the bridge dispatcher. While at least one client is
// connected the hub attaches itself as the bridge's subscriber; when the
// last client leaves it detaches, so events fall back to the bridge's
// drop-without-subscriber behavior.
type Hub struct {
	bridge     *Bridge
	clients    map[*wsClient]bool
	broadcast  chan Event
	register   chan *wsClient
	unregister chan *wsClient
	connected  chan struct{}
	mu         sync.RWMutex
	running    bool
	stopChan   chan struct{}
	stopOnce   sync.Once
	logger     *logger.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The bridge listens on loopback only; the UI surface is the
		// sole expected peer.
		return true
	},
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum request size allowed from the UI
	maxMessageSize = 64 * 1024
)

// NewHub creates a hub bound to the given bridge.
func NewHub(b *Bridge) *Hub {
	return &Hub{
		bridge:     b,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		connected:  make(chan struct{}, 1),
		stopChan:   make(chan struct{}),
		logger:     logger.NewComponentLogger("BridgeHub"),
	}
}

// Connected signals each time a client attaches to an empty hub. The
// supervisor uses the first signal as the main surface's ready event.
func (h *Hub) Connected() <-chan struct{} {
	return h.connected
}

// ClientCount returns the number of connected UI surfaces.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			wasEmpty := len(h.clients) == 0
			h.clients[client] = true
			h.mu.Unlock()

			if wasEmpty {
				h.bridge.SetSubscriber(h)
				select {
				case h.connected <- struct{}{}:
				default:
				}
			}
			h.logger.Info("UI surface %s attached (total: %d)", client.id, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			empty := len(h.clients) == 0
			h.mu.Unlock()

			if empty {
				h.bridge.ClearSubscriber()
			}
			h.logger.Info("UI surface %s detached (total: %d)", client.id, h.ClientCount())

		case evt := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- evt:
				default:
					// Client's send buffer is full, close the connection
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("UI surface %s removed due to full buffer", client.id)
				}
			}
			h.mu.Unlock()

		case <-h.stopChan:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				client.conn.Close()
			}
			h.clients = make(map[*wsClient]bool)
			h.running = false
			h.mu.Unlock()
			h.bridge.ClearSubscriber()
			return
		}
	}
}

// Stop gracefully stops the hub. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Deliver implements Subscriber by queueing the event for broadcast.
// A full broadcast queue drops the event; emission never blocks.
func (h *Hub) Deliver(evt Event) {
	select {
	case h.broadcast <- evt:
	default:
		h.logger.Warn("Broadcast queue full, dropping %s event", evt.Event)
	}
}

// HandleWS upgrades an HTTP request to a bridge connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade error: %v", err)
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan interface{}, 256),
		id:   r.RemoteAddr,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads command requests from the UI and dispatches them.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Unexpected close from %s: %v", c.id, err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.enqueue(Response{OK: false, Error: "malformed request"})
			continue
		}

		// Dispatch off the read loop so a slow handler (dialogs, network)
		// never blocks further requests or the connection keepalive.
		go func(req Request) {
			c.enqueue(c.hub.bridge.Dispatch(req))
		}(req)
	}
}

// enqueue queues an outbound message, dropping it if the client is gone.
func (c *wsClient) enqueue(msg interface{}) {
	defer func() {
		// Send on a closed channel means the client detached mid-dispatch.
		recover()
	}()

	select {
	case c.send <- msg:
	default:
	}
}

// writePump writes responses and events to the UI connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			if err := json.NewEncoder(w).Encode(msg); err != nil {
				c.hub.logger.Error("Error encoding message: %v", err)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
