package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans orchestrator events out to websocket clients. It never blocks the
// publisher: a client whose buffer is full misses the event, and state
// snapshots older than the last one sent are dropped.
type Hub struct {
	lock         sync.Mutex
	clients      map[*client]struct{}
	lastRevision uint64
	closed       bool
}

type client struct {
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// StateChanged checks the revision and enqueues under one lock, so a slower
// publisher can never deliver an older snapshot after a newer one.
func (h *Hub) StateChanged(s session.State) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if s.Revision < h.lastRevision {
		return
	}
	h.lastRevision = s.Revision
	h.sendLocked(Event{Type: EventState, Payload: s})
}

func (h *Hub) Notified(n common.Notification) {
	h.broadcast(Event{Type: EventNotification, Payload: n})
}

func (h *Hub) Navigate(route string) {
	h.broadcast(Event{Type: EventNavigate, Payload: route})
}

func (h *Hub) ClientCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev Event) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.sendLocked(ev)
}

func (h *Hub) sendLocked(ev Event) {
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			log.Warn().Str("type", ev.Type).Msg("ws client too slow, event dropped")
		}
	}
}

// greet hands a freshly registered client the current state unless a newer
// snapshot has already been broadcast to it.
func (h *Hub) greet(c *client, s session.State) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.clients[c]; !ok || s.Revision < h.lastRevision {
		return
	}
	select {
	case c.send <- Event{Type: EventState, Payload: s}:
	default:
	}
}

func (h *Hub) register(c *client) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.lock.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.lock.Unlock()
	if ok {
		c.close()
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.lock.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.lock.Unlock()
	for c := range clients {
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Stream upgrades to a websocket, sends the current state and then every
// event the orchestrator publishes.
func (api *APIService) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	cl := &client{conn: conn, send: make(chan Event, clientSendSize)}
	if !api.hub.register(cl) {
		conn.Close()
		return
	}
	api.hub.greet(cl, api.orch.State())
	go cl.writePump()
	cl.readPump(api.hub)
}

// readPump only watches for the peer going away; clients send nothing.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
	}()
	c.conn.SetReadLimit(512)
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

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
