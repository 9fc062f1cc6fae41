// Package relay implements the realtime side of the channel contract: a
// websocket fan-out server with per-room presence tracking. Messages are
// delivered at-least-once to current subscribers; there is no replay for
// late joiners and nothing is persisted.
package relay

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/flixoflax/lto.lachsnudel.space/internal/realtime"
)

// Hub owns every room. All membership changes and fan-outs for a room
// happen under the hub lock, which serializes delivery per subscriber.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*room
	logger *log.Logger
}

type room struct {
	name    string
	clients map[*client]struct{}
	members map[string]realtime.PresenceMeta
}

type client struct {
	conn    *websocket.Conn
	send    chan realtime.Envelope
	tracked string // presence key announced via track, empty until then
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]*room),
		logger: logger,
	}
}

// Join registers a websocket connection in the given room and services it
// until the connection drops. Blocks for the connection's lifetime.
func (h *Hub) Join(roomName string, conn *websocket.Conn) {
	c := &client{
		conn: conn,
		send: make(chan realtime.Envelope, 64),
	}

	h.mu.Lock()
	r, ok := h.rooms[roomName]
	if !ok {
		r = &room{
			name:    roomName,
			clients: make(map[*client]struct{}),
			members: make(map[string]realtime.PresenceMeta),
		}
		h.rooms[roomName] = r
	}
	r.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("client joined", "room", roomName, "clients", h.clientCount(roomName))

	go c.writePump()
	h.readPump(r, c)

	h.leave(r, c)
}

func (h *Hub) readPump(r *room, c *client) {
	for {
		var env realtime.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Type {
		case realtime.TypeBroadcast:
			h.fanOut(r, env)
		case realtime.TypeTrack:
			if env.Sender == "" || env.Meta == nil {
				continue
			}
			h.mu.Lock()
			c.tracked = env.Sender
			r.members[env.Sender] = *env.Meta
			h.mu.Unlock()
			h.syncPresence(r)
		}
	}
}

// fanOut delivers a broadcast to every subscriber, the sender included.
// Clients filter their own messages by origin identity.
func (h *Hub) fanOut(r *room, env realtime.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range r.clients {
		select {
		case c.send <- env:
		default:
			// Slow consumer; message loss is an accepted risk
			h.logger.Warn("dropping message for slow client", "room", r.name)
		}
	}
}

func (h *Hub) syncPresence(r *room) {
	h.mu.Lock()
	members := make(map[string]realtime.PresenceMeta, len(r.members))
	for k, v := range r.members {
		members[k] = v
	}
	env := realtime.Envelope{
		Type:    realtime.TypePresence,
		Event:   realtime.EventSync,
		Members: members,
	}
	for c := range r.clients {
		select {
		case c.send <- env:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *Hub) leave(r *room, c *client) {
	h.mu.Lock()
	delete(r.clients, c)
	if c.tracked != "" {
		delete(r.members, c.tracked)
	}
	empty := len(r.clients) == 0
	if empty {
		delete(h.rooms, r.name)
	}
	h.mu.Unlock()

	close(c.send)
	h.logger.Info("client left", "room", r.name)

	if !empty {
		h.syncPresence(r)
	}
}

func (h *Hub) clientCount(roomName string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[roomName]; ok {
		return len(r.clients)
	}
	return 0
}

func (c *client) writePump() {
	defer c.conn.Close()
	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}
